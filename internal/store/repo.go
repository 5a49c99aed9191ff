package store

import (
	"context"
	"time"
)

// QueryOpts configures history queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // created_at >= From
	To    time.Time // created_at <= To
}

// WorkoutData is the persisted form of one (user, topic) workout row.
// Zero times are stored as NULL.
type WorkoutData struct {
	UserID           string
	TopicID          string
	AttemptID        string
	Started          bool
	Finished         bool
	FinishedEarly    bool
	StartedAt        time.Time
	FinishedAt       time.Time
	QuestionsOrder   []string
	StepIndex        int
	SelectedAnswerID string
	QuestionResults  []bool
	CorrectAnswers   int
	CurrentRatio     int
	TimeSeconds      int
	Skipped          []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// WorkoutStatsData is one immutable history record.
type WorkoutStatsData struct {
	AttemptID      string
	UserID         string
	TopicID        string
	TotalQuestions int
	CorrectAnswers int
	Ratio          int
	TimeSeconds    int
	FinishedEarly  bool
	StartedAt      time.Time
	FinishedAt     time.Time
	CreatedAt      time.Time
}

// WorkoutRepo persists the current workout row and its append-only history.
type WorkoutRepo interface {
	// Get returns the row for (userID, topicID), or nil if none exists.
	Get(ctx context.Context, userID, topicID string) (*WorkoutData, error)

	// Save replaces the whole row for (w.UserID, w.TopicID), inserting it
	// if absent, and appends the given history records in the same
	// transaction. Records whose attempt id already exists are ignored,
	// so Save may be retried with the same payload.
	Save(ctx context.Context, w *WorkoutData, stats []WorkoutStatsData) error

	// History returns history records for (userID, topicID), newest first.
	History(ctx context.Context, userID, topicID string, opts QueryOpts) ([]WorkoutStatsData, error)
}

// TopicData is a topic with its questions, in display order.
type TopicData struct {
	ID         string
	Title      string
	ImportedAt time.Time
	Questions  []QuestionData
}

// QuestionData is a question with its answer options.
type QuestionData struct {
	ID      string
	Text    string
	Answers []AnswerData
}

// AnswerData is one answer option; Correct marks membership in the
// question's correctness set.
type AnswerData struct {
	ID      string
	Text    string
	Correct bool
}

// TopicRepo provides read access to topics plus bulk import.
type TopicRepo interface {
	// Import replaces the topic and all of its questions and answers.
	Import(ctx context.Context, t TopicData) error

	// Topic returns the topic with questions and answers, or nil if absent.
	Topic(ctx context.Context, id string) (*TopicData, error)

	// List returns all topics without their questions, ordered by id.
	List(ctx context.Context) ([]TopicData, error)
}

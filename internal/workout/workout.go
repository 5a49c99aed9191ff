// Package workout implements the training-session engine: question
// ordering, the answer-step state machine, live metrics, resume, and
// asynchronous whole-state persistence.
package workout

import (
	"slices"
	"time"
)

// Phase is the lifecycle state of a workout attempt.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

// Workout is the single mutable row for one (user, topic) pair.
type Workout struct {
	UserID    string
	TopicID   string
	AttemptID string

	Started       bool
	Finished      bool
	FinishedEarly bool // Finish ended the attempt before the last step
	StartedAt     time.Time
	FinishedAt    time.Time

	// QuestionsOrder is fixed for the life of an attempt.
	QuestionsOrder []string
	StepIndex      int

	// SelectedAnswerID is the pending, unconfirmed choice for the
	// current step. QuestionResults holds one outcome per confirmed step.
	SelectedAnswerID string
	QuestionResults  []bool

	CorrectAnswers int
	CurrentRatio   int

	// Skipped lists ordered question ids whose step was reached after the
	// question had been removed from the topic.
	Skipped []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Phase derives the lifecycle state from the row flags.
func (w *Workout) Phase() Phase {
	switch {
	case w.Finished:
		return PhaseCompleted
	case w.Started:
		return PhaseInProgress
	default:
		return PhaseNotStarted
	}
}

// CurrentQuestionID returns the id of the question at StepIndex while the
// attempt is in progress.
func (w *Workout) CurrentQuestionID() (string, bool) {
	if w.Phase() != PhaseInProgress || w.StepIndex >= len(w.QuestionsOrder) {
		return "", false
	}
	return w.QuestionsOrder[w.StepIndex], true
}

// QuestionsCount is the number of steps in the attempt.
func (w *Workout) QuestionsCount() int { return len(w.QuestionsOrder) }

// Clone returns a deep copy.
func (w *Workout) Clone() *Workout {
	c := *w
	c.QuestionsOrder = slices.Clone(w.QuestionsOrder)
	c.QuestionResults = slices.Clone(w.QuestionResults)
	c.Skipped = slices.Clone(w.Skipped)
	return &c
}

// HistoryRecord is the immutable summary of one completed attempt.
type HistoryRecord struct {
	AttemptID      string    `json:"attemptId"`
	UserID         string    `json:"userId"`
	TopicID        string    `json:"topicId"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	Ratio          int       `json:"ratio"`
	TimeSeconds    int       `json:"timeSeconds"`
	FinishedEarly  bool      `json:"finishedEarly"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

package workout

import (
	"slices"
	"time"

	"github.com/abhisek/drillz/internal/topics"
)

// View is the read model exposed to clients. CurrentQuestion never
// carries correctness data.
type View struct {
	TopicID    string   `json:"topicId"`
	TopicTitle string   `json:"topicTitle"`
	AttemptID  string   `json:"attemptId"`
	Phase      Phase    `json:"phase"`
	Resume     Decision `json:"resume"`
	Available  bool     `json:"available"`

	Started       bool       `json:"started"`
	Finished      bool       `json:"finished"`
	FinishedEarly bool       `json:"finishedEarly"`
	StartedAt     *time.Time `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt"`

	StepIndex        int      `json:"stepIndex"`
	QuestionsOrder   []string `json:"questionsOrder"`
	SelectedAnswerID string   `json:"selectedAnswerId"`
	QuestionResults  []bool   `json:"questionResults"`
	CorrectAnswers   int      `json:"correctAnswers"`
	CurrentRatio     int      `json:"currentRatio"`
	CurrentTime      int      `json:"currentTime"`
	QuestionsCount   int      `json:"questionsCount"`
	Skipped          []string `json:"skipped"`

	CurrentQuestion *QuestionView `json:"currentQuestion,omitempty"`

	// Unsaved is raised when the latest state failed to persist.
	Unsaved bool `json:"unsaved"`
}

// QuestionView is a question as presented to the learner.
type QuestionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Answers []AnswerView `json:"answers"`
}

// AnswerView is an answer option without its correctness flag.
type AnswerView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func newView(w *Workout, qs *topics.QuestionSet, now time.Time, unsaved bool) View {
	v := View{
		TopicID:          w.TopicID,
		TopicTitle:       qs.Title,
		AttemptID:        w.AttemptID,
		Phase:            w.Phase(),
		Resume:           DecisionFor(w.Phase()),
		Available:        Available(w, qs),
		Started:          w.Started,
		Finished:         w.Finished,
		FinishedEarly:    w.FinishedEarly,
		StartedAt:        timePtr(w.StartedAt),
		FinishedAt:       timePtr(w.FinishedAt),
		StepIndex:        w.StepIndex,
		QuestionsOrder:   nonNil(w.QuestionsOrder),
		SelectedAnswerID: w.SelectedAnswerID,
		QuestionResults:  nonNil(w.QuestionResults),
		CorrectAnswers:   w.CorrectAnswers,
		CurrentRatio:     w.CurrentRatio,
		CurrentTime:      ElapsedSeconds(w, now),
		QuestionsCount:   w.QuestionsCount(),
		Skipped:          nonNil(w.Skipped),
		Unsaved:          unsaved,
	}

	if id, ok := w.CurrentQuestionID(); ok {
		if q, ok := qs.Lookup(id); ok {
			qv := &QuestionView{ID: q.ID, Text: q.Text, Answers: make([]AnswerView, len(q.Answers))}
			for i, a := range q.Answers {
				qv.Answers[i] = AnswerView{ID: a.ID, Text: a.Text}
			}
			v.CurrentQuestion = qv
		}
	}
	return v
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

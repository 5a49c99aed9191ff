package workout

import (
	"slices"
	"time"

	"github.com/abhisek/drillz/internal/store"
)

// toData converts the workout into its persisted form. The stored time is
// the elapsed time as of now.
func toData(w *Workout, now time.Time) *store.WorkoutData {
	return &store.WorkoutData{
		UserID:           w.UserID,
		TopicID:          w.TopicID,
		AttemptID:        w.AttemptID,
		Started:          w.Started,
		Finished:         w.Finished,
		FinishedEarly:    w.FinishedEarly,
		StartedAt:        w.StartedAt,
		FinishedAt:       w.FinishedAt,
		QuestionsOrder:   slices.Clone(w.QuestionsOrder),
		StepIndex:        w.StepIndex,
		SelectedAnswerID: w.SelectedAnswerID,
		QuestionResults:  slices.Clone(w.QuestionResults),
		CorrectAnswers:   w.CorrectAnswers,
		CurrentRatio:     w.CurrentRatio,
		TimeSeconds:      ElapsedSeconds(w, now),
		Skipped:          slices.Clone(w.Skipped),
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func fromData(d *store.WorkoutData) *Workout {
	return &Workout{
		UserID:           d.UserID,
		TopicID:          d.TopicID,
		AttemptID:        d.AttemptID,
		Started:          d.Started,
		Finished:         d.Finished,
		FinishedEarly:    d.FinishedEarly,
		StartedAt:        d.StartedAt,
		FinishedAt:       d.FinishedAt,
		QuestionsOrder:   d.QuestionsOrder,
		StepIndex:        d.StepIndex,
		SelectedAnswerID: d.SelectedAnswerID,
		QuestionResults:  d.QuestionResults,
		CorrectAnswers:   d.CorrectAnswers,
		CurrentRatio:     d.CurrentRatio,
		Skipped:          d.Skipped,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func recordToData(r HistoryRecord) store.WorkoutStatsData {
	return store.WorkoutStatsData{
		AttemptID:      r.AttemptID,
		UserID:         r.UserID,
		TopicID:        r.TopicID,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		Ratio:          r.Ratio,
		TimeSeconds:    r.TimeSeconds,
		FinishedEarly:  r.FinishedEarly,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		CreatedAt:      r.CreatedAt,
	}
}

func recordFromData(d store.WorkoutStatsData) HistoryRecord {
	return HistoryRecord{
		AttemptID:      d.AttemptID,
		UserID:         d.UserID,
		TopicID:        d.TopicID,
		TotalQuestions: d.TotalQuestions,
		CorrectAnswers: d.CorrectAnswers,
		Ratio:          d.Ratio,
		TimeSeconds:    d.TimeSeconds,
		FinishedEarly:  d.FinishedEarly,
		StartedAt:      d.StartedAt,
		FinishedAt:     d.FinishedAt,
		CreatedAt:      d.CreatedAt,
	}
}

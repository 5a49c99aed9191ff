package workout

import (
	"math"
	"time"
)

// Ratio is the percentage of correct answers among confirmed steps,
// rounded to the nearest integer. Zero steps yields 0.
func Ratio(correct, steps int) int {
	if correct <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(max(1, steps))))
}

// ElapsedSeconds is the attempt's running time: zero before start,
// frozen at finishedAt once completed.
func ElapsedSeconds(w *Workout, now time.Time) int {
	if !w.Started || w.StartedAt.IsZero() {
		return 0
	}
	end := now
	if w.Finished && !w.FinishedAt.IsZero() {
		end = w.FinishedAt
	}
	d := end.Sub(w.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// NewHistoryRecord summarizes a completed attempt.
func NewHistoryRecord(w *Workout, now time.Time) HistoryRecord {
	return HistoryRecord{
		AttemptID:      w.AttemptID,
		UserID:         w.UserID,
		TopicID:        w.TopicID,
		TotalQuestions: len(w.QuestionsOrder),
		CorrectAnswers: w.CorrectAnswers,
		Ratio:          w.CurrentRatio,
		TimeSeconds:    ElapsedSeconds(w, now),
		FinishedEarly:  w.FinishedEarly,
		StartedAt:      w.StartedAt,
		FinishedAt:     w.FinishedAt,
		CreatedAt:      now,
	}
}

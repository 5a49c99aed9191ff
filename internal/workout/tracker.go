package workout

import (
	"time"

	"github.com/abhisek/drillz/internal/topics"
)

// Start moves a not-started attempt to in progress. It returns false and
// leaves the workout unchanged when the attempt is already started or has
// no questions.
func Start(w *Workout, now time.Time) bool {
	if w.Started || len(w.QuestionsOrder) == 0 {
		return false
	}
	w.Started = true
	w.StartedAt = now
	w.StepIndex = 0
	w.SelectedAnswerID = ""
	w.QuestionResults = nil
	w.CorrectAnswers = 0
	w.CurrentRatio = 0
	w.Skipped = nil
	return true
}

// Available reports whether the workout can be trained against qs. An
// open attempt needs at least one of its ordered questions to still be
// live; a completed one only needs questions to restart over.
func Available(w *Workout, qs *topics.QuestionSet) bool {
	if w.Phase() == PhaseCompleted {
		return qs.Len() > 0
	}
	return hasLive(w.QuestionsOrder, qs)
}

func hasLive(order []string, qs *topics.QuestionSet) bool {
	for _, id := range order {
		if _, ok := qs.Lookup(id); ok {
			return true
		}
	}
	return false
}

// SelectAnswer stores a pending choice for the current step. It does not
// advance the step or touch the confirmed results.
func SelectAnswer(w *Workout, qs *topics.QuestionSet, answerID string) error {
	if w.Phase() != PhaseInProgress {
		return &TransitionError{Op: "select answer", Phase: w.Phase()}
	}
	id, _ := w.CurrentQuestionID()
	q, ok := qs.Lookup(id)
	if !ok || !q.HasAnswer(answerID) {
		return &ValidationError{QuestionID: id, AnswerID: answerID}
	}
	w.SelectedAnswerID = answerID
	return nil
}

// ConfirmAnswer evaluates the pending choice, records the outcome, and
// advances one step. Confirming the last step completes the attempt.
func ConfirmAnswer(w *Workout, qs *topics.QuestionSet, now time.Time) (bool, error) {
	if w.Phase() != PhaseInProgress {
		return false, &TransitionError{Op: "confirm answer", Phase: w.Phase()}
	}
	if w.SelectedAnswerID == "" {
		return false, ErrNoSelection
	}

	id, _ := w.CurrentQuestionID()
	q, ok := qs.Lookup(id)
	correct := ok && q.IsCorrect(w.SelectedAnswerID)
	if !ok {
		w.Skipped = append(w.Skipped, id)
	}
	record(w, correct, now)
	return correct, nil
}

// Finish completes an in-progress attempt with whatever results exist.
func Finish(w *Workout, now time.Time) error {
	if w.Phase() != PhaseInProgress {
		return &TransitionError{Op: "finish", Phase: w.Phase()}
	}
	w.SelectedAnswerID = ""
	w.FinishedEarly = w.StepIndex < len(w.QuestionsOrder)
	complete(w, now)
	return nil
}

// Restart discards the attempt's working fields and begins a new,
// not-started attempt over order.
func Restart(w *Workout, order []string, attemptID string) {
	w.AttemptID = attemptID
	w.Started = false
	w.Finished = false
	w.FinishedEarly = false
	w.StartedAt = time.Time{}
	w.FinishedAt = time.Time{}
	w.QuestionsOrder = order
	w.StepIndex = 0
	w.SelectedAnswerID = ""
	w.QuestionResults = nil
	w.CorrectAnswers = 0
	w.CurrentRatio = 0
	w.Skipped = nil
}

// SkipUnavailable records every consecutive current step whose question
// is no longer in qs as an incorrect, skipped step. It returns the
// skipped ids; skipping the last step completes the attempt.
func SkipUnavailable(w *Workout, qs *topics.QuestionSet, now time.Time) []string {
	var skipped []string
	for {
		id, ok := w.CurrentQuestionID()
		if !ok {
			return skipped
		}
		if _, live := qs.Lookup(id); live {
			return skipped
		}
		w.Skipped = append(w.Skipped, id)
		skipped = append(skipped, id)
		record(w, false, now)
	}
}

// record appends one confirmed outcome and advances.
func record(w *Workout, correct bool, now time.Time) {
	w.QuestionResults = append(w.QuestionResults, correct)
	if correct {
		w.CorrectAnswers++
	}
	w.StepIndex++
	w.SelectedAnswerID = ""
	w.CurrentRatio = Ratio(w.CorrectAnswers, w.StepIndex)

	if w.StepIndex == len(w.QuestionsOrder) {
		complete(w, now)
	}
}

func complete(w *Workout, now time.Time) {
	w.Finished = true
	w.FinishedAt = now
}

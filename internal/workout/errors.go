package workout

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated indicates an operation without a resolved user id.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNoSelection indicates ConfirmAnswer without a pending selection.
var ErrNoSelection = errors.New("no answer selected")

// ValidationError rejects an answer id that does not belong to the
// current question. The workout is left untouched.
type ValidationError struct {
	QuestionID string
	AnswerID   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("answer %q does not belong to question %q", e.AnswerID, e.QuestionID)
}

// TransitionError rejects a command that is not valid in the current phase.
type TransitionError struct {
	Op    string
	Phase Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s: workout is %s", e.Op, e.Phase)
}

// PersistenceError indicates that saving the workout failed after all
// retries. Local state stays authoritative.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("workout not saved: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

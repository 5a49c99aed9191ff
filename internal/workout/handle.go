package workout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/store"
	"github.com/abhisek/drillz/internal/topics"
)

// Handle is an open workout for one (user, topic) pair. Commands mutate
// local state synchronously and hand the whole resulting state to the
// saver. A Handle is safe for concurrent use.
type Handle struct {
	svc    *Service
	logger *zap.Logger
	saver  *Saver

	mu sync.Mutex
	w  *Workout
	qs *topics.QuestionSet

	// dirty is set by changes that were not handed to the saver.
	dirty bool
}

// View returns the current read model.
func (h *Handle) View() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return newView(h.w, h.qs, h.svc.clock(), h.saver.Unsaved())
}

// Workout returns a copy of the current workout.
func (h *Handle) Workout() *Workout {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.w.Clone()
}

// Start begins the attempt. Starting an attempt that is already started
// or has no live questions changes nothing.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.svc.clock()
	if !Available(h.w, h.qs) || !Start(h.w, now) {
		h.svc.observer.Command("start", "noop")
		return nil
	}
	h.logger.Debug("workout started", zap.String("attempt", h.w.AttemptID))
	h.afterTransition(PhaseNotStarted, now)
	h.svc.observer.Command("start", "ok")
	return nil
}

// SelectAnswer stores a pending choice for the current question. The
// choice is not saved on its own; it is written with the next saved
// transition or when the handle is closed.
func (h *Handle) SelectAnswer(answerID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := SelectAnswer(h.w, h.qs, answerID)
	h.svc.observer.Command("select", commandResult(err))
	if err != nil {
		return err
	}
	h.dirty = true
	return nil
}

// ConfirmAnswer confirms the pending choice and reports whether it was
// correct.
func (h *Handle) ConfirmAnswer() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.svc.clock()
	before := h.w.Phase()
	correct, err := ConfirmAnswer(h.w, h.qs, now)
	h.svc.observer.Command("confirm", commandResult(err))
	if err != nil {
		return false, err
	}
	h.afterTransition(before, now)
	return correct, nil
}

// Finish ends the attempt early with the results recorded so far.
func (h *Handle) Finish() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.svc.clock()
	before := h.w.Phase()
	err := Finish(h.w, now)
	h.svc.observer.Command("finish", commandResult(err))
	if err != nil {
		return err
	}
	h.afterTransition(before, now)
	return nil
}

// Restart replaces the attempt with a new, not-started one over a fresh
// order of the live questions. History records are kept.
func (h *Handle) Restart() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.svc.clock()
	prev := h.w.AttemptID
	Restart(h.w, GenerateOrder(h.qs.IDs(), h.svc.rng), h.svc.newID())
	h.logger.Debug("workout restarted",
		zap.String("previous_attempt", prev),
		zap.String("attempt", h.w.AttemptID),
	)
	h.persistLocked(now)
	h.svc.observer.Command("restart", "ok")
	return nil
}

// afterTransition skips removed questions, emits the history record when
// the attempt just completed, and persists the whole state.
func (h *Handle) afterTransition(before Phase, now time.Time) {
	if skipped := SkipUnavailable(h.w, h.qs, now); len(skipped) > 0 {
		h.logger.Info("skipped removed questions", zap.Strings("questions", skipped))
	}

	var records []HistoryRecord
	if before != PhaseCompleted && h.w.Phase() == PhaseCompleted {
		rec := NewHistoryRecord(h.w, now)
		records = append(records, rec)
		h.svc.observer.Completed(rec.FinishedEarly, rec.Ratio)
		h.logger.Info("workout completed",
			zap.String("attempt", rec.AttemptID),
			zap.Int("correct", rec.CorrectAnswers),
			zap.Int("total", rec.TotalQuestions),
			zap.Int("ratio", rec.Ratio),
			zap.Bool("early", rec.FinishedEarly),
		)
	}
	h.persistLocked(now, records...)
}

func (h *Handle) persistLocked(now time.Time, records ...HistoryRecord) {
	h.w.UpdatedAt = now
	stats := make([]store.WorkoutStatsData, len(records))
	for i, r := range records {
		stats[i] = recordToData(r)
	}
	h.saver.Enqueue(toData(h.w, now), stats...)
	h.dirty = false
}

// Flush waits for pending saves. It returns a *PersistenceError when the
// latest state could not be saved; local state is kept either way.
func (h *Handle) Flush(ctx context.Context) error {
	h.mu.Lock()
	if h.dirty {
		h.persistLocked(h.svc.clock())
	}
	h.mu.Unlock()
	return h.saver.Flush(ctx)
}

// Close flushes pending saves and releases the handle.
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.dirty {
		h.persistLocked(h.svc.clock())
	}
	h.mu.Unlock()
	return h.saver.Close(ctx)
}

// Abandon releases the handle and drops any save not yet acknowledged.
func (h *Handle) Abandon() {
	h.saver.Abandon()
}

package workout

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/drillz/internal/store"
	"github.com/abhisek/drillz/internal/topics"
)

// Decision tells the client what to offer on (re)entry.
type Decision string

const (
	ResumeContinue     Decision = "continue" // unfinished attempt: resume at the stored step
	ResumeOfferStart   Decision = "start"    // fresh attempt: offer start
	ResumeOfferRestart Decision = "restart"  // finished attempt: offer restart
)

// DecisionFor maps a phase to the resume decision.
func DecisionFor(p Phase) Decision {
	switch p {
	case PhaseInProgress:
		return ResumeContinue
	case PhaseCompleted:
		return ResumeOfferRestart
	default:
		return ResumeOfferStart
	}
}

// Resumed is the reconciled workout for a (user, topic) pair.
type Resumed struct {
	Workout  *Workout
	Decision Decision

	// Dirty is set when reconciliation changed the workout, including
	// when the row did not exist yet.
	Dirty   bool
	Created bool

	// Skipped lists question ids skipped because they were removed.
	Skipped []string

	// Record is set when skipping completed the attempt.
	Record *HistoryRecord
}

// ResumeController reconciles the stored row with the live question set.
type ResumeController struct {
	repo  store.WorkoutRepo
	rng   Rand
	newID func() string
}

// NewResumeController creates a controller over repo.
func NewResumeController(repo store.WorkoutRepo, rng Rand, newID func() string) *ResumeController {
	return &ResumeController{repo: repo, rng: rng, newID: newID}
}

// Load returns the stored workout for (userID, topicID), or nil.
func (rc *ResumeController) Load(ctx context.Context, topicID, userID string) (*Workout, error) {
	d, err := rc.repo.Get(ctx, userID, topicID)
	if err != nil {
		return nil, fmt.Errorf("load workout: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return fromData(d), nil
}

// Resume loads the workout and reconciles it with qs. A missing row is
// replaced by a fresh, not-started attempt; an unfinished attempt resumes
// at its stored step and order.
func (rc *ResumeController) Resume(ctx context.Context, topicID, userID string, qs *topics.QuestionSet, now time.Time) (*Resumed, error) {
	w, err := rc.Load(ctx, topicID, userID)
	if err != nil {
		return nil, err
	}

	res := &Resumed{}
	if w == nil {
		w = &Workout{
			UserID:         userID,
			TopicID:        topicID,
			AttemptID:      rc.newID(),
			QuestionsOrder: GenerateOrder(qs.IDs(), rc.rng),
			CreatedAt:      now,
		}
		res.Dirty = true
		res.Created = true
	}

	switch w.Phase() {
	case PhaseNotStarted:
		// Nothing has been answered yet, so an order with no live
		// question left (or none at all) is replaced once questions exist.
		if qs.Len() > 0 && !hasLive(w.QuestionsOrder, qs) {
			w.QuestionsOrder = GenerateOrder(qs.IDs(), rc.rng)
			res.Dirty = true
		}
	case PhaseInProgress:
		if w.SelectedAnswerID != "" {
			if err := SelectAnswer(w, qs, w.SelectedAnswerID); err != nil {
				w.SelectedAnswerID = ""
				res.Dirty = true
			}
		}
		res.Skipped = SkipUnavailable(w, qs, now)
		if len(res.Skipped) > 0 {
			res.Dirty = true
			if w.Phase() == PhaseCompleted {
				rec := NewHistoryRecord(w, now)
				res.Record = &rec
			}
		}
	}

	res.Workout = w
	res.Decision = DecisionFor(w.Phase())
	return res, nil
}

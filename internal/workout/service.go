package workout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/store"
	"github.com/abhisek/drillz/internal/topics"
)

// Identity resolves the acting user.
type Identity interface {
	UserID(ctx context.Context) (string, error)
}

// Options configures a Service. Repo, Source, and Identity are required.
type Options struct {
	Repo     store.WorkoutRepo
	Source   topics.Source
	Identity Identity

	Clock    func() time.Time
	Rand     Rand
	NewID    func() string
	Logger   *zap.Logger
	Observer Observer
}

// Service opens workout handles.
type Service struct {
	repo     store.WorkoutRepo
	source   topics.Source
	identity Identity
	clock    func() time.Time
	rng      Rand
	newID    func() string
	logger   *zap.Logger
	observer Observer
	resume   *ResumeController
}

// NewService creates a Service, filling in defaults for optional fields.
func NewService(opts Options) *Service {
	s := &Service{
		repo:     opts.Repo,
		source:   opts.Source,
		identity: opts.Identity,
		clock:    opts.Clock,
		rng:      opts.Rand,
		newID:    opts.NewID,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.rng == nil {
		s.rng = DefaultRand
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	s.resume = NewResumeController(s.repo, s.rng, s.newID)
	return s
}

func (s *Service) userID(ctx context.Context) (string, error) {
	if s.identity == nil {
		return "", ErrNotAuthenticated
	}
	id, err := s.identity.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if id == "" {
		return "", ErrNotAuthenticated
	}
	return id, nil
}

// Open resolves the user, loads the live question set, and resumes the
// user's workout for the topic. The caller must Close or Abandon the
// returned handle.
func (s *Service) Open(ctx context.Context, topicID string) (*Handle, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}

	qs, err := s.source.QuestionSet(ctx, topicID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	res, err := s.resume.Resume(ctx, topicID, userID, qs, now)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("user", userID), zap.String("topic", topicID))
	if len(res.Skipped) > 0 {
		logger.Info("skipped removed questions on resume", zap.Strings("questions", res.Skipped))
	}

	h := &Handle{
		svc:    s,
		w:      res.Workout,
		qs:     qs,
		logger: logger,
		saver:  NewSaver(s.repo, logger, s.observer),
	}
	if res.Dirty {
		var records []HistoryRecord
		if res.Record != nil {
			records = append(records, *res.Record)
			s.observer.Completed(res.Record.FinishedEarly, res.Record.Ratio)
		}
		h.persistLocked(now, records...)
	}
	return h, nil
}

// HistoryFilter narrows a history query. Zero values disable a bound.
type HistoryFilter struct {
	Limit int       // max records, 0 for all
	From  time.Time // completed at or after
	To    time.Time // completed at or before
}

// History returns the user's history records for a topic, newest first.
func (s *Service) History(ctx context.Context, topicID string, f HistoryFilter) ([]HistoryRecord, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.repo.History(ctx, userID, topicID, store.QueryOpts{Limit: f.Limit, From: f.From, To: f.To})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	records := make([]HistoryRecord, len(data))
	for i, d := range data {
		records[i] = recordFromData(d)
	}
	return records, nil
}

// commandResult classifies a command error for the observer.
func commandResult(err error) string {
	if err == nil {
		return "ok"
	}
	var ve *ValidationError
	var te *TransitionError
	if errors.As(err, &ve) || errors.As(err, &te) || errors.Is(err, ErrNoSelection) {
		return "rejected"
	}
	return "error"
}

package workout

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/store"
)

// Saver persists whole-workout snapshots on a background goroutine.
// Pending snapshots coalesce: only the latest row is written, but every
// pending history record is kept. A failed save keeps its data pending
// and raises the unsaved flag until a later save succeeds.
type Saver struct {
	repo     store.WorkoutRepo
	logger   *zap.Logger
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu         sync.Mutex
	pendingRow *store.WorkoutData
	pendingRec []store.WorkoutStatsData
	idle       chan struct{} // non-nil while a save is queued or running
	unsaved    bool
	lastErr    error
	stopped    bool
}

// NewSaver starts a saver goroutine. The repo is expected to retry.
func NewSaver(repo store.WorkoutRepo, logger *zap.Logger, observer Observer) *Saver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Saver{
		repo:     repo,
		logger:   logger,
		observer: observer,
		ctx:      ctx,
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Enqueue schedules row (and any new history records) for saving. It
// never blocks.
func (s *Saver) Enqueue(row *store.WorkoutData, records ...store.WorkoutStatsData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if row != nil {
		s.pendingRow = row
	}
	s.pendingRec = append(s.pendingRec, records...)
	s.kickLocked()
}

func (s *Saver) kickLocked() {
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Saver) hasPendingLocked() bool {
	return s.pendingRow != nil || len(s.pendingRec) > 0
}

func (s *Saver) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}
		s.drain()
	}
}

// drain saves until nothing newer is pending or a save fails.
func (s *Saver) drain() {
	for {
		s.mu.Lock()
		if !s.hasPendingLocked() {
			s.goIdleLocked()
			s.mu.Unlock()
			return
		}
		row, recs := s.pendingRow, s.pendingRec
		s.pendingRow, s.pendingRec = nil, nil
		s.mu.Unlock()

		err := s.repo.Save(s.ctx, row, recs)

		s.mu.Lock()
		if err == nil {
			s.unsaved = false
			s.lastErr = nil
			s.mu.Unlock()
			s.observer.Save("ok")
			continue
		}
		if s.ctx.Err() != nil {
			// Abandoned: the in-flight snapshot is dropped.
			s.mu.Unlock()
			return
		}

		// Keep the failed data unless a newer row arrived meanwhile, in
		// which case the newer row is tried right away.
		newer := s.pendingRow != nil
		if !newer {
			s.pendingRow = row
		}
		s.pendingRec = append(recs, s.pendingRec...)
		s.unsaved = true
		s.lastErr = &PersistenceError{Err: err}
		if !newer {
			s.goIdleLocked()
		}
		s.mu.Unlock()

		s.observer.Save("error")
		s.logger.Warn("workout save failed, keeping local state", zap.Error(err))
		if !newer {
			return
		}
	}
}

func (s *Saver) goIdleLocked() {
	if s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
}

// Flush waits until every enqueued snapshot has been attempted. Data left
// over from an earlier failure is retried once more. It returns a
// *PersistenceError when the latest state is not saved.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	if s.idle == nil && s.hasPendingLocked() {
		s.kickLocked()
	}
	idle := s.idle
	s.mu.Unlock()

	if idle != nil {
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsaved {
		return s.lastErr
	}
	return nil
}

// Unsaved reports whether the latest state failed to save.
func (s *Saver) Unsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// Close flushes and stops the saver.
func (s *Saver) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.stop()
	return err
}

// Abandon stops the saver and drops anything not yet acknowledged.
func (s *Saver) Abandon() {
	s.stop()
}

func (s *Saver) stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.done

	s.mu.Lock()
	s.pendingRow, s.pendingRec = nil, nil
	s.goIdleLocked()
	s.mu.Unlock()
}

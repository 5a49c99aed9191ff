package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func testWorkout(now time.Time) *WorkoutData {
	return &WorkoutData{
		UserID:          "u1",
		TopicID:         "go-basics",
		AttemptID:       "attempt-1",
		Started:         true,
		StartedAt:       now,
		QuestionsOrder:  []string{"q3", "q1", "q2"},
		StepIndex:       2,
		QuestionResults: []bool{true, false},
		CorrectAnswers:  1,
		CurrentRatio:    50,
		TimeSeconds:     42,
		UpdatedAt:       now,
	}
}

func TestWorkoutGetMissing(t *testing.T) {
	repo := openTestStore(t).WorkoutRepo()

	w, err := repo.Get(context.Background(), "u1", "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w != nil {
		t.Fatal("expected nil workout when none exists")
	}
}

func TestWorkoutSaveAndGet(t *testing.T) {
	repo := openTestStore(t).WorkoutRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	in := testWorkout(now)
	in.SelectedAnswerID = "a2"
	in.Skipped = []string{"q9"}
	require.NoError(t, repo.Save(ctx, in, nil))

	got, err := repo.Get(ctx, "u1", "go-basics")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "attempt-1", got.AttemptID)
	assert.True(t, got.Started)
	assert.False(t, got.Finished)
	assert.True(t, got.StartedAt.Equal(now))
	assert.True(t, got.FinishedAt.IsZero(), "finished_at should be NULL")
	assert.Equal(t, []string{"q3", "q1", "q2"}, got.QuestionsOrder)
	assert.Equal(t, 2, got.StepIndex)
	assert.Equal(t, "a2", got.SelectedAnswerID)
	assert.Equal(t, []bool{true, false}, got.QuestionResults)
	assert.Equal(t, 1, got.CorrectAnswers)
	assert.Equal(t, 50, got.CurrentRatio)
	assert.Equal(t, 42, got.TimeSeconds)
	assert.Equal(t, []string{"q9"}, got.Skipped)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestWorkoutSaveReplacesWholeRow(t *testing.T) {
	s := openTestStore(t)
	repo := s.WorkoutRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Save(ctx, testWorkout(now), nil))

	later := now.Add(time.Minute)
	restarted := &WorkoutData{
		UserID:         "u1",
		TopicID:        "go-basics",
		AttemptID:      "attempt-2",
		QuestionsOrder: []string{"q2", "q3", "q1"},
		UpdatedAt:      later,
	}
	require.NoError(t, repo.Save(ctx, restarted, nil))

	got, err := repo.Get(ctx, "u1", "go-basics")
	require.NoError(t, err)
	assert.Equal(t, "attempt-2", got.AttemptID)
	assert.False(t, got.Started)
	assert.True(t, got.StartedAt.IsZero())
	assert.Zero(t, got.StepIndex)
	assert.Empty(t, got.QuestionResults)
	assert.Equal(t, []string{"q2", "q3", "q1"}, got.QuestionsOrder)
	assert.True(t, got.CreatedAt.Equal(now), "created_at keeps the first insert")
	assert.True(t, got.UpdatedAt.Equal(later))

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM workouts`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWorkoutConcurrentSavesKeepOneRow(t *testing.T) {
	s := openTestStore(t)
	repo := s.WorkoutRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := testWorkout(now)
			w.AttemptID = "attempt-" + string(rune('a'+i))
			if err := repo.Save(ctx, w, nil); err != nil {
				t.Errorf("save %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM workouts WHERE user_id = 'u1'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestHistoryAppendIsIdempotent(t *testing.T) {
	repo := openTestStore(t).WorkoutRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := WorkoutStatsData{
		AttemptID:      "attempt-1",
		UserID:         "u1",
		TopicID:        "go-basics",
		TotalQuestions: 5,
		CorrectAnswers: 3,
		Ratio:          60,
		TimeSeconds:    90,
		StartedAt:      now.Add(-90 * time.Second),
		FinishedAt:     now,
		CreatedAt:      now,
	}
	w := testWorkout(now)

	// A retried save sends the same payload twice.
	require.NoError(t, repo.Save(ctx, w, []WorkoutStatsData{rec}))
	require.NoError(t, repo.Save(ctx, w, []WorkoutStatsData{rec}))

	history, err := repo.History(ctx, "u1", "go-basics", QueryOpts{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 5, history[0].TotalQuestions)
	assert.Equal(t, 3, history[0].CorrectAnswers)
	assert.Equal(t, 60, history[0].Ratio)
	assert.Equal(t, 90, history[0].TimeSeconds)
	assert.True(t, history[0].FinishedAt.Equal(now))
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	repo := openTestStore(t).WorkoutRepo()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := range 3 {
		rec := WorkoutStatsData{
			AttemptID:      "attempt-" + string(rune('1'+i)),
			UserID:         "u1",
			TopicID:        "go-basics",
			TotalQuestions: 4,
			CorrectAnswers: i,
			StartedAt:      base,
			FinishedAt:     base.Add(time.Duration(i) * time.Minute),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Save(ctx, nil, []WorkoutStatsData{rec}))
	}

	history, err := repo.History(ctx, "u1", "go-basics", QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "attempt-3", history[0].AttemptID)
	assert.Equal(t, "attempt-2", history[1].AttemptID)

	other, err := repo.History(ctx, "u2", "go-basics", QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHistoryCreatedAtRange(t *testing.T) {
	repo := openTestStore(t).WorkoutRepo()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 4 {
		rec := WorkoutStatsData{
			AttemptID:      "attempt-" + string(rune('1'+i)),
			UserID:         "u1",
			TopicID:        "go-basics",
			TotalQuestions: 4,
			StartedAt:      base,
			FinishedAt:     base.Add(time.Duration(i) * time.Hour),
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Save(ctx, nil, []WorkoutStatsData{rec}))
	}

	since, err := repo.History(ctx, "u1", "go-basics", QueryOpts{From: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "attempt-4", since[0].AttemptID)
	assert.Equal(t, "attempt-3", since[1].AttemptID)

	window, err := repo.History(ctx, "u1", "go-basics", QueryOpts{
		From: base.Add(time.Hour),
		To:   base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "attempt-3", window[0].AttemptID)
	assert.Equal(t, "attempt-2", window[1].AttemptID)

	// Bounds in another zone select the same instants.
	local := time.FixedZone("UTC+2", 2*60*60)
	until, err := repo.History(ctx, "u1", "go-basics", QueryOpts{To: base.In(local)})
	require.NoError(t, err)
	require.Len(t, until, 1)
	assert.Equal(t, "attempt-1", until[0].AttemptID)
}

func TestHistoryOrderedByCreationTime(t *testing.T) {
	repo := openTestStore(t).WorkoutRepo()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of completion order.
	for i, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		rec := WorkoutStatsData{
			AttemptID:  "attempt-" + string(rune('a'+i)),
			UserID:     "u1",
			TopicID:    "go-basics",
			StartedAt:  base,
			FinishedAt: base.Add(offset),
			CreatedAt:  base.Add(offset),
		}
		require.NoError(t, repo.Save(ctx, nil, []WorkoutStatsData{rec}))
	}

	history, err := repo.History(ctx, "u1", "go-basics", QueryOpts{})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "attempt-a", history[0].AttemptID)
	assert.Equal(t, "attempt-c", history[1].AttemptID)
	assert.Equal(t, "attempt-b", history[2].AttemptID)
}

func TestTopicImportAndRead(t *testing.T) {
	repo := openTestStore(t).TopicRepo()
	ctx := context.Background()

	topic := TopicData{
		ID:    "go-basics",
		Title: "Go basics",
		Questions: []QuestionData{
			{
				ID:   "q1",
				Text: "Which keyword starts a goroutine?",
				Answers: []AnswerData{
					{ID: "a", Text: "go", Correct: true},
					{ID: "b", Text: "async"},
				},
			},
			{
				ID:   "q2",
				Text: "Zero value of a map?",
				Answers: []AnswerData{
					{ID: "a", Text: "nil", Correct: true},
					{ID: "b", Text: "empty map"},
				},
			},
		},
	}
	require.NoError(t, repo.Import(ctx, topic))

	got, err := repo.Topic(ctx, "go-basics")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Go basics", got.Title)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "q1", got.Questions[0].ID)
	require.Len(t, got.Questions[0].Answers, 2)
	assert.True(t, got.Questions[0].Answers[0].Correct)
	assert.False(t, got.Questions[0].Answers[1].Correct)

	// Re-import replaces the question set.
	topic.Title = "Go basics v2"
	topic.Questions = topic.Questions[1:]
	require.NoError(t, repo.Import(ctx, topic))

	got, err = repo.Topic(ctx, "go-basics")
	require.NoError(t, err)
	assert.Equal(t, "Go basics v2", got.Title)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "q2", got.Questions[0].ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Questions)

	missing, err := repo.Topic(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

type flakyRepo struct {
	WorkoutRepo
	failures int
	calls    int
}

func (f *flakyRepo) Save(ctx context.Context, w *WorkoutData, stats []WorkoutStatsData) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("database is locked")
	}
	return nil
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
}

func TestRetryRepo_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyRepo{failures: 2}
	repo := WithRetry(inner, fastRetry(3))

	var retried []int
	repo.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	err := repo.Save(context.Background(), &WorkoutData{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []int{0, 1}, retried)
}

func TestRetryRepo_Exhausted(t *testing.T) {
	inner := &flakyRepo{failures: 10}
	repo := WithRetry(inner, fastRetry(3))

	err := repo.Save(context.Background(), &WorkoutData{}, nil)
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryRepo_ContextCanceled(t *testing.T) {
	inner := &flakyRepo{failures: 10}
	repo := WithRetry(inner, RetryConfig{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, &WorkoutData{}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestCodecRoundTrip(t *testing.T) {
	results, err := unpackResults(packResults([]bool{true, false, true}))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, results)

	_, err = unpackResults("1,x")
	assert.Error(t, err)

	assert.Nil(t, unpackIDs(""))
	assert.True(t, ValidID("q-1"))
	assert.False(t, ValidID("q,1"))
	assert.False(t, ValidID(""))
}

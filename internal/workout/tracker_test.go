package workout

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/drillz/internal/topics"
)

// stepRand returns calls%n, so successive shuffles differ.
type stepRand struct{ calls int }

func (r *stepRand) IntN(n int) int {
	v := r.calls % n
	r.calls++
	return v
}

func testQuestionSet(ids ...string) *topics.QuestionSet {
	questions := make([]topics.Question, len(ids))
	for i, id := range ids {
		questions[i] = topics.Question{
			ID:   id,
			Text: "question " + id,
			Answers: []topics.Answer{
				{ID: "a", Text: "right", Correct: true},
				{ID: "b", Text: "wrong"},
			},
		}
	}
	return topics.NewQuestionSet("t1", "Topic", questions)
}

func checkInvariants(t *testing.T, w *Workout) {
	t.Helper()
	if w.StepIndex != len(w.QuestionResults) {
		t.Fatalf("stepIndex %d != len(results) %d", w.StepIndex, len(w.QuestionResults))
	}
	if w.StepIndex < 0 || w.StepIndex > len(w.QuestionsOrder) {
		t.Fatalf("stepIndex %d out of range [0,%d]", w.StepIndex, len(w.QuestionsOrder))
	}
	if w.CurrentRatio != Ratio(w.CorrectAnswers, w.StepIndex) {
		t.Fatalf("ratio %d, want %d", w.CurrentRatio, Ratio(w.CorrectAnswers, w.StepIndex))
	}
	if w.Finished && !w.FinishedEarly {
		if !w.Started || w.FinishedAt.IsZero() || w.StepIndex != len(w.QuestionsOrder) {
			t.Fatalf("finished workout violates completion invariant: %+v", w)
		}
	}
}

func TestGenerateOrder_Permutation(t *testing.T) {
	ids := []string{"q1", "q2", "q3", "q4", "q5", "q6"}
	rng := rand.New(rand.NewPCG(1, 2))

	for range 50 {
		order := GenerateOrder(ids, rng)
		sorted := slices.Clone(order)
		slices.Sort(sorted)
		if !slices.Equal(sorted, ids) {
			t.Fatalf("order %v is not a permutation of %v", order, ids)
		}
	}
}

func TestGenerateOrder_Deterministic(t *testing.T) {
	got := GenerateOrder([]string{"q1", "q2", "q3", "q4", "q5"}, &stepRand{})
	want := []string{"q5", "q4", "q3", "q2", "q1"}
	if !slices.Equal(got, want) {
		t.Errorf("GenerateOrder = %v, want %v", got, want)
	}
}

func TestGenerateOrder_CollapsesDuplicates(t *testing.T) {
	order := GenerateOrder([]string{"q1", "q2", "q1", "q2"}, nil)
	if len(order) != 2 {
		t.Errorf("len(order) = %d, want 2", len(order))
	}
}

func TestGenerateOrder_Empty(t *testing.T) {
	order := GenerateOrder(nil, nil)
	if order == nil || len(order) != 0 {
		t.Errorf("expected empty non-nil order, got %v", order)
	}
}

func TestGenerateOrder_Unbiased(t *testing.T) {
	ids := []string{"a", "b", "c"}
	rng := rand.New(rand.NewPCG(7, 11))
	counts := make(map[string]int)
	const runs = 60000
	for range runs {
		counts[strings.Join(GenerateOrder(ids, rng), "")]++
	}
	if len(counts) != 6 {
		t.Fatalf("expected all 6 permutations, got %d", len(counts))
	}
	for perm, n := range counts {
		// Expected 10000 each; allow a generous band.
		if n < 9000 || n > 11000 {
			t.Errorf("permutation %s drawn %d times", perm, n)
		}
	}
}

func TestOrderFor_ReusesExisting(t *testing.T) {
	existing := []string{"q3", "q1", "q2"}
	got := OrderFor(existing, []string{"q1", "q2", "q3", "q4"}, &stepRand{})
	if !slices.Equal(got, existing) {
		t.Errorf("OrderFor = %v, want stored order %v", got, existing)
	}
}

func newStartedWorkout(ids ...string) *Workout {
	w := &Workout{UserID: "u1", TopicID: "t1", AttemptID: "a1", QuestionsOrder: ids}
	Start(w, time.Unix(1000, 0))
	return w
}

func TestStart_Idempotent(t *testing.T) {
	w := &Workout{QuestionsOrder: []string{"q1", "q2"}}
	first := time.Unix(1000, 0)
	if !Start(w, first) {
		t.Fatal("first Start should transition")
	}
	once := w.Clone()

	if Start(w, first.Add(time.Minute)) {
		t.Error("second Start should be a no-op")
	}
	if !w.StartedAt.Equal(once.StartedAt) || w.StepIndex != once.StepIndex {
		t.Errorf("second Start changed state: %+v vs %+v", w, once)
	}
}

func TestStart_KeepsProgress(t *testing.T) {
	qs := testQuestionSet("q1", "q2", "q3")
	w := newStartedWorkout("q1", "q2", "q3")
	SelectAnswer(w, qs, "a")
	ConfirmAnswer(w, qs, time.Unix(1010, 0))

	Start(w, time.Unix(2000, 0))
	if w.StepIndex != 1 || len(w.QuestionResults) != 1 {
		t.Errorf("Start reset progress: step=%d results=%v", w.StepIndex, w.QuestionResults)
	}
}

func TestStart_EmptyOrder(t *testing.T) {
	w := &Workout{}
	if Start(w, time.Now()) {
		t.Error("Start with no questions should not transition")
	}
	if w.Phase() != PhaseNotStarted {
		t.Errorf("phase = %s, want %s", w.Phase(), PhaseNotStarted)
	}
}

func TestAvailable(t *testing.T) {
	live := testQuestionSet("q1", "q2")
	empty := testQuestionSet()
	finished := &Workout{Started: true, Finished: true, QuestionsOrder: []string{"q1"}}

	tests := []struct {
		name string
		w    *Workout
		qs   *topics.QuestionSet
		want bool
	}{
		{"live order", &Workout{QuestionsOrder: []string{"q1", "q2"}}, live, true},
		{"partly live order", &Workout{QuestionsOrder: []string{"gone", "q2"}}, live, true},
		{"no live ids", &Workout{QuestionsOrder: []string{"x", "y"}}, live, false},
		{"emptied topic", &Workout{QuestionsOrder: []string{"q1", "q2"}}, empty, false},
		{"empty order", &Workout{}, live, false},
		{"completed with questions", finished, live, true},
		{"completed on emptied topic", finished, empty, false},
	}
	for _, tt := range tests {
		if got := Available(tt.w, tt.qs); got != tt.want {
			t.Errorf("%s: Available = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSelectAnswer_RequiresInProgress(t *testing.T) {
	qs := testQuestionSet("q1")
	w := &Workout{QuestionsOrder: []string{"q1"}}

	err := SelectAnswer(w, qs, "a")
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if w.SelectedAnswerID != "" {
		t.Error("rejected select must not mutate")
	}
}

func TestSelectAnswer_ForeignAnswer(t *testing.T) {
	qs := testQuestionSet("q1", "q2")
	w := newStartedWorkout("q1", "q2")

	err := SelectAnswer(w, qs, "zzz")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.QuestionID != "q1" {
		t.Errorf("QuestionID = %q, want q1", ve.QuestionID)
	}
	if w.SelectedAnswerID != "" {
		t.Error("foreign answer must not be stored")
	}
}

func TestSelectAnswer_DoesNotAdvance(t *testing.T) {
	qs := testQuestionSet("q1", "q2")
	w := newStartedWorkout("q1", "q2")

	if err := SelectAnswer(w, qs, "b"); err != nil {
		t.Fatal(err)
	}
	if err := SelectAnswer(w, qs, "a"); err != nil {
		t.Fatal(err)
	}
	if w.SelectedAnswerID != "a" {
		t.Errorf("SelectedAnswerID = %q, want a", w.SelectedAnswerID)
	}
	if w.StepIndex != 0 || len(w.QuestionResults) != 0 {
		t.Errorf("select advanced the workout: %+v", w)
	}
	checkInvariants(t, w)
}

func TestConfirmAnswer_WithoutSelection(t *testing.T) {
	qs := testQuestionSet("q1", "q2")
	w := newStartedWorkout("q1", "q2")
	before := w.Clone()

	_, err := ConfirmAnswer(w, qs, time.Unix(1010, 0))
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if w.StepIndex != before.StepIndex || len(w.QuestionResults) != 0 {
		t.Error("rejected confirm must not mutate")
	}
}

func TestFiveQuestionScenario(t *testing.T) {
	ids := []string{"q1", "q2", "q3", "q4", "q5"}
	qs := testQuestionSet(ids...)
	w := newStartedWorkout(ids...)

	outcomes := []bool{true, false, true, true, false}
	now := w.StartedAt
	for i, want := range outcomes {
		answer := "b"
		if want {
			answer = "a"
		}
		if err := SelectAnswer(w, qs, answer); err != nil {
			t.Fatalf("step %d select: %v", i, err)
		}
		checkInvariants(t, w)

		now = now.Add(10 * time.Second)
		got, err := ConfirmAnswer(w, qs, now)
		if err != nil {
			t.Fatalf("step %d confirm: %v", i, err)
		}
		if got != want {
			t.Errorf("step %d correct = %v, want %v", i, got, want)
		}
		checkInvariants(t, w)
	}

	if w.CorrectAnswers != 3 {
		t.Errorf("CorrectAnswers = %d, want 3", w.CorrectAnswers)
	}
	if w.CurrentRatio != 60 {
		t.Errorf("CurrentRatio = %d, want 60", w.CurrentRatio)
	}
	if w.Phase() != PhaseCompleted || w.FinishedEarly {
		t.Errorf("expected natural completion, got phase=%s early=%v", w.Phase(), w.FinishedEarly)
	}
	if !slices.Equal(w.QuestionResults, outcomes) {
		t.Errorf("QuestionResults = %v, want %v", w.QuestionResults, outcomes)
	}

	rec := NewHistoryRecord(w, now)
	if rec.TotalQuestions != 5 || rec.CorrectAnswers != 3 || rec.Ratio != 60 {
		t.Errorf("history record = %+v", rec)
	}
	if rec.TimeSeconds != 50 {
		t.Errorf("TimeSeconds = %d, want 50", rec.TimeSeconds)
	}

	// No command may move a completed workout.
	if _, err := ConfirmAnswer(w, qs, now); err == nil {
		t.Error("confirm after completion should fail")
	}
	if err := Finish(w, now); err == nil {
		t.Error("finish after completion should fail")
	}
}

func TestFinish_Early(t *testing.T) {
	qs := testQuestionSet("q1", "q2", "q3")
	w := newStartedWorkout("q1", "q2", "q3")
	SelectAnswer(w, qs, "a")
	ConfirmAnswer(w, qs, time.Unix(1010, 0))
	SelectAnswer(w, qs, "b")

	if err := Finish(w, time.Unix(1020, 0)); err != nil {
		t.Fatal(err)
	}
	if !w.Finished || !w.FinishedEarly {
		t.Errorf("expected early finish, got %+v", w)
	}
	if w.StepIndex != 1 || w.SelectedAnswerID != "" {
		t.Errorf("finish must keep step and clear pending: step=%d sel=%q", w.StepIndex, w.SelectedAnswerID)
	}
	if rec := NewHistoryRecord(w, time.Unix(1020, 0)); !rec.FinishedEarly || rec.TotalQuestions != 3 || rec.Ratio != 100 {
		t.Errorf("record = %+v", rec)
	}
	checkInvariants(t, w)
}

func TestFinish_NotStarted(t *testing.T) {
	w := &Workout{QuestionsOrder: []string{"q1"}}
	var te *TransitionError
	if err := Finish(w, time.Now()); !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestRestart_ResetsWorkingFields(t *testing.T) {
	qs := testQuestionSet("q1", "q2")
	w := newStartedWorkout("q1", "q2")
	SelectAnswer(w, qs, "a")
	ConfirmAnswer(w, qs, time.Unix(1010, 0))
	Finish(w, time.Unix(1020, 0))

	Restart(w, []string{"q2", "q1"}, "a2")

	if w.Phase() != PhaseNotStarted {
		t.Errorf("phase = %s, want not started", w.Phase())
	}
	if w.AttemptID != "a2" || w.StepIndex != 0 || len(w.QuestionResults) != 0 || w.CorrectAnswers != 0 {
		t.Errorf("restart left working state: %+v", w)
	}
	if !w.StartedAt.IsZero() || !w.FinishedAt.IsZero() || w.FinishedEarly {
		t.Errorf("restart left timestamps: %+v", w)
	}
	checkInvariants(t, w)
}

func TestSkipUnavailable(t *testing.T) {
	// q2 was removed from the topic.
	qs := testQuestionSet("q1", "q3")
	w := newStartedWorkout("q1", "q2", "q3")
	SelectAnswer(w, qs, "a")
	ConfirmAnswer(w, qs, time.Unix(1010, 0))

	skipped := SkipUnavailable(w, qs, time.Unix(1011, 0))
	if !slices.Equal(skipped, []string{"q2"}) {
		t.Fatalf("skipped = %v, want [q2]", skipped)
	}
	if id, _ := w.CurrentQuestionID(); id != "q3" {
		t.Errorf("current question = %q, want q3", id)
	}
	if !slices.Equal(w.QuestionResults, []bool{true, false}) {
		t.Errorf("QuestionResults = %v", w.QuestionResults)
	}
	checkInvariants(t, w)
}

func TestSkipUnavailable_CompletesAttempt(t *testing.T) {
	qs := testQuestionSet("q1")
	w := newStartedWorkout("q1", "gone1", "gone2")
	SelectAnswer(w, qs, "a")
	ConfirmAnswer(w, qs, time.Unix(1010, 0))

	SkipUnavailable(w, qs, time.Unix(1011, 0))
	if w.Phase() != PhaseCompleted || w.FinishedEarly {
		t.Errorf("expected natural completion after skips, got %+v", w)
	}
	if w.CurrentRatio != 33 {
		t.Errorf("CurrentRatio = %d, want 33", w.CurrentRatio)
	}
	checkInvariants(t, w)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		correct, steps, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{3, 5, 60},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
	}
	for _, tt := range tests {
		got := Ratio(tt.correct, tt.steps)
		if got != tt.want {
			t.Errorf("Ratio(%d, %d) = %d, want %d", tt.correct, tt.steps, got, tt.want)
		}
		if got < 0 || got > 100 {
			t.Errorf("Ratio(%d, %d) = %d out of [0,100]", tt.correct, tt.steps, got)
		}
	}
}

func TestElapsedSeconds(t *testing.T) {
	start := time.Unix(1000, 0)
	w := &Workout{}
	if got := ElapsedSeconds(w, start); got != 0 {
		t.Errorf("not started: %d, want 0", got)
	}

	w.Started, w.StartedAt = true, start
	if got := ElapsedSeconds(w, start.Add(90*time.Second)); got != 90 {
		t.Errorf("in progress: %d, want 90", got)
	}

	w.Finished, w.FinishedAt = true, start.Add(30*time.Second)
	if got := ElapsedSeconds(w, start.Add(time.Hour)); got != 30 {
		t.Errorf("finished: %d, want 30", got)
	}
}

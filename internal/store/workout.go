package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	workoutsTable     = "workouts"
	workoutStatsTable = "workout_stats"
)

// workoutColumns lists the writable columns of the workouts table, in
// scan order.
var workoutColumns = []string{
	"user_id",
	"topic_id",
	"attempt_id",
	"started",
	"finished",
	"finished_early",
	"started_at",
	"finished_at",
	"questions_order",
	"step_index",
	"selected_answer_id",
	"question_results",
	"correct_answers",
	"current_ratio",
	"time_seconds",
	"skipped",
	"created_at",
	"updated_at",
}

var workoutStatsColumns = []string{
	"attempt_id",
	"user_id",
	"topic_id",
	"total_questions",
	"correct_answers",
	"ratio",
	"time_seconds",
	"finished_early",
	"started_at",
	"finished_at",
	"created_at",
}

// workoutRepo implements WorkoutRepo with statements built by ent's SQL
// builder.
type workoutRepo struct {
	db *sql.DB
}

func (r *workoutRepo) Get(ctx context.Context, userID, topicID string) (*WorkoutData, error) {
	query, args := sqlite().
		Select(workoutColumns...).
		From(sqlite().Table(workoutsTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("topic_id", topicID),
		)).
		Limit(1).
		Query()

	var (
		w          WorkoutData
		startedAt  sql.NullTime
		finishedAt sql.NullTime
		order      string
		results    string
		skipped    string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&w.UserID,
		&w.TopicID,
		&w.AttemptID,
		&w.Started,
		&w.Finished,
		&w.FinishedEarly,
		&startedAt,
		&finishedAt,
		&order,
		&w.StepIndex,
		&w.SelectedAnswerID,
		&results,
		&w.CorrectAnswers,
		&w.CurrentRatio,
		&w.TimeSeconds,
		&skipped,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query workout: %w", err)
	}

	w.StartedAt = fromNullTime(startedAt)
	w.FinishedAt = fromNullTime(finishedAt)
	w.QuestionsOrder = unpackIDs(order)
	w.Skipped = unpackIDs(skipped)
	w.QuestionResults, err = unpackResults(results)
	if err != nil {
		return nil, fmt.Errorf("decode question results: %w", err)
	}
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}

func (r *workoutRepo) Save(ctx context.Context, w *WorkoutData, stats []WorkoutStatsData) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if w != nil {
		query, args := upsertWorkout(w)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert workout: %w", err)
		}
	}

	for _, s := range stats {
		query, args := sqlite().
			Insert(workoutStatsTable).
			Columns(workoutStatsColumns...).
			Values(
				s.AttemptID,
				s.UserID,
				s.TopicID,
				s.TotalQuestions,
				s.CorrectAnswers,
				s.Ratio,
				s.TimeSeconds,
				s.FinishedEarly,
				s.StartedAt.UTC(),
				s.FinishedAt.UTC(),
				s.CreatedAt.UTC(),
			).
			OnConflict(
				entsql.ConflictColumns("attempt_id"),
				entsql.DoNothing(),
			).
			Query()
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("append workout stats: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// upsertWorkout builds a whole-row replacement keyed by (user_id, topic_id).
// created_at keeps the value of the first insert.
func upsertWorkout(w *WorkoutData) (string, []any) {
	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = w.UpdatedAt
	}
	return sqlite().
		Insert(workoutsTable).
		Columns(workoutColumns...).
		Values(
			w.UserID,
			w.TopicID,
			w.AttemptID,
			w.Started,
			w.Finished,
			w.FinishedEarly,
			nullTime(w.StartedAt),
			nullTime(w.FinishedAt),
			packIDs(w.QuestionsOrder),
			w.StepIndex,
			w.SelectedAnswerID,
			packResults(w.QuestionResults),
			w.CorrectAnswers,
			w.CurrentRatio,
			w.TimeSeconds,
			packIDs(w.Skipped),
			createdAt.UTC(),
			w.UpdatedAt.UTC(),
		).
		OnConflict(
			entsql.ConflictColumns("user_id", "topic_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range workoutColumns {
					switch c {
					case "user_id", "topic_id", "created_at":
						continue
					}
					u.SetExcluded(c)
				}
			}),
		).
		Query()
}

func (r *workoutRepo) History(ctx context.Context, userID, topicID string, opts QueryOpts) ([]WorkoutStatsData, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("user_id", userID),
		entsql.EQ("topic_id", topicID),
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UTC()))
	}

	sel := sqlite().
		Select(workoutStatsColumns...).
		From(sqlite().Table(workoutStatsTable)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query workout stats: %w", err)
	}
	defer rows.Close()

	var records []WorkoutStatsData
	for rows.Next() {
		var s WorkoutStatsData
		if err := rows.Scan(
			&s.AttemptID,
			&s.UserID,
			&s.TopicID,
			&s.TotalQuestions,
			&s.CorrectAnswers,
			&s.Ratio,
			&s.TimeSeconds,
			&s.FinishedEarly,
			&s.StartedAt,
			&s.FinishedAt,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workout stats: %w", err)
		}
		s.StartedAt = s.StartedAt.UTC()
		s.FinishedAt = s.FinishedAt.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		records = append(records, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout stats: %w", err)
	}
	return records, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	topicsTable    = "topics"
	questionsTable = "questions"
	answersTable   = "answers"
)

// topicRepo implements TopicRepo.
type topicRepo struct {
	db *sql.DB
}

func (r *topicRepo) Import(ctx context.Context, t TopicData) (err error) {
	importedAt := t.ImportedAt
	if importedAt.IsZero() {
		importedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{answersTable, questionsTable} {
		query, args := sqlite().Delete(table).Where(entsql.EQ("topic_id", t.ID)).Query()
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	query, args := sqlite().
		Insert(topicsTable).
		Columns("id", "title", "imported_at").
		Values(t.ID, t.Title, importedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("title")
				u.SetExcluded("imported_at")
			}),
		).
		Query()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert topic: %w", err)
	}

	for qi, q := range t.Questions {
		query, args := sqlite().
			Insert(questionsTable).
			Columns("topic_id", "question_id", "text", "position").
			Values(t.ID, q.ID, q.Text, qi).
			Query()
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}

		for ai, a := range q.Answers {
			query, args := sqlite().
				Insert(answersTable).
				Columns("topic_id", "question_id", "answer_id", "text", "correct", "position").
				Values(t.ID, q.ID, a.ID, a.Text, a.Correct, ai).
				Query()
			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert answer %s/%s: %w", q.ID, a.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *topicRepo) Topic(ctx context.Context, id string) (*TopicData, error) {
	query, args := sqlite().
		Select("id", "title", "imported_at").
		From(sqlite().Table(topicsTable)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	var t TopicData
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.Title, &t.ImportedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query topic: %w", err)
	}
	t.ImportedAt = t.ImportedAt.UTC()

	questions, err := r.questions(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := r.answers(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Answers = answers[questions[i].ID]
	}
	t.Questions = questions
	return &t, nil
}

func (r *topicRepo) questions(ctx context.Context, topicID string) ([]QuestionData, error) {
	query, args := sqlite().
		Select("question_id", "text").
		From(sqlite().Table(questionsTable)).
		Where(entsql.EQ("topic_id", topicID)).
		OrderBy("position").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []QuestionData
	for rows.Next() {
		var q QuestionData
		if err := rows.Scan(&q.ID, &q.Text); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// answers returns the topic's answers grouped by question id.
func (r *topicRepo) answers(ctx context.Context, topicID string) (map[string][]AnswerData, error) {
	query, args := sqlite().
		Select("question_id", "answer_id", "text", "correct").
		From(sqlite().Table(answersTable)).
		Where(entsql.EQ("topic_id", topicID)).
		OrderBy("question_id", "position").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	byQuestion := make(map[string][]AnswerData)
	for rows.Next() {
		var (
			questionID string
			a          AnswerData
		)
		if err := rows.Scan(&questionID, &a.ID, &a.Text, &a.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		byQuestion[questionID] = append(byQuestion[questionID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return byQuestion, nil
}

func (r *topicRepo) List(ctx context.Context) ([]TopicData, error) {
	query, args := sqlite().
		Select("id", "title", "imported_at").
		From(sqlite().Table(topicsTable)).
		OrderBy("id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var topics []TopicData
	for rows.Next() {
		var t TopicData
		if err := rows.Scan(&t.ID, &t.Title, &t.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		t.ImportedAt = t.ImportedAt.UTC()
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

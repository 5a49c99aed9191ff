package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// TopicsColumns holds the columns for the "topics" table.
	TopicsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "imported_at", Type: field.TypeTime},
	}
	// TopicsTable holds the schema information for the "topics" table.
	TopicsTable = &schema.Table{
		Name:       "topics",
		Columns:    TopicsColumns,
		PrimaryKey: []*schema.Column{TopicsColumns[0]},
	}

	// QuestionsColumns holds the columns for the "questions" table.
	QuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "position", Type: field.TypeInt},
	}
	// QuestionsTable holds the schema information for the "questions" table.
	QuestionsTable = &schema.Table{
		Name:       "questions",
		Columns:    QuestionsColumns,
		PrimaryKey: []*schema.Column{QuestionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "question_topic_id_question_id",
				Unique:  true,
				Columns: []*schema.Column{QuestionsColumns[1], QuestionsColumns[2]},
			},
		},
	}

	// AnswersColumns holds the columns for the "answers" table.
	AnswersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "answer_id", Type: field.TypeString},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "correct", Type: field.TypeBool},
		{Name: "position", Type: field.TypeInt},
	}
	// AnswersTable holds the schema information for the "answers" table.
	AnswersTable = &schema.Table{
		Name:       "answers",
		Columns:    AnswersColumns,
		PrimaryKey: []*schema.Column{AnswersColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "answer_topic_id_question_id_answer_id",
				Unique:  true,
				Columns: []*schema.Column{AnswersColumns[1], AnswersColumns[2], AnswersColumns[3]},
			},
		},
	}

	// WorkoutsColumns holds the columns for the "workouts" table.
	// Ordered sequences are stored packed; see codec.go.
	WorkoutsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "attempt_id", Type: field.TypeString},
		{Name: "started", Type: field.TypeBool, Default: false},
		{Name: "finished", Type: field.TypeBool, Default: false},
		{Name: "finished_early", Type: field.TypeBool, Default: false},
		{Name: "started_at", Type: field.TypeTime, Nullable: true},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
		{Name: "questions_order", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "step_index", Type: field.TypeInt, Default: 0},
		{Name: "selected_answer_id", Type: field.TypeString, Default: ""},
		{Name: "question_results", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "correct_answers", Type: field.TypeInt, Default: 0},
		{Name: "current_ratio", Type: field.TypeInt, Default: 0},
		{Name: "time_seconds", Type: field.TypeInt, Default: 0},
		{Name: "skipped", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// WorkoutsTable holds the schema information for the "workouts" table.
	// One row per (user, topic).
	WorkoutsTable = &schema.Table{
		Name:       "workouts",
		Columns:    WorkoutsColumns,
		PrimaryKey: []*schema.Column{WorkoutsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "workout_user_id_topic_id",
				Unique:  true,
				Columns: []*schema.Column{WorkoutsColumns[1], WorkoutsColumns[2]},
			},
		},
	}

	// WorkoutStatsColumns holds the columns for the "workout_stats" table.
	WorkoutStatsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "attempt_id", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "correct_answers", Type: field.TypeInt},
		{Name: "ratio", Type: field.TypeInt},
		{Name: "time_seconds", Type: field.TypeInt},
		{Name: "finished_early", Type: field.TypeBool, Default: false},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime},
		{Name: "created_at", Type: field.TypeTime},
	}
	// WorkoutStatsTable holds the schema information for the append-only
	// "workout_stats" table.
	WorkoutStatsTable = &schema.Table{
		Name:       "workout_stats",
		Columns:    WorkoutStatsColumns,
		PrimaryKey: []*schema.Column{WorkoutStatsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "workoutstats_user_id_topic_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{WorkoutStatsColumns[2], WorkoutStatsColumns[3], WorkoutStatsColumns[11]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		TopicsTable,
		QuestionsTable,
		AnswersTable,
		WorkoutsTable,
		WorkoutStatsTable,
	}
)

package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableStats       = "user_stats"
	tablePerformance = "user_performance"
	tableTiers       = "tier_progress"
	tableQuestions   = "questions"
	tableSessions    = "quiz_sessions"
	tableEvents      = "session_events"
	tableLLMCalls    = "llm_calls"
	tableSequence    = "global_sequence"
)

func column(name string, t field.Type) *schema.Column {
	return &schema.Column{Name: name, Type: t}
}

func withDefault(c *schema.Column, v any) *schema.Column {
	c.Default = v
	return c
}

func text(name string) *schema.Column {
	return withDefault(column(name, field.TypeString), "")
}

func integer(name string) *schema.Column {
	return withDefault(column(name, field.TypeInt), 0)
}

func bigint(name string) *schema.Column {
	return withDefault(column(name, field.TypeInt64), 0)
}

// tables declares every table the store migrates. Timestamps are stored as
// Unix milliseconds and structured values as JSON text so the same schema
// works on SQLite and Postgres.
func tables() []*schema.Table {
	statsUser := column("user_id", field.TypeString)
	stats := &schema.Table{
		Name: tableStats,
		Columns: []*schema.Column{
			statsUser,
			integer("total_xp"),
			withDefault(column("level", field.TypeInt), 1),
			integer("quiz_streak"),
			integer("total_quizzes"),
			integer("total_correct"),
			integer("total_questions"),
			withDefault(column("achievements", field.TypeString), "[]"),
			bigint("version"),
			bigint("updated_at"),
		},
		PrimaryKey: []*schema.Column{statsUser},
	}

	perfUser, perfCat := column("user_id", field.TypeString), column("category", field.TypeString)
	perf := &schema.Table{
		Name: tablePerformance,
		Columns: []*schema.Column{
			perfUser,
			perfCat,
			integer("correct_answers"),
			integer("total_answers"),
			withDefault(column("average_time", field.TypeFloat64), 0),
			text("tier"),
			bigint("last_attempt"),
		},
		PrimaryKey: []*schema.Column{perfUser, perfCat},
	}

	tierUser, tierSubject, tierName := column("user_id", field.TypeString), column("subject", field.TypeString), column("tier", field.TypeString)
	tiers := &schema.Table{
		Name: tableTiers,
		Columns: []*schema.Column{
			tierUser,
			tierSubject,
			tierName,
			integer("quiz_count"),
			integer("correct_answers"),
			integer("total_questions"),
			integer("total_xp"),
			integer("best_score"),
			integer("last_accuracy"),
		},
		PrimaryKey: []*schema.Column{tierUser, tierSubject, tierName},
	}

	qID, qCategory := column("id", field.TypeString), column("category", field.TypeString)
	questions := &schema.Table{
		Name: tableQuestions,
		Columns: []*schema.Column{
			qID,
			qCategory,
			text("prompt"),
			withDefault(column("options", field.TypeString), "[]"),
			integer("correct_index"),
			text("tier"),
			text("explanation"),
			integer("points"),
			text("source"),
		},
		PrimaryKey: []*schema.Column{qID},
		Indexes: []*schema.Index{
			{Name: "questions_category", Columns: []*schema.Column{qCategory}},
		},
	}

	sID, sUser, sStatus, sStarted := column("id", field.TypeString), column("user_id", field.TypeString), text("status"), bigint("started_at")
	sessions := &schema.Table{
		Name: tableSessions,
		Columns: []*schema.Column{
			sID,
			sUser,
			text("subject"),
			text("topic"),
			text("tier"),
			text("source"),
			withDefault(column("questions", field.TypeString), "[]"),
			withDefault(column("answers", field.TypeString), "[]"),
			sStatus,
			text("result"),
			integer("xp_earned"),
			bigint("time_limit_ms"),
			sStarted,
			bigint("completed_at"),
		},
		PrimaryKey: []*schema.Column{sID},
		Indexes: []*schema.Index{
			{Name: "quiz_sessions_user", Columns: []*schema.Column{sUser}},
			{Name: "quiz_sessions_status_started", Columns: []*schema.Column{sStatus, sStarted}},
		},
	}

	evSeq, evSession := column("sequence", field.TypeInt64), column("session_id", field.TypeString)
	events := &schema.Table{
		Name: tableEvents,
		Columns: []*schema.Column{
			evSeq,
			bigint("timestamp"),
			evSession,
			text("user_id"),
			text("action"),
			withDefault(column("payload", field.TypeString), "{}"),
		},
		PrimaryKey: []*schema.Column{evSeq},
		Indexes: []*schema.Index{
			{Name: "session_events_session", Columns: []*schema.Column{evSession}},
		},
	}

	llmSeq := column("sequence", field.TypeInt64)
	llm := &schema.Table{
		Name: tableLLMCalls,
		Columns: []*schema.Column{
			llmSeq,
			bigint("timestamp"),
			text("provider"),
			text("model"),
			text("purpose"),
			integer("input_tokens"),
			integer("output_tokens"),
			bigint("latency_ms"),
			withDefault(column("success", field.TypeBool), false),
			text("error_message"),
			text("request_body"),
			text("response_body"),
		},
		PrimaryKey: []*schema.Column{llmSeq},
	}

	seqID := column("id", field.TypeInt)
	seq := &schema.Table{
		Name:       tableSequence,
		Columns:    []*schema.Column{seqID, withDefault(column("next_val", field.TypeInt64), 1)},
		PrimaryKey: []*schema.Column{seqID},
	}

	return []*schema.Table{stats, perf, tiers, questions, sessions, events, llm, seq}
}

// migrate creates or updates all tables and seeds the sequence row.
func migrate(ctx context.Context, drv dialect.Driver, dialectName string) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables()...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	query, args := entsql.Dialect(dialectName).
		Insert(tableSequence).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if err := drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}

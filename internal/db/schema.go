package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates all tables and indexes if they don't exist.
// Statements are idempotent so this is safe to run on every boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SeedQuestions inserts the default prediction questions when the table
// is empty, mirroring the operator-provided seed set.
func SeedQuestions(ctx context.Context, pool *pgxpool.Pool) error {
	var count int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM prediction_questions`).Scan(&count); err != nil {
		return fmt.Errorf("count prediction questions: %w", err)
	}
	if count > 0 {
		return nil
	}

	type seed struct {
		question  string
		threshold int64 // micros
		days      int
	}
	seeds := []seed{
		{"Will gold exceed $2,500/oz?", 2_500_000_000, 7},
		{"Will gold exceed $2,600/oz?", 2_600_000_000, 14},
		{"Will gold exceed $2,750/oz?", 2_750_000_000, 30},
	}

	for _, s := range seeds {
		_, err := pool.Exec(ctx, `
			INSERT INTO prediction_questions (id, question, description, threshold_micros, deadline, multiplier_bps, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'active', NOW())`,
			uuid.New(), s.question, "Settles against the spot price at the deadline.", s.threshold,
			time.Now().AddDate(0, 0, s.days), 19000)
		if err != nil {
			return fmt.Errorf("seed question %q: %w", s.question, err)
		}
	}
	return nil
}

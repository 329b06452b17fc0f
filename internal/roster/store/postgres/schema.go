package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the roster tables when they do not exist yet. The unique
// indexes are the authoritative backstop for name uniqueness and for the
// one-segment-per-start rule under concurrent writers.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS persons (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT persons_normalized_name_key UNIQUE (normalized_name)
		)`,
		`CREATE TABLE IF NOT EXISTS duty_segments (
			id UUID PRIMARY KEY,
			person_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
			rank TEXT NOT NULL,
			title TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE,
			CONSTRAINT duty_segments_person_start_key UNIQUE (person_id, start_date)
		)`,
		`CREATE INDEX IF NOT EXISTS duty_segments_person_idx ON duty_segments (person_id, start_date)`,
		`CREATE TABLE IF NOT EXISTS status_snapshots (
			person_id UUID PRIMARY KEY REFERENCES persons(id) ON DELETE CASCADE,
			current_rank TEXT,
			current_title TEXT,
			career_start DATE NOT NULL,
			career_end DATE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate roster schema: %w", err)
		}
	}
	return nil
}

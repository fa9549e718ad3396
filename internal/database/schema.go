package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id UUID PRIMARY KEY,
	match_id TEXT NOT NULL,
	tournament TEXT NOT NULL,
	surface TEXT NOT NULL,
	format TEXT NOT NULL,
	player1_name TEXT NOT NULL,
	player2_name TEXT NOT NULL,
	predicted_winner TEXT NOT NULL,
	match_prob1 DOUBLE PRECISION NOT NULL,
	match_prob2 DOUBLE PRECISION NOT NULL,
	set_prob1 DOUBLE PRECISION NOT NULL,
	set_prob2 DOUBLE PRECISION NOT NULL,
	over_two_half_sets DOUBLE PRECISION NOT NULL,
	expected_games DOUBLE PRECISION NOT NULL,
	confidence TEXT NOT NULL,
	contributions JSONB NOT NULL DEFAULT '[]',
	red_flags TEXT[] NOT NULL DEFAULT '{}',
	notes TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_predictions_match_id ON predictions (match_id);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at DESC);

CREATE TABLE IF NOT EXISTS skips (
	id UUID PRIMARY KEY,
	match_id TEXT NOT NULL,
	player1_name TEXT NOT NULL,
	player2_name TEXT NOT NULL,
	reason TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_skips_reason ON skips (reason);
CREATE INDEX IF NOT EXISTS idx_skips_created_at ON skips (created_at DESC);
`

// EnsureSchema creates the prediction archive tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

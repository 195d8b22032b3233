package db

import (
	"context"
	"fmt"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS todos (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id    TEXT NOT NULL,
	text       TEXT NOT NULL,
	priority   INTEGER NOT NULL DEFAULT 2 CHECK (priority BETWEEN 1 AND 3),
	is_subtask BOOLEAN NOT NULL DEFAULT FALSE,
	parent_id  UUID REFERENCES todos(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_todos_user_toplevel
	ON todos(user_id, priority) WHERE is_subtask = FALSE;
CREATE INDEX IF NOT EXISTS idx_todos_parent ON todos(parent_id);

CREATE TABLE IF NOT EXISTS note_vectors (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	text         TEXT NOT NULL,
	is_full_text BOOLEAN NOT NULL DEFAULT FALSE,
	embedding    VECTOR,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_note_vectors_user ON note_vectors(user_id);
`

// Migrate creates the schema if it does not exist. The embedding column is
// declared without a fixed dimension so either embedding model can be used.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

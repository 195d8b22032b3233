package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Todo represents a task row. Top-level todos carry their subtasks one level
// deep; subtasks never have children of their own.
type Todo struct {
	ID        uuid.UUID
	UserID    string
	Text      string
	Priority  int
	IsSubtask bool
	ParentID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Subtasks  []*Todo
}

// VectorRecord represents an embedded piece of note text. Full transcripts
// are stored alongside their chunks, distinguished by IsFullText.
type VectorRecord struct {
	ID         string
	UserID     string
	Text       string
	IsFullText bool
	Embedding  *pgvector.Vector
	CreatedAt  time.Time
}

// SearchResult is a similarity match for a query vector.
type SearchResult struct {
	Text       string
	IsFullText bool
	Score      float64
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// UpsertVectors inserts vector records in a single batch. Records are
// write-once; re-upserting an existing id replaces it.
func (db *DB) UpsertVectors(ctx context.Context, records []*VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(
			`INSERT INTO note_vectors (id, user_id, text, is_full_text, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET text = EXCLUDED.text, embedding = EXCLUDED.embedding`,
			rec.ID, rec.UserID, rec.Text, rec.IsFullText, rec.Embedding,
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(records); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector %d: %w", i, err)
		}
	}
	return nil
}

// SearchVectors finds the most similar records for a user using cosine
// distance. Results are ordered by descending similarity.
func (db *DB) SearchVectors(ctx context.Context, userID string, embedding *pgvector.Vector, limit int) ([]*SearchResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT text, is_full_text, 1 - (embedding <=> $2) AS score
		 FROM note_vectors
		 WHERE user_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		userID, embedding, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var res SearchResult
		if err := rows.Scan(&res.Text, &res.IsFullText, &res.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}

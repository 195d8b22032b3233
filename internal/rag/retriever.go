// Package rag implements note ingestion into the vector index and
// retrieval of semantically similar note text for prompting.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/neuromap/cli/internal/chunker"
	"github.com/neuromap/cli/internal/db"
	"github.com/neuromap/cli/internal/embeddings"
)

// ErrEmptyText is returned when an ingestion or query call carries no text.
var ErrEmptyText = errors.New("text is required")

// VectorStore is the slice of the database the retriever needs.
type VectorStore interface {
	UpsertVectors(ctx context.Context, records []*db.VectorRecord) error
	SearchVectors(ctx context.Context, userID string, embedding *pgvector.Vector, limit int) ([]*db.SearchResult, error)
}

// Retriever ingests note text into the vector index and answers
// similarity queries scoped to a single user.
type Retriever struct {
	store        VectorStore
	embedder     embeddings.Embedder
	chunkSize    int
	chunkOverlap int
	topK         int
}

// NewRetriever creates a new retriever.
func NewRetriever(store VectorStore, embedder embeddings.Embedder, chunkSize, chunkOverlap, topK int) *Retriever {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		topK:         topK,
	}
}

// Upsert embeds the full text as one vector and, when the text exceeds the
// chunk size, embeds each chunk as well. Chunk embeddings run concurrently;
// a failed or empty chunk embedding is logged and dropped rather than
// failing the batch.
func (r *Retriever) Upsert(ctx context.Context, userID, text string) error {
	if text == "" {
		return ErrEmptyText
	}

	// One id base per ingestion; ULIDs are time-ordered and unique per call.
	base := fmt.Sprintf("%s-%s", userID, ulid.Make())

	var records []*db.VectorRecord

	fullVec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("failed to embed full text, continuing with chunks",
			"user", userID, "err", err)
	} else {
		records = append(records, &db.VectorRecord{
			ID:         base + "-full",
			UserID:     userID,
			Text:       text,
			IsFullText: true,
			Embedding:  fullVec,
		})
	}

	chunks, err := chunker.Chunk(text, r.chunkSize, r.chunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to chunk text: %w", err)
	}

	// A single chunk is just the full text again; only fan out when the
	// text was actually split.
	if len(chunks) > 1 {
		chunkRecords := make([]*db.VectorRecord, len(chunks))
		var wg sync.WaitGroup
		for i, chunk := range chunks {
			wg.Add(1)
			go func(i int, chunk string) {
				defer wg.Done()
				vec, err := r.embedder.Embed(ctx, chunk)
				if err != nil {
					slog.Warn("failed to embed chunk, skipping",
						"user", userID, "chunk", i, "err", err)
					return
				}
				chunkRecords[i] = &db.VectorRecord{
					ID:        fmt.Sprintf("%s-chunk-%d", base, i),
					UserID:    userID,
					Text:      chunk,
					Embedding: vec,
				}
			}(i, chunk)
		}
		wg.Wait()

		for _, rec := range chunkRecords {
			if rec != nil {
				records = append(records, rec)
			}
		}
	}

	if len(records) == 0 {
		return fmt.Errorf("upsert produced no usable vectors for user %s", userID)
	}

	return r.store.UpsertVectors(ctx, records)
}

// RetrievalResult contains similarity matches for a query.
type RetrievalResult struct {
	Matches []*db.SearchResult
}

// Retrieve finds the most similar note text for a query. No matches is not
// an error; the result is simply empty.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string) (*RetrievalResult, error) {
	if query == "" {
		return nil, ErrEmptyText
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	matches, err := r.store.SearchVectors(ctx, userID, queryEmbedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	return &RetrievalResult{Matches: matches}, nil
}

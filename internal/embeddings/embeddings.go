// Package embeddings generates text embedding vectors via an external model.
package embeddings

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"
)

// ErrEmptyEmbedding is returned when the upstream model produced no vector.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

// Embedder generates a fixed-dimensionality embedding for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) (*pgvector.Vector, error)
}

package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuromap/cli/internal/db"
)

type fakeVectorStore struct {
	upserted []*db.VectorRecord
	results  []*db.SearchResult
	err      error
}

func (f *fakeVectorStore) UpsertVectors(ctx context.Context, records []*db.VectorRecord) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakeVectorStore) SearchVectors(ctx context.Context, userID string, embedding *pgvector.Vector, limit int) ([]*db.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeEmbedder fails for texts containing failOn.
type fakeEmbedder struct {
	failOn string
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (*pgvector.Vector, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding failed")
	}
	vec := pgvector.NewVector([]float32{0.1, 0.2, 0.3})
	return &vec, nil
}

func TestUpsert_ShortText(t *testing.T) {
	store := &fakeVectorStore{}
	r := NewRetriever(store, &fakeEmbedder{}, 256, 40, 5)

	err := r.Upsert(context.Background(), "user-1", "a short note")
	require.NoError(t, err)

	require.Len(t, store.upserted, 1)
	rec := store.upserted[0]
	assert.True(t, rec.IsFullText)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "a short note", rec.Text)
	assert.True(t, strings.HasSuffix(rec.ID, "-full"))
	assert.True(t, strings.HasPrefix(rec.ID, "user-1-"))
}

func TestUpsert_LongTextFansOut(t *testing.T) {
	store := &fakeVectorStore{}
	r := NewRetriever(store, &fakeEmbedder{}, 100, 20, 5)

	text := strings.Repeat("all work and no play ", 20) // 420 chars
	err := r.Upsert(context.Background(), "user-1", text)
	require.NoError(t, err)

	require.Greater(t, len(store.upserted), 2)
	full := store.upserted[0]
	assert.True(t, full.IsFullText)

	seen := map[string]bool{}
	for _, rec := range store.upserted[1:] {
		assert.False(t, rec.IsFullText)
		assert.Contains(t, rec.ID, "-chunk-")
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestUpsert_SkipsFailedChunk(t *testing.T) {
	store := &fakeVectorStore{}
	// Fails on the marker, which appears in exactly one chunk region
	emb := &fakeEmbedder{failOn: "XFAILX"}
	r := NewRetriever(store, emb, 100, 20, 5)

	text := strings.Repeat("all work and no play ", 10) + "XFAILX" + strings.Repeat(" more text to spill over", 10)
	err := r.Upsert(context.Background(), "user-1", text)
	require.NoError(t, err)

	// Full text contains the marker so the full vector is dropped too, but
	// clean chunks still make it through.
	require.NotEmpty(t, store.upserted)
	for _, rec := range store.upserted {
		assert.NotContains(t, rec.Text, "XFAILX")
	}
}

func TestUpsert_AllEmbeddingsFail(t *testing.T) {
	store := &fakeVectorStore{}
	r := NewRetriever(store, &fakeEmbedder{failOn: "note"}, 256, 40, 5)

	err := r.Upsert(context.Background(), "user-1", "a short note")
	assert.Error(t, err)
	assert.Empty(t, store.upserted)
}

func TestUpsert_EmptyText(t *testing.T) {
	r := NewRetriever(&fakeVectorStore{}, &fakeEmbedder{}, 256, 40, 5)
	err := r.Upsert(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestRetrieve_NoMatches(t *testing.T) {
	r := NewRetriever(&fakeVectorStore{}, &fakeEmbedder{}, 256, 40, 5)

	result, err := r.Retrieve(context.Background(), "user-1", "anything")
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestRetrieve_ReturnsMatches(t *testing.T) {
	store := &fakeVectorStore{results: []*db.SearchResult{
		{Text: "first", Score: 0.9},
		{Text: "second", Score: 0.7},
	}}
	r := NewRetriever(store, &fakeEmbedder{}, 256, 40, 5)

	result, err := r.Retrieve(context.Background(), "user-1", "query")
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "first", result.Matches[0].Text)
}

func TestRetrieve_EmbeddingError(t *testing.T) {
	r := NewRetriever(&fakeVectorStore{}, &fakeEmbedder{failOn: "query"}, 256, 40, 5)
	_, err := r.Retrieve(context.Background(), "user-1", "query")
	assert.Error(t, err)
}

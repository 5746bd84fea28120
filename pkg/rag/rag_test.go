package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps keyword presence to fixed axis-aligned vectors so tests
// control similarity exactly.
type stubEmbedder struct {
	failOn string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, errors.New("embedding backend unavailable")
	}
	lower := strings.ToLower(text)
	vec := []float64{0.1, 0.1, 0.1}
	switch {
	case strings.Contains(lower, "refund"):
		vec = []float64{1, 0, 0}
	case strings.Contains(lower, "shipping"):
		vec = []float64{0, 1, 0}
	case strings.Contains(lower, "warranty"):
		vec = []float64{0, 0, 1}
	}
	return vec, nil
}

func TestChunkText_SplitsOnSentenceBoundaries(t *testing.T) {
	chunks := ChunkText("First sentence. Second one! Third?\nFourth line", 500)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "First sentence")
	assert.Contains(t, chunks[0], "Fourth line")
}

func TestChunkText_RespectsTokenBudget(t *testing.T) {
	// each sentence ~100 chars = ~25 tokens; budget 30 tokens = 120 chars
	sentence := strings.Repeat("word ", 20)
	text := sentence + ". " + sentence + ". " + sentence + "."

	chunks := ChunkText(text, 30)
	require.Greater(t, len(chunks), 1, "oversized input must split")
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 30*4+110, "chunk may exceed budget by at most one sentence")
	}
}

func TestChunkText_EmptyInput(t *testing.T) {
	assert.Empty(t, ChunkText("", 500))
	assert.Empty(t, ChunkText("   \n  ", 500))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity(nil, []float64{1}), "empty vector scores 0")
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{1, 1}), "zero vector scores 0")
	assert.Zero(t, cosineSimilarity([]float64{1}, []float64{1, 2}), "length mismatch scores 0")
}

func newTestSystem() *System {
	return NewSystem(SystemOptions{Embedder: &stubEmbedder{}})
}

func TestSystem_IngestThenSearchRoundTrip(t *testing.T) {
	s := newTestSystem()
	ctx := context.Background()

	stored, err := s.Ingest(ctx, "t1", "Refunds are processed within 5 days. Shipping takes two weeks. Warranty lasts one year.", "policies.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	// separate docs so each topic is its own chunk
	_, err = s.Ingest(ctx, "t1", "Our refund policy is generous", "refunds.txt")
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "t1", "Standard shipping is free", "shipping.txt")
	require.NoError(t, err)

	results := s.Search(ctx, "t1", "how do I get a refund", 3)
	require.NotEmpty(t, results)
	assert.Contains(t, strings.ToLower(results[0]), "refund", "most similar chunk comes first")
}

func TestSystem_TenantIsolation(t *testing.T) {
	s := newTestSystem()
	ctx := context.Background()

	_, err := s.Ingest(ctx, "t1", "Refund policy details here", "doc.txt")
	require.NoError(t, err)

	assert.Empty(t, s.Search(ctx, "t2", "refund", 3), "t2 must never see t1 chunks")
	assert.NotEmpty(t, s.Search(ctx, "t1", "refund", 3))
}

func TestSystem_ThresholdFiltersWeakMatches(t *testing.T) {
	s := newTestSystem()
	ctx := context.Background()

	// orthogonal topic: warranty vector has zero similarity with refund query
	_, err := s.Ingest(ctx, "t1", "Warranty covers manufacturing defects", "warranty.txt")
	require.NoError(t, err)

	assert.Empty(t, s.Search(ctx, "t1", "refund please", 3), "scores below 0.3 are dropped")
}

func TestSystem_TopKBoundsResults(t *testing.T) {
	s := newTestSystem()
	ctx := context.Background()

	for _, doc := range []string{"refund a", "refund b", "refund c", "refund d"} {
		_, err := s.Ingest(ctx, "t1", doc, doc+".txt")
		require.NoError(t, err)
	}

	assert.Len(t, s.Search(ctx, "t1", "refund", 2), 2)
}

func TestSystem_SearchIsDeterministic(t *testing.T) {
	s := newTestSystem()
	ctx := context.Background()

	for _, doc := range []string{"refund alpha", "refund beta", "refund gamma"} {
		_, err := s.Ingest(ctx, "t1", doc, doc+".txt")
		require.NoError(t, err)
	}

	first := s.Search(ctx, "t1", "refund", 3)
	second := s.Search(ctx, "t1", "refund", 3)
	assert.Equal(t, first, second, "unchanged data must return identical ordering")
}

func TestSystem_EmbedFailureSkipsChunkNotDocument(t *testing.T) {
	ctx := context.Background()

	// small budget forces two chunks, the second of which fails to embed
	s := NewSystem(SystemOptions{Embedder: &stubEmbedder{failOn: "BROKEN"}, ChunkTokens: 5})
	stored, err := s.Ingest(ctx, "t1", "Good refund info sentence here. Totally BROKEN sentence follows now", "mixed.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, stored, "failed chunk is skipped, the rest still lands")
}

func TestSystem_Clear(t *testing.T) {
	s := newTestSystem()
	ctx := context.Background()

	_, err := s.Ingest(ctx, "t1", "Refund details", "doc.txt")
	require.NoError(t, err)
	require.NotEmpty(t, s.Search(ctx, "t1", "refund", 3))

	require.NoError(t, s.Clear(ctx, "t1"))
	assert.Empty(t, s.Search(ctx, "t1", "refund", 3))
}

func TestSystem_Stats(t *testing.T) {
	s := newTestSystem()
	ctx := context.Background()

	_, err := s.Ingest(ctx, "t1", "Refund details", "a.txt")
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "t1", "Shipping details", "b.txt")
	require.NoError(t, err)

	stats := s.Stats(ctx, "t1")
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 2, stats.Documents)
}

// failingStore errors on every operation, standing in for an unreachable
// durable store.
type failingStore struct{}

func (f *failingStore) InsertChunks(context.Context, string, []Chunk) error {
	return errors.New("store unreachable")
}

func (f *failingStore) FetchChunks(context.Context, string) ([]Chunk, error) {
	return nil, errors.New("store unreachable")
}

func (f *failingStore) DeleteChunks(context.Context, string) error {
	return errors.New("store unreachable")
}

func TestSystem_StoreOutageDegradesToMemory(t *testing.T) {
	s := NewSystem(SystemOptions{Store: &failingStore{}, Embedder: &stubEmbedder{}})
	ctx := context.Background()

	stored, err := s.Ingest(ctx, "t1", "Refund policy text", "doc.txt")
	require.NoError(t, err, "store outage must not fail ingestion")
	assert.Equal(t, 1, stored)

	results := s.Search(ctx, "t1", "refund", 3)
	assert.NotEmpty(t, results, "search falls back to in-memory chunks")
}

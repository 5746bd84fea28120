// Package rag implements the knowledge retrieval subsystem: document
// chunking, embedding, tenant-isolated chunk storage and cosine-ranked
// search. It backs the faq and complex branches of the triage pipeline.
package rag

import (
	"context"
	"math"
	"time"
)

// Chunk is one embedded segment of an ingested document. Chunks are created
// at ingestion time and immutable afterwards; they are only removed by a
// tenant-scoped clear.
type Chunk struct {
	ID         string
	TenantID   string
	DocumentID string
	ChunkIndex int
	Text       string
	Embedding  []float64
	CreatedAt  time.Time
}

// ChunkStore is the contract a chunk backend must provide. Every operation
// is scoped by tenant; a store never returns another tenant's chunks.
type ChunkStore interface {
	InsertChunks(ctx context.Context, tenantID string, chunks []Chunk) error
	FetchChunks(ctx context.Context, tenantID string) ([]Chunk, error)
	DeleteChunks(ctx context.Context, tenantID string) error
}

// Embedder turns text into a fixed-dimensionality vector. Implementations
// must respect the context deadline.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched, empty or zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

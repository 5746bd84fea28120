package rag

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/openclaw/pkg/observability"
	"github.com/openclaw/openclaw/pkg/observability/metrics"
)

const (
	// DefaultTopK is the number of chunks returned by a search.
	DefaultTopK = 3
	// ScoreThreshold is the minimum cosine similarity a chunk must reach
	// to be considered relevant.
	ScoreThreshold = 0.3
)

// SystemOptions configures the retrieval system.
type SystemOptions struct {
	Store       ChunkStore // optional durable store; nil degrades to memory-only
	Embedder    Embedder
	ChunkTokens int // approximate token budget per chunk
}

// System ties chunking, embedding and chunk storage together. It keeps a
// per-tenant chunk cache so repeated searches do not refetch the store; the
// cache is invalidated on ingest and clear.
type System struct {
	store       ChunkStore
	fallback    *MemoryStore
	embedder    Embedder
	chunkTokens int

	cacheMu    sync.RWMutex
	chunkCache map[string][]Chunk // tenantID -> chunks
}

// Stats summarizes a tenant's knowledge base.
type Stats struct {
	TotalChunks int
	Documents   int
}

// NewSystem creates a retrieval system. When no durable store is given,
// chunks live only in process memory.
func NewSystem(opts SystemOptions) *System {
	store := opts.Store
	fallback := NewMemoryStore()
	if store == nil {
		store = fallback
	}
	chunkTokens := opts.ChunkTokens
	if chunkTokens <= 0 {
		chunkTokens = DefaultChunkTokens
	}
	return &System{
		store:       store,
		fallback:    fallback,
		embedder:    opts.Embedder,
		chunkTokens: chunkTokens,
		chunkCache:  make(map[string][]Chunk),
	}
}

// Ingest chunks the document, embeds each chunk and stores them under the
// tenant. A chunk whose embedding fails is logged and skipped; the rest of
// the document still lands. Returns the number of chunks stored.
func (s *System) Ingest(ctx context.Context, tenantID, content, filename string) (int, error) {
	observability.Infof("Ingesting document %q for tenant %s (%d chars)", filename, tenantID, len(content))

	pieces := ChunkText(content, s.chunkTokens)
	observability.Debugf("Split %q into %d chunks", filename, len(pieces))

	now := time.Now()
	embedded := make([]Chunk, 0, len(pieces))
	for i, text := range pieces {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			observability.Errorf("Failed to embed chunk %d of %q: %v", i, filename, err)
			metrics.RecordChunkIngested(false)
			continue
		}
		metrics.RecordChunkIngested(true)
		embedded = append(embedded, Chunk{
			ID:         uuid.NewString(),
			TenantID:   tenantID,
			DocumentID: filename,
			ChunkIndex: i,
			Text:       text,
			Embedding:  vec,
			CreatedAt:  now,
		})
	}

	if err := s.store.InsertChunks(ctx, tenantID, embedded); err != nil {
		// Durable store is down: keep the chunks in memory so search still works.
		observability.Warnf("Chunk store insert failed for tenant %s, keeping %d chunks in memory: %v",
			tenantID, len(embedded), err)
		if memErr := s.fallback.InsertChunks(ctx, tenantID, embedded); memErr != nil {
			return 0, memErr
		}
	}

	s.invalidate(tenantID)
	return len(embedded), nil
}

// Search embeds the query and returns the texts of the tenant's most similar
// chunks, best first. Chunks scoring below ScoreThreshold are dropped; at
// most topK texts are returned. Repeated searches over unchanged data return
// identical results.
func (s *System) Search(ctx context.Context, tenantID, query string, topK int) []string {
	if topK <= 0 {
		topK = DefaultTopK
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		observability.Errorf("Query embedding failed for tenant %s: %v", tenantID, err)
		return nil
	}

	chunks := s.tenantChunks(ctx, tenantID)
	if len(chunks) == 0 {
		metrics.RecordKnowledgeSearch(0)
		return nil
	}

	type scored struct {
		chunk Chunk
		score float64
	}
	candidates := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		sim := cosineSimilarity(queryVec, c.Embedding)
		if sim >= ScoreThreshold {
			candidates = append(candidates, scored{chunk: c, score: sim})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		// stable order for equal scores keeps searches deterministic
		if candidates[i].chunk.DocumentID != candidates[j].chunk.DocumentID {
			return candidates[i].chunk.DocumentID < candidates[j].chunk.DocumentID
		}
		return candidates[i].chunk.ChunkIndex < candidates[j].chunk.ChunkIndex
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]string, len(candidates))
	for i, c := range candidates {
		results[i] = c.chunk.Text
	}

	metrics.RecordKnowledgeSearch(len(results))
	observability.Debugf("Knowledge search for tenant %s: %d/%d relevant chunks", tenantID, len(results), len(chunks))
	return results
}

// Clear deletes all chunks for the tenant and drops its chunk cache.
func (s *System) Clear(ctx context.Context, tenantID string) error {
	err := s.store.DeleteChunks(ctx, tenantID)
	if memErr := s.fallback.DeleteChunks(ctx, tenantID); err == nil {
		err = memErr
	}
	s.invalidate(tenantID)
	if err != nil {
		return err
	}
	observability.Infof("Cleared knowledge base for tenant %s", tenantID)
	return nil
}

// Stats reports chunk and document counts for the tenant.
func (s *System) Stats(ctx context.Context, tenantID string) Stats {
	chunks := s.tenantChunks(ctx, tenantID)
	docs := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		docs[c.DocumentID] = struct{}{}
	}
	return Stats{TotalChunks: len(chunks), Documents: len(docs)}
}

// tenantChunks returns the tenant's chunks, serving from the in-process
// cache when possible. Store failures degrade to whatever is in memory.
func (s *System) tenantChunks(ctx context.Context, tenantID string) []Chunk {
	s.cacheMu.RLock()
	cached, ok := s.chunkCache[tenantID]
	s.cacheMu.RUnlock()
	if ok {
		return cached
	}

	chunks, err := s.store.FetchChunks(ctx, tenantID)
	if err != nil {
		observability.Warnf("Chunk fetch failed for tenant %s, using in-memory fallback: %v", tenantID, err)
		chunks, _ = s.fallback.FetchChunks(ctx, tenantID)
	} else if s.store != s.fallback {
		// Merge chunks that were stranded in memory by earlier store outages.
		memChunks, _ := s.fallback.FetchChunks(ctx, tenantID)
		chunks = append(chunks, memChunks...)
	}

	s.cacheMu.Lock()
	s.chunkCache[tenantID] = chunks
	s.cacheMu.Unlock()
	return chunks
}

func (s *System) invalidate(tenantID string) {
	s.cacheMu.Lock()
	delete(s.chunkCache, tenantID)
	s.cacheMu.Unlock()
}

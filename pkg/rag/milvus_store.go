package rag

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/openclaw/openclaw/pkg/observability"
)

// MilvusStoreOptions defines config parameters for the Milvus chunk store.
type MilvusStoreOptions struct {
	Endpoint   string // e.g. "127.0.0.1:19530"
	Collection string // e.g. "knowledge_chunks"
	Dimension  int    // embedding dimensionality
}

// MilvusStore persists knowledge chunks in a Milvus collection. Tenant
// isolation is enforced by filtering every query and delete on tenant_id.
// Ranking stays in-process: the store only fetches a tenant's chunks.
type MilvusStore struct {
	client     client.Client
	collection string
	dim        int
}

// NewMilvusStore connects to Milvus and ensures the chunk collection exists
// and is loaded.
func NewMilvusStore(ctx context.Context, options MilvusStoreOptions) (*MilvusStore, error) {
	cli, err := client.NewGrpcClient(ctx, options.Endpoint)
	if err != nil {
		observability.Errorf("Milvus connect error: %v", err)
		return nil, err
	}

	s := &MilvusStore{
		client:     cli,
		collection: options.Collection,
		dim:        options.Dimension,
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	observability.Debugf("Connected to Milvus at %s", options.Endpoint)
	return s, nil
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return err
	}

	if !has {
		schema := &entity.Schema{
			CollectionName: s.collection,
			Description:    "Community knowledge base chunks",
			AutoID:         false,
			Fields: []*entity.Field{
				{
					Name:       "id",
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					TypeParams: map[string]string{"max_length": "64"},
				},
				{
					Name:       "tenant_id",
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "64"},
				},
				{
					Name:       "document_id",
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "256"},
				},
				{
					Name:     "chunk_index",
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       "content",
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "8192"},
				},
				{
					Name:       "vector",
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", s.dim)},
				},
			},
		}

		if err := s.client.CreateCollection(ctx, schema, 1); err != nil {
			observability.Errorf("Error creating Milvus collection: %v", err)
			return err
		}

		idx, err := entity.NewIndexFlat(entity.IP)
		if err != nil {
			return err
		}
		if err := s.client.CreateIndex(ctx, s.collection, "vector", idx, false); err != nil {
			return err
		}
		observability.Infof("Created collection %s", s.collection)
	}

	return s.client.LoadCollection(ctx, s.collection, false)
}

// InsertChunks writes the chunks tagged with their tenant.
func (s *MilvusStore) InsertChunks(ctx context.Context, tenantID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	tenants := make([]string, len(chunks))
	docs := make([]string, len(chunks))
	indexes := make([]int64, len(chunks))
	contents := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))

	for i, c := range chunks {
		ids[i] = c.ID
		tenants[i] = tenantID
		docs[i] = c.DocumentID
		indexes[i] = int64(c.ChunkIndex)
		contents[i] = c.Text
		vectors[i] = toFloat32(c.Embedding)
	}

	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("tenant_id", tenants),
		entity.NewColumnVarChar("document_id", docs),
		entity.NewColumnInt64("chunk_index", indexes),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("milvus insert: %w", err)
	}
	return nil
}

// FetchChunks returns all chunks stored for the tenant.
func (s *MilvusStore) FetchChunks(ctx context.Context, tenantID string) ([]Chunk, error) {
	rs, err := s.client.Query(ctx, s.collection, nil,
		fmt.Sprintf(`tenant_id == "%s"`, tenantID),
		[]string{"id", "document_id", "chunk_index", "content", "vector"},
	)
	if err != nil {
		return nil, fmt.Errorf("milvus query: %w", err)
	}

	var ids, docs, contents []string
	var indexes []int64
	var vectors [][]float32

	for _, col := range rs {
		switch col.Name() {
		case "id":
			ids = col.(*entity.ColumnVarChar).Data()
		case "document_id":
			docs = col.(*entity.ColumnVarChar).Data()
		case "chunk_index":
			indexes = col.(*entity.ColumnInt64).Data()
		case "content":
			contents = col.(*entity.ColumnVarChar).Data()
		case "vector":
			vectors = col.(*entity.ColumnFloatVector).Data()
		}
	}

	chunks := make([]Chunk, 0, len(ids))
	for i := range ids {
		c := Chunk{ID: ids[i], TenantID: tenantID}
		if i < len(docs) {
			c.DocumentID = docs[i]
		}
		if i < len(indexes) {
			c.ChunkIndex = int(indexes[i])
		}
		if i < len(contents) {
			c.Text = contents[i]
		}
		if i < len(vectors) {
			c.Embedding = toFloat64(vectors[i])
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// DeleteChunks removes every chunk stored for the tenant.
func (s *MilvusStore) DeleteChunks(ctx context.Context, tenantID string) error {
	expr := fmt.Sprintf(`tenant_id == "%s"`, tenantID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete: %w", err)
	}
	return nil
}

// Close releases the Milvus connection.
func (s *MilvusStore) Close() error {
	return s.client.Close()
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

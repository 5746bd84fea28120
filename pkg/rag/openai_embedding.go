package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/openclaw/openclaw/pkg/observability"
)

// OpenAIEmbedderOptions configures the embedding client.
type OpenAIEmbedderOptions struct {
	Endpoint string // embedding service endpoint
	Model    string // e.g. "text-embedding-3-small"
	Timeout  time.Duration
}

// OpenAIEmbedder implements Embedder over an OpenAI-compatible embedding
// endpoint.
type OpenAIEmbedder struct {
	client  openai.EmbeddingService
	model   string
	timeout time.Duration
}

// NewOpenAIEmbedder creates an embedder for the given endpoint and model.
func NewOpenAIEmbedder(options OpenAIEmbedderOptions) *OpenAIEmbedder {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var opts []option.RequestOption
	if options.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(options.Endpoint))
	}
	return &OpenAIEmbedder{
		client:  openai.NewEmbeddingService(opts...),
		model:   options.Model,
		timeout: timeout,
	}
}

// Embed returns the embedding vector for the input text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, input string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.client.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{input}},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		observability.Errorf("Error creating embedding: %v", err)
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return res.Data[0].Embedding, nil
}

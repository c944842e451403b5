// Package openai provides an Embedder backed by the OpenAI embeddings API.
// This is the provider the club assistant runs in production; tests use
// embedder/mock instead.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultModel matches the model the club application embeds with.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimensions is the vector size of text-embedding-3-small.
	DefaultDimensions = 1536

	defaultBaseURL = "https://api.openai.com/v1"

	// maxBatchSize bounds how many texts go into one API request.
	maxBatchSize = 256
)

// Embedder calls the OpenAI embeddings endpoint in batches.
type Embedder struct {
	client     *resty.Client
	model      string
	dimensions int
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithModel overrides the embedding model.
func WithModel(model string, dimensions int) Option {
	return func(e *Embedder) {
		e.model = model
		e.dimensions = dimensions
	}
}

// WithBaseURL points the embedder at a different API host (proxies, tests).
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) { e.client.SetBaseURL(baseURL) }
}

// New creates an Embedder authenticated with the given API key.
func New(apiKey string, opts ...Option) *Embedder {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)

	e := &Embedder{
		client:     client,
		model:      DefaultModel,
		dimensions: DefaultDimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed converts texts to vectors, chunking into API-sized batches. Any
// batch failure fails the whole call, which aborts the enclosing index
// build.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out embedResponse

	op := func() error {
		resp, err := e.client.R().
			SetContext(ctx).
			SetBody(&embedRequest{Model: e.model, Input: texts}).
			Post("/embeddings")
		if err != nil {
			return fmt.Errorf("embeddings request: %w", err)
		}

		switch {
		case resp.StatusCode() == http.StatusOK:
			// fall through to decode
		case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
			return fmt.Errorf("embeddings status %d: %s", resp.StatusCode(), resp.String())
		default:
			return backoff.Permanent(fmt.Errorf("embeddings status %d: %s", resp.StatusCode(), resp.String()))
		}

		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode embeddings response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(out.Data), len(texts))
	}

	// Response order is not guaranteed to match input order; position is
	// carried in the index field.
	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })

	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

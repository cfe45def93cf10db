package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/hnstream/ai"
	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/retry"
	"github.com/poiesic/hnstream/vectorindex"
)

// Generator embeds text chunks with a fixed output dimension.
// A single Generator is shared by every branch worker.
type Generator struct {
	embedder    ai.Embedder
	dims        int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithEmbedRetries sets the attempt bound and base delay for exponential backoff.
func WithEmbedRetries(maxAttempts int, baseDelay time.Duration) GeneratorOption {
	return func(g *Generator) {
		if maxAttempts > 0 {
			g.maxAttempts = maxAttempts
		}
		g.baseDelay = baseDelay
	}
}

// WithGeneratorLogger sets a custom logger.
// Default is slog.Default().
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator wraps embedder, rejecting vectors that are not dims long.
func NewGenerator(embedder ai.Embedder, dims int, opts ...GeneratorOption) (*Generator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if dims < 1 {
		return nil, fmt.Errorf("%w: dimensions must be positive", core.ErrDimensionMismatch)
	}
	g := &Generator{
		embedder:    embedder,
		dims:        dims,
		maxAttempts: 3,
		baseDelay:   200 * time.Millisecond,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "embeddings")
	return g, nil
}

// Dimensions returns the enforced vector size.
func (g *Generator) Dimensions() int {
	return g.dims
}

// Embed returns one unit-length vector per chunk, in order.
func (g *Generator) Embed(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	var vectors [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		vectors, err = g.embedder.EmbedTexts(ctx, chunks)
		return err
	}, g.maxAttempts, g.baseDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings after %d attempts: %w", g.maxAttempts, err)
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != g.dims {
			return nil, fmt.Errorf("chunk %d: %w: got %d, want %d", i, core.ErrDimensionMismatch, len(v), g.dims)
		}
		vectors[i] = vectorindex.NormalizeVector(v)
	}
	return vectors, nil
}

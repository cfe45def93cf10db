// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/vectorindex"
)

// PageFetcher downloads the page a story links to.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TextPreparer turns raw story content and comment text into chunks.
type TextPreparer interface {
	PrepareStory(ctx context.Context, content []byte) ([]string, error)
	PrepareComment(text string) ([]string, error)
}

// Components are the collaborators a Pipeline is built from.
type Components struct {
	Items    ItemSource
	Pages    PageFetcher
	Text     TextPreparer
	Embedder *Generator
	Stories  *vectorindex.Sink
	Comments *vectorindex.Sink
}

func (c Components) validate() error {
	switch {
	case c.Items == nil:
		return ErrItemSourceRequired
	case c.Pages == nil:
		return ErrPageFetcherRequired
	case c.Text == nil:
		return ErrTextPreparerRequired
	case c.Embedder == nil:
		return ErrEmbedderRequired
	case c.Stories == nil, c.Comments == nil:
		return ErrSinkRequired
	}
	return nil
}

// Pipeline resolves, routes, enriches and writes the items of one wake.
type Pipeline struct {
	pages    PageFetcher
	text     TextPreparer
	embedder *Generator
	stories  *vectorindex.Sink
	comments *vectorindex.Sink

	resolver  *Resolver
	ancestors *AncestorResolver
	pool      *ants.Pool

	branchWorkers int
	batchSize     int
	keyPrefix     string
	maxAttempts   int
	retryDelay    time.Duration
	maxDepth      int
	stats         *Stats
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithResolveWorkers sets the worker pool size for id resolution.
// Default is runtime.NumCPU().
func WithResolveWorkers(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBranchWorkers sets the number of workers per branch.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithBranchWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.branchWorkers = n
		return nil
	}
}

// WithBatchSize sets how many items each worker buffers before writing.
// Default is vectorindex.DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n > 0 {
			p.batchSize = n
		}
		return nil
	}
}

// WithKeyPrefix sets the prefix of record keys.
// Default is vectorindex.DefaultPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(p *Pipeline) error {
		if prefix != "" {
			p.keyPrefix = prefix
		}
		return nil
	}
}

// WithItemRetries sets the attempt bound and fixed delay used when an item is not ready.
func WithItemRetries(maxAttempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		p.maxAttempts = maxAttempts
		p.retryDelay = delay
		return nil
	}
}

// WithMaxDepth bounds each ancestor walk.
// Default is DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(p *Pipeline) error {
		p.maxDepth = depth
		return nil
	}
}

// WithStats records outcomes into stats instead of a private counter set.
func WithStats(stats *Stats) Option {
	return func(p *Pipeline) error {
		if stats != nil {
			p.stats = stats
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline from its components.
func NewPipeline(c Components, opts ...Option) (*Pipeline, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	branchWorkers := runtime.NumCPU() / 2
	if branchWorkers < 1 {
		branchWorkers = 1
	}

	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		pages:         c.Pages,
		text:          c.Text,
		embedder:      c.Embedder,
		stories:       c.Stories,
		comments:      c.Comments,
		pool:          pool,
		branchWorkers: branchWorkers,
		batchSize:     vectorindex.DefaultBatchSize,
		keyPrefix:     vectorindex.DefaultPrefix,
		maxAttempts:   DefaultMaxAttempts,
		retryDelay:    DefaultRetryDelay,
		maxDepth:      DefaultMaxDepth,
		stats:         &Stats{},
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.resolver = NewResolver(c.Items,
		WithMaxAttempts(p.maxAttempts),
		WithRetryDelay(p.retryDelay),
		WithResolverStats(p.stats),
		WithResolverLogger(p.logger),
	)
	p.ancestors = NewAncestorResolver(p.resolver, p.maxDepth, p.logger)
	p.logger = p.logger.With("component", "pipeline")

	return p, nil
}

// Stats returns the pipeline's outcome counters.
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// ProcessBatch runs every id through the pipeline and returns once all of
// them have been written or dropped and every worker has flushed. Per-item
// failures are absorbed; only context cancellation is returned.
func (p *Pipeline) ProcessBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return ctx.Err()
	}
	started := time.Now()
	p.logger.Info("processing batch", "ids", len(ids), "first", ids[0], "last", ids[len(ids)-1])

	stories := make(chan core.Item, p.branchWorkers*2)
	comments := make(chan core.Item, p.branchWorkers*2)

	g, gctx := errgroup.WithContext(ctx)
	for range p.branchWorkers {
		g.Go(func() error { return p.storyWorker(gctx, stories) })
		g.Go(func() error { return p.commentWorker(gctx, comments) })
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			p.dispatch(gctx, id, stories, comments)
		})
		if err != nil {
			wg.Done()
			p.logger.Error("could not schedule item", "id", id, "err", err)
		}
	}
	wg.Wait()
	close(stories)
	close(comments)

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	p.logger.Info("batch processed", "ids", len(ids), "elapsed", time.Since(started))
	return err
}

// dispatch resolves one id and hands the item to its branch.
func (p *Pipeline) dispatch(ctx context.Context, id int64, stories, comments chan<- core.Item) {
	item, ok := p.resolver.Resolve(ctx, id)
	if !ok {
		return
	}

	var out chan<- core.Item
	switch r := route(item).(type) {
	case storyItem:
		out, item = stories, r.item
	case commentItem:
		out, item = comments, r.item
	}

	select {
	case out <- item:
	case <-ctx.Done():
	}
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

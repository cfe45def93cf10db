package hnstream

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/hnstream/ai"
	"github.com/poiesic/hnstream/ai/openai"
	"github.com/poiesic/hnstream/hn"
	"github.com/poiesic/hnstream/ingestion"
	"github.com/poiesic/hnstream/search"
	"github.com/poiesic/hnstream/source"
	"github.com/poiesic/hnstream/storage"
	"github.com/poiesic/hnstream/storage/badger"
	"github.com/poiesic/hnstream/textprep"
	"github.com/poiesic/hnstream/vectorindex"
	"github.com/poiesic/hnstream/vectorindex/pgvector"
	"github.com/poiesic/hnstream/webpage"
)

// Config holds everything needed to open the stream's shared resources.
type Config struct {
	// CheckpointPath is the badger directory holding the cursor. Empty
	// keeps checkpoints in memory.
	CheckpointPath string

	// IndexDSN is the Postgres connection string for the vector index.
	IndexDSN string

	// Overwrite drops and recreates both collections on open.
	Overwrite bool

	// Algorithm is the vector search algorithm, "flat" or "hnsw".
	// Default: flat
	Algorithm string

	// KeyPrefix namespaces record keys.
	// Default: v1
	KeyPrefix string

	// HNBaseURL overrides the upstream API root.
	HNBaseURL string

	// RateLimit caps upstream requests per second. Zero disables the limit.
	RateLimit float64
	RateBurst int

	// FetchRetries is the number of webpage fetch retries after the first attempt.
	// Default: 3
	FetchRetries int

	// ChunkSize and ChunkOverlap size story text chunks in characters.
	ChunkSize    int
	ChunkOverlap int

	// ResolveWorkers and BranchWorkers size the pipeline. Zero keeps the pipeline default.
	ResolveWorkers int
	BranchWorkers  int

	// BatchSize is the number of records buffered per sink write.
	// Default: 50
	BatchSize int

	Source source.Config
	AI     *ai.Config
}

// DefaultConfig returns the stream defaults.
func DefaultConfig() Config {
	return Config{
		CheckpointPath: "hnstream.db",
		Algorithm:      vectorindex.AlgorithmFlat,
		KeyPrefix:      vectorindex.DefaultPrefix,
		RateLimit:      50,
		RateBurst:      10,
		FetchRetries:   3,
		ChunkSize:      textprep.DefaultChunkSize,
		ChunkOverlap:   textprep.DefaultChunkOverlap,
		BatchSize:      vectorindex.DefaultBatchSize,
		Source:         source.DefaultConfig(),
		AI:             ai.DefaultConfig(),
	}
}

// App owns the resources shared by the stream and the searcher: the
// checkpoint store, the embedder and the vector index collections.
type App struct {
	cfg         Config
	backend     *badger.Backend
	checkpoints *badger.CheckpointRepository
	embedder    ai.Embedder
	db          *sql.DB
	stories     vectorindex.Index
	comments    vectorindex.Index
	logger      *slog.Logger
}

// Open opens the checkpoint store, builds the embedder and connects to
// the vector index, creating the collections as needed. Any failure here
// is fatal to startup.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AI == nil {
		cfg.AI = ai.DefaultConfig()
	}
	cfg.AI.Normalize()

	backend, err := badger.OpenBackend(cfg.CheckpointPath, cfg.CheckpointPath == "")
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	checkpoints := badger.NewCheckpointRepository(backend)

	embedder, err := openai.NewEmbedder(cfg.AI)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	db, err := pgvector.Connect(ctx, cfg.IndexDSN)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("connect vector index: %w", err)
	}

	app := &App{
		cfg:         cfg,
		backend:     backend,
		checkpoints: checkpoints,
		embedder:    embedder,
		db:          db,
		logger:      logger,
	}

	dims := cfg.AI.Dimensions
	app.stories, err = app.openIndex(ctx, vectorindex.StorySchema(dims))
	if err != nil {
		app.Close()
		return nil, err
	}
	app.comments, err = app.openIndex(ctx, vectorindex.CommentSchema(dims))
	if err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func (a *App) openIndex(ctx context.Context, schema vectorindex.Schema) (vectorindex.Index, error) {
	opts := []pgvector.Option{pgvector.WithLogger(a.logger)}
	if a.cfg.Algorithm != "" {
		opts = append(opts, pgvector.WithAlgorithm(a.cfg.Algorithm))
	}
	idx, err := pgvector.NewIndex(a.db, schema, opts...)
	if err != nil {
		return nil, err
	}
	if err := vectorindex.Open(ctx, idx, a.cfg.Overwrite); err != nil {
		return nil, fmt.Errorf("open %s: %w", schema.Name, err)
	}
	return idx, nil
}

// Close releases the index connection and then the checkpoint store.
func (a *App) Close() error {
	var errs []error
	for _, idx := range []vectorindex.Index{a.stories, a.comments} {
		if idx == nil {
			continue
		}
		if err := idx.Close(); err != nil {
			a.logger.Error("error closing index", "index", idx.Schema().Name, "err", err)
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("error closing index connection", "err", err)
			errs = append(errs, err)
		}
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CheckpointRepository returns the cursor store.
func (a *App) CheckpointRepository() storage.CheckpointRepository {
	return a.checkpoints
}

// NewSearcher creates a searcher over both collections.
func (a *App) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(a.logger)}, opts...)
	return search.NewSearcher(a.embedder, []vectorindex.Index{a.stories, a.comments}, opts...)
}

// NewStream builds the pipeline and the polling source, resuming from the
// persisted cursor when one exists. The returned func releases the
// pipeline's worker pool and must be called once Run returns.
func (a *App) NewStream(ctx context.Context) (*Stream, func(), error) {
	cfg := a.cfg
	stats := &ingestion.Stats{}

	hnOpts := []hn.Option{hn.WithLogger(a.logger)}
	if cfg.HNBaseURL != "" {
		hnOpts = append(hnOpts, hn.WithBaseURL(cfg.HNBaseURL))
	}
	if cfg.RateLimit > 0 {
		hnOpts = append(hnOpts, hn.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	client := hn.NewClient(hnOpts...)

	generator, err := ingestion.NewGenerator(a.embedder, cfg.AI.Dimensions,
		ingestion.WithGeneratorLogger(a.logger),
	)
	if err != nil {
		return nil, nil, err
	}

	storySink := vectorindex.NewSink(a.stories, vectorindex.WithSinkLogger(a.logger))
	commentSink := vectorindex.NewSink(a.comments, vectorindex.WithSinkLogger(a.logger))

	pipelineOpts := []ingestion.Option{
		ingestion.WithBatchSize(cfg.BatchSize),
		ingestion.WithKeyPrefix(cfg.KeyPrefix),
		ingestion.WithStats(stats),
		ingestion.WithLogger(a.logger),
	}
	if cfg.ResolveWorkers > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithResolveWorkers(cfg.ResolveWorkers))
	}
	if cfg.BranchWorkers > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithBranchWorkers(cfg.BranchWorkers))
	}
	pipeline, err := ingestion.NewPipeline(ingestion.Components{
		Items: client,
		Pages: webpage.NewFetcher(
			webpage.WithMaxRetries(cfg.FetchRetries),
			webpage.WithLogger(a.logger),
		),
		Text: textprep.NewPreparer(
			textprep.WithChunkSize(cfg.ChunkSize),
			textprep.WithChunkOverlap(cfg.ChunkOverlap),
		),
		Embedder: generator,
		Stories:  storySink,
		Comments: commentSink,
	}, pipelineOpts...)
	if err != nil {
		return nil, nil, err
	}

	resume, err := ResumeCursor(ctx, a.checkpoints)
	if err != nil {
		pipeline.Release()
		return nil, nil, fmt.Errorf("load checkpoint: %w", err)
	}

	src, err := source.New(ctx, client, cfg.Source, resume, time.Now(), source.WithLogger(a.logger))
	if err != nil {
		pipeline.Release()
		return nil, nil, err
	}

	stream, err := NewStream(src, pipeline, a.checkpoints,
		WithStats(stats),
		WithSinks(storySink, commentSink),
		WithLogger(a.logger),
	)
	if err != nil {
		pipeline.Release()
		return nil, nil, err
	}
	return stream, pipeline.Release, nil
}

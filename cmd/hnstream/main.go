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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/hnstream"
	"github.com/poiesic/hnstream/ai"
	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/search"
	"github.com/poiesic/hnstream/source"
	"github.com/poiesic/hnstream/storage/badger"
	"github.com/poiesic/hnstream/vectorindex"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is fine; flags and the environment still apply.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "hnstream",
		Usage: "Stream Hacker News items into a vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"HNSTREAM_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Poll the upstream API and index new stories and comments",
				Action: runCommand,
				Flags:  append(append(append(checkpointFlags(), indexFlags()...), embeddingFlags()...), runFlags()...),
			},
			{
				Name:      "search",
				Usage:     "Search indexed stories or comments",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(indexFlags(), embeddingFlags()...),
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Collection to search (story, comment)",
						Value: "story",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "verbatim-boost",
						Usage: "Score boost for hits containing every query word",
					},
				),
			},
			{
				Name:  "checkpoint",
				Usage: "Inspect or clear the persisted cursor",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the persisted cursor",
						Action: checkpointShowCommand,
						Flags:  checkpointFlags(),
					},
					{
						Name:   "reset",
						Usage:  "Delete the persisted cursor",
						Action: checkpointResetCommand,
						Flags:  checkpointFlags(),
					},
				},
			},
		},
	}
}

func checkpointFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "checkpoint-db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB checkpoint directory",
			Value:   "hnstream.db",
			EnvVars: []string{"HNSTREAM_CHECKPOINT_DB"},
		},
	}
}

func indexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "index-dsn",
			Usage:    "Postgres connection string for the vector index",
			EnvVars:  []string{"HNSTREAM_INDEX_DSN"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "algorithm",
			Usage:   "Vector search algorithm (flat, hnsw)",
			Value:   vectorindex.AlgorithmFlat,
			EnvVars: []string{"HNSTREAM_ALGORITHM"},
		},
	}
}

func embeddingFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   defaults.EmbeddingHost,
			EnvVars: []string{"HNSTREAM_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   defaults.EmbeddingModel,
			EnvVars: []string{"HNSTREAM_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-token",
			Usage:   "Embedding service API token",
			EnvVars: []string{"HNSTREAM_EMBEDDING_TOKEN", "OPENAI_API_KEY"},
		},
		&cli.IntFlag{
			Name:    "embedding-dimensions",
			Usage:   "Embedding vector dimensions",
			Value:   defaults.Dimensions,
			EnvVars: []string{"HNSTREAM_EMBEDDING_DIMENSIONS"},
		},
	}
}

func runFlags() []cli.Flag {
	defaults := hnstream.DefaultConfig()
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "interval",
			Usage:   "Time between polls",
			Value:   defaults.Source.Interval,
			EnvVars: []string{"HNSTREAM_INTERVAL"},
		},
		&cli.StringFlag{
			Name:    "align-to",
			Usage:   "RFC 3339 time that poll boundaries are counted from",
			EnvVars: []string{"HNSTREAM_ALIGN_TO"},
		},
		&cli.Int64Flag{
			Name:    "init-id",
			Usage:   "First item id when no checkpoint exists (default: current max id)",
			EnvVars: []string{"HNSTREAM_INIT_ID"},
		},
		&cli.Int64Flag{
			Name:    "max-batch",
			Usage:   "Maximum ids per poll (0 for unlimited)",
			EnvVars: []string{"HNSTREAM_MAX_BATCH"},
		},
		&cli.BoolFlag{
			Name:    "overwrite",
			Usage:   "Drop and recreate the index collections on startup",
			EnvVars: []string{"HNSTREAM_OVERWRITE"},
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Number of records per index write",
			Value:   defaults.BatchSize,
			EnvVars: []string{"HNSTREAM_BATCH_SIZE"},
		},
		&cli.IntFlag{
			Name:    "resolve-workers",
			Usage:   "Concurrent item lookups (0 for one per CPU)",
			EnvVars: []string{"HNSTREAM_RESOLVE_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "branch-workers",
			Usage:   "Concurrent enrichment workers per branch (0 for half the CPUs)",
			EnvVars: []string{"HNSTREAM_BRANCH_WORKERS"},
		},
		&cli.StringFlag{
			Name:    "key-prefix",
			Usage:   "Namespace prefix for record keys",
			Value:   defaults.KeyPrefix,
			EnvVars: []string{"HNSTREAM_KEY_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Upstream API root (default: the public Firebase API)",
			EnvVars: []string{"HNSTREAM_BASE_URL"},
		},
		&cli.Float64Flag{
			Name:    "rate-limit",
			Usage:   "Upstream requests per second (0 for unlimited)",
			Value:   defaults.RateLimit,
			EnvVars: []string{"HNSTREAM_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "fetch-retries",
			Usage:   "Webpage fetch retries after the first attempt",
			Value:   defaults.FetchRetries,
			EnvVars: []string{"HNSTREAM_FETCH_RETRIES"},
		},
	}
}

// configFromFlags maps command flags onto the stream config.
func configFromFlags(c *cli.Context) (hnstream.Config, error) {
	cfg := hnstream.DefaultConfig()

	cfg.CheckpointPath = c.String("checkpoint-db")
	cfg.IndexDSN = c.String("index-dsn")
	cfg.Algorithm = c.String("algorithm")

	cfg.AI = ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("embedding-token")),
		ai.WithDimensions(c.Int("embedding-dimensions")),
	)
	cfg.AI.Normalize()
	if err := cfg.AI.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid AI configuration: %w", err)
	}

	if c.Command.Name != "run" {
		return cfg, nil
	}

	cfg.Overwrite = c.Bool("overwrite")
	cfg.BatchSize = c.Int("batch-size")
	cfg.ResolveWorkers = c.Int("resolve-workers")
	cfg.BranchWorkers = c.Int("branch-workers")
	cfg.KeyPrefix = c.String("key-prefix")
	cfg.HNBaseURL = c.String("base-url")
	cfg.RateLimit = c.Float64("rate-limit")
	cfg.FetchRetries = c.Int("fetch-retries")

	cfg.Source.Interval = c.Duration("interval")
	cfg.Source.InitID = c.Int64("init-id")
	cfg.Source.MaxBatch = c.Int64("max-batch")
	if s := c.String("align-to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return cfg, fmt.Errorf("invalid align-to %q: %w", s, err)
		}
		cfg.Source.AlignTo = t
	}
	if err := cfg.Source.Validate(); err != nil {
		return cfg, err
	}
	if cfg.BatchSize <= 0 {
		return cfg, fmt.Errorf("batch-size must be greater than 0")
	}

	return cfg, nil
}

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}

	app, err := hnstream.Open(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer app.Close()

	stream, release, err := app.NewStream(ctx)
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	defer release()

	fmt.Fprintf(os.Stderr, "Checkpoint db: %s\n", cfg.CheckpointPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintf(os.Stderr, "Interval: %s\n", cfg.Source.Interval)
	fmt.Fprintln(os.Stderr)

	return stream.Run(ctx)
}

func searchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}
	kind := core.ParseKind(c.String("collection"))
	if kind != core.KindStory && kind != core.KindComment {
		return fmt.Errorf("invalid collection %q: must be one of story, comment", c.String("collection"))
	}

	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}
	// Searching never recreates collections and needs no cursor, so the
	// checkpoint store stays in memory and a running stream keeps its lock.
	cfg.Overwrite = false
	cfg.CheckpointPath = ""

	app, err := hnstream.Open(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer app.Close()

	searcher, err := app.NewSearcher(search.WithVerbatimBoost(float32(c.Float64("verbatim-boost"))))
	if err != nil {
		return err
	}

	results, err := searcher.Search(ctx, kind, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s %d by %s\n", i+1, r.Score, r.Record.Type, r.Record.ID, r.Record.By)
		if r.Record.Title != "" {
			fmt.Printf("   %s\n", r.Record.Title)
		}
		if r.Record.URL != "" {
			fmt.Printf("   %s\n", r.Record.URL)
		}
		fmt.Printf("   %s\n\n", truncate(r.Record.Text, 200))
	}
	return nil
}

func checkpointShowCommand(c *cli.Context) error {
	return withCheckpoints(c, func(ctx context.Context, repo *badger.CheckpointRepository) error {
		checkpoint, err := repo.LoadCheckpoint(ctx, source.Partition)
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if checkpoint == nil {
			fmt.Fprintf(c.App.Writer, "No checkpoint for partition %s\n", source.Partition)
			return nil
		}
		fmt.Fprintf(c.App.Writer, "Partition: %s\nCursor: %d\nUpdated: %s\n",
			checkpoint.Partition, checkpoint.Cursor, checkpoint.UpdatedAt.Format(time.RFC3339))
		return nil
	})
}

func checkpointResetCommand(c *cli.Context) error {
	return withCheckpoints(c, func(ctx context.Context, repo *badger.CheckpointRepository) error {
		if err := repo.DeleteCheckpoint(ctx, source.Partition); err != nil {
			return fmt.Errorf("failed to delete checkpoint: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Checkpoint for partition %s deleted\n", source.Partition)
		return nil
	})
}

func withCheckpoints(c *cli.Context, fn func(context.Context, *badger.CheckpointRepository) error) error {
	dbPath := c.String("checkpoint-db")
	if dbPath == "" {
		return fmt.Errorf("checkpoint db path is required")
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	return fn(c.Context, badger.NewCheckpointRepository(backend))
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/hnstream"
	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/source"
	"github.com/poiesic/hnstream/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// captureConfig runs the named command with its Action replaced so the
// parsed config can be inspected without opening any resources.
func captureConfig(t *testing.T, command string, args ...string) (hnstream.Config, error) {
	t.Helper()
	app := newApp()
	var cfg hnstream.Config
	var cfgErr error
	for _, cmd := range app.Commands {
		if cmd.Name == command {
			cmd.Action = func(c *cli.Context) error {
				cfg, cfgErr = configFromFlags(c)
				return nil
			}
		}
	}
	err := app.Run(append([]string{"hnstream", command}, args...))
	if err != nil {
		return cfg, err
	}
	return cfg, cfgErr
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if v, ok := os.LookupEnv(key); ok {
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() { os.Setenv(key, v) })
	}
}

func TestRunCommandFlags(t *testing.T) {
	unsetEnv(t, "HNSTREAM_INDEX_DSN")

	t.Run("index-dsn is required", func(t *testing.T) {
		_, err := captureConfig(t, "run")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index-dsn")
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := captureConfig(t, "run", "--index-dsn", "postgres://localhost/hn")
		require.NoError(t, err)

		assert.Equal(t, "postgres://localhost/hn", cfg.IndexDSN)
		assert.Equal(t, "hnstream.db", cfg.CheckpointPath)
		assert.Equal(t, "flat", cfg.Algorithm)
		assert.Equal(t, 15*time.Second, cfg.Source.Interval)
		assert.Equal(t, int64(0), cfg.Source.InitID)
		assert.True(t, cfg.Source.AlignTo.IsZero())
		assert.False(t, cfg.Overwrite)
		assert.Equal(t, 50, cfg.BatchSize)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
		assert.Equal(t, 384, cfg.AI.Dimensions)
	})

	t.Run("explicit values", func(t *testing.T) {
		cfg, err := captureConfig(t, "run",
			"--index-dsn", "postgres://localhost/hn",
			"--checkpoint-db", "/tmp/state",
			"--interval", "1m",
			"--align-to", "2024-01-01T00:00:00Z",
			"--init-id", "40000000",
			"--max-batch", "500",
			"--overwrite",
			"--algorithm", "hnsw",
			"--batch-size", "10",
			"--embedding-host", "http://embed:8080",
			"--embedding-dimensions", "768",
		)
		require.NoError(t, err)

		assert.Equal(t, "/tmp/state", cfg.CheckpointPath)
		assert.Equal(t, time.Minute, cfg.Source.Interval)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Source.AlignTo.UTC())
		assert.Equal(t, int64(40000000), cfg.Source.InitID)
		assert.Equal(t, int64(500), cfg.Source.MaxBatch)
		assert.True(t, cfg.Overwrite)
		assert.Equal(t, "hnsw", cfg.Algorithm)
		assert.Equal(t, 10, cfg.BatchSize)
		assert.Equal(t, "http://embed:8080/v1", cfg.AI.EmbeddingHost)
		assert.Equal(t, 768, cfg.AI.Dimensions)
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("HNSTREAM_INDEX_DSN", "postgres://env/hn")
		t.Setenv("HNSTREAM_INTERVAL", "30s")
		cfg, err := captureConfig(t, "run")
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/hn", cfg.IndexDSN)
		assert.Equal(t, 30*time.Second, cfg.Source.Interval)
	})

	t.Run("invalid align-to", func(t *testing.T) {
		_, err := captureConfig(t, "run", "--index-dsn", "x", "--align-to", "yesterday")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "align-to")
	})

	t.Run("invalid interval", func(t *testing.T) {
		_, err := captureConfig(t, "run", "--index-dsn", "x", "--interval", "0s")
		assert.ErrorIs(t, err, source.ErrInvalidInterval)
	})

	t.Run("invalid batch size", func(t *testing.T) {
		_, err := captureConfig(t, "run", "--index-dsn", "x", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})
}

func TestSearchCommandValidation(t *testing.T) {
	t.Run("query is required", func(t *testing.T) {
		err := newApp().Run([]string{"hnstream", "search", "--index-dsn", "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("invalid collection", func(t *testing.T) {
		err := newApp().Run([]string{"hnstream", "search", "--index-dsn", "x", "--collection", "job", "rust"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid collection")
	})
}

func TestCheckpointCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state")

	backend, err := badger.OpenBackend(dbPath, false)
	require.NoError(t, err)
	repo := badger.NewCheckpointRepository(backend)
	require.NoError(t, repo.SaveCheckpoint(context.Background(), &core.Checkpoint{
		Partition: source.Partition,
		Cursor:    12345,
	}))
	require.NoError(t, backend.Close())

	run := func(args ...string) string {
		app := newApp()
		var out bytes.Buffer
		app.Writer = &out
		require.NoError(t, app.Run(append([]string{"hnstream", "checkpoint"}, args...)))
		return out.String()
	}

	out := run("show", "--checkpoint-db", dbPath)
	assert.Contains(t, out, "Cursor: 12345")
	assert.Contains(t, out, source.Partition)

	out = run("reset", "--checkpoint-db", dbPath)
	assert.Contains(t, out, "deleted")

	out = run("show", "--checkpoint-db", dbPath)
	assert.Contains(t, out, "No checkpoint")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

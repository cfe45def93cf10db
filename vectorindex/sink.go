package vectorindex

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/hnstream/core"
)

// Sink writes batches of records to one collection.
// A Sink is shared by all workers of a branch.
type Sink struct {
	index  Index
	logger *slog.Logger

	batches atomic.Int64
	failed  atomic.Int64
	records atomic.Int64
}

// SinkStats is a snapshot of sink counters.
type SinkStats struct {
	Batches int64 // Batches loaded successfully
	Failed  int64 // Batches discarded after a load error
	Records int64 // Records loaded successfully
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithSinkLogger sets a custom logger.
// Default is slog.Default().
func WithSinkLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSink creates a sink writing to index.
func NewSink(index Index, opts ...SinkOption) *Sink {
	s := &Sink{
		index:  index,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sink", "index", index.Schema().Name)
	return s
}

// Index returns the collection the sink writes to.
func (s *Sink) Index() Index {
	return s.index
}

// WriteBatch flattens a batch-of-batches and loads it with a single call.
// Load errors are logged with the batch keys and the batch is discarded.
func (s *Sink) WriteBatch(ctx context.Context, batches [][]core.IndexRecord) {
	var n int
	for _, b := range batches {
		n += len(b)
	}
	if n == 0 {
		return
	}

	flat := make([]core.IndexRecord, 0, n)
	for _, b := range batches {
		flat = append(flat, b...)
	}

	if err := s.index.Load(ctx, flat); err != nil {
		s.failed.Add(1)
		s.logger.Warn("could not upload batch", "records", len(flat), "keys", recordKeys(flat), "err", err)
		return
	}

	s.batches.Add(1)
	s.records.Add(int64(len(flat)))
	s.logger.Debug("batch uploaded", "records", len(flat))
}

// Stats returns the current counters.
func (s *Sink) Stats() SinkStats {
	return SinkStats{
		Batches: s.batches.Load(),
		Failed:  s.failed.Load(),
		Records: s.records.Load(),
	}
}

func recordKeys(records []core.IndexRecord) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.KeyID
	}
	return keys
}

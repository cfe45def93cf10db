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


package hnstream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/ingestion"
	"github.com/poiesic/hnstream/source"
	"github.com/poiesic/hnstream/storage"
	"github.com/poiesic/hnstream/vectorindex"
)

var (
	// ErrPollerRequired is returned when a stream is built without a source.
	ErrPollerRequired = errors.New("poller required")

	// ErrProcessorRequired is returned when a stream is built without a pipeline.
	ErrProcessorRequired = errors.New("batch processor required")

	// ErrCheckpointsRequired is returned when a stream is built without a checkpoint repository.
	ErrCheckpointsRequired = errors.New("checkpoint repository required")
)

// Poller emits the id range of each wake and owns the cursor.
type Poller interface {
	Poll(ctx context.Context, now time.Time) ([]int64, error)
	Checkpoint() core.Cursor
	NextWake() time.Time
}

// BatchProcessor turns the ids of one wake into index records.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, ids []int64) error
}

var (
	_ Poller         = (*source.Source)(nil)
	_ BatchProcessor = (*ingestion.Pipeline)(nil)
)

// Stream drives the source on its wake schedule, processes each wake's ids
// and commits the cursor once the batch is written.
type Stream struct {
	poller      Poller
	processor   BatchProcessor
	checkpoints storage.CheckpointRepository
	stats       *ingestion.Stats
	sinks       []*vectorindex.Sink
	now         func() time.Time
	logger      *slog.Logger
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithClock replaces time.Now as the wake clock.
func WithClock(now func() time.Time) StreamOption {
	return func(s *Stream) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) StreamOption {
	return func(s *Stream) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStats sets the counters logged after each wake.
func WithStats(stats *ingestion.Stats) StreamOption {
	return func(s *Stream) {
		s.stats = stats
	}
}

// WithSinks sets the sinks whose write counters are logged after each wake.
func WithSinks(sinks ...*vectorindex.Sink) StreamOption {
	return func(s *Stream) {
		s.sinks = sinks
	}
}

// NewStream creates a stream runner.
func NewStream(poller Poller, processor BatchProcessor, checkpoints storage.CheckpointRepository, opts ...StreamOption) (*Stream, error) {
	if poller == nil {
		return nil, ErrPollerRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointsRequired
	}

	s := &Stream{
		poller:      poller,
		processor:   processor,
		checkpoints: checkpoints,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "stream")
	return s, nil
}

// Run wakes on the source's schedule until ctx is canceled. A canceled
// context is a clean shutdown and returns nil.
func (s *Stream) Run(ctx context.Context) error {
	s.logger.Info("stream started", "next_wake", s.poller.NextWake())
	for {
		timer := time.NewTimer(max(s.poller.NextWake().Sub(s.now()), 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("stream stopped", "cursor", s.poller.Checkpoint().LastSeenID)
			return nil
		case <-timer.C:
		}

		if err := s.Wake(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("stream stopped", "cursor", s.poller.Checkpoint().LastSeenID)
				return nil
			}
			return err
		}
	}
}

// Wake runs one poll, processes the emitted ids and persists the cursor.
// A failed poll is logged and skipped; the cursor is unchanged and the next
// wake retries the same range.
func (s *Stream) Wake(ctx context.Context) error {
	ids, err := s.poller.Poll(ctx, s.now())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("poll failed, waiting for next wake", "err", err)
		return nil
	}
	if len(ids) == 0 {
		s.logger.Debug("no new items")
		return nil
	}

	start := time.Now()
	if err := s.processor.ProcessBatch(ctx, ids); err != nil {
		return err
	}

	cursor := s.poller.Checkpoint()
	checkpoint := &core.Checkpoint{
		Partition: source.Partition,
		Cursor:    cursor.LastSeenID,
		UpdatedAt: s.now(),
	}
	if err := s.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		s.logger.Error("failed to persist checkpoint", "cursor", cursor.LastSeenID, "err", err)
	}

	attrs := []any{
		"first_id", ids[0],
		"last_id", ids[len(ids)-1],
		"cursor", cursor.LastSeenID,
		"elapsed", time.Since(start),
	}
	if s.stats != nil {
		attrs = append(attrs, s.stats.Snapshot().LogAttrs()...)
	}
	for _, sink := range s.sinks {
		st := sink.Stats()
		name := sink.Index().Schema().Name
		attrs = append(attrs, slog.Group(name, "batches", st.Batches, "failed", st.Failed, "records", st.Records))
	}
	s.logger.Info("wake complete", attrs...)
	return nil
}

// ResumeCursor loads the persisted cursor, or nil when none exists.
func ResumeCursor(ctx context.Context, checkpoints storage.CheckpointRepository) (*core.Cursor, error) {
	checkpoint, err := checkpoints.LoadCheckpoint(ctx, source.Partition)
	if err != nil {
		return nil, err
	}
	if checkpoint == nil {
		return nil, nil
	}
	return &core.Cursor{LastSeenID: checkpoint.Cursor}, nil
}

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


package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/retry"
)

// Partition is the name of the single cursor partition.
const Partition = "singleton"

// MaxItemSource reports the upstream's current largest item id.
type MaxItemSource interface {
	MaxItem(ctx context.Context) (int64, error)
}

// Source emits contiguous id ranges on a fixed schedule.
// A Source is driven by a single goroutine and is not safe for concurrent use.
type Source struct {
	client   MaxItemSource
	interval time.Duration
	maxBatch int64
	cursor   int64
	next     time.Time
	behind   bool
	polledAt time.Time
	logger   *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a source. The cursor starts from resume when it is set, else
// from cfg.InitID, else from the upstream max id queried once now. Failing
// that query is fatal.
func New(ctx context.Context, client MaxItemSource, cfg Config, resume *core.Cursor, now time.Time, opts ...Option) (*Source, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Source{
		client:   client,
		interval: cfg.Interval,
		maxBatch: cfg.MaxBatch,
		next:     FirstWake(now, cfg.AlignTo, cfg.Interval),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "source", "partition", Partition)

	switch {
	case resume != nil && resume.LastSeenID > 0:
		s.cursor = resume.LastSeenID
		s.logger.Info("resuming from checkpoint", "cursor", s.cursor)
	case cfg.InitID > 0:
		s.cursor = cfg.InitID
		s.logger.Info("starting from configured id", "cursor", s.cursor)
	default:
		var high int64
		err := retry.WithBackoff(ctx, func() error {
			var err error
			high, err = client.MaxItem(ctx)
			return err
		}, cfg.StartupAttempts, cfg.StartupDelay)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMaxItemUnavailable, err)
		}
		s.cursor = high
		s.logger.Info("starting from upstream max id", "cursor", s.cursor)
	}

	return s, nil
}

// FirstWake returns the first wake time at or after now. Without alignment
// that is now. With alignment it is the next boundary T + k*interval, and
// now itself when now is on a boundary.
func FirstWake(now, alignTo time.Time, interval time.Duration) time.Time {
	if alignTo.IsZero() || interval <= 0 {
		return now
	}
	rem := now.Sub(alignTo) % interval
	if rem < 0 {
		rem += interval
	}
	if rem == 0 {
		return now
	}
	return now.Add(interval - rem)
}

// Poll runs one wake. It emits the ids in [cursor, high) in ascending order
// and moves the cursor to high. The schedule advances whether or not the
// upstream answered; on failure the cursor is unchanged and
// ErrMaxItemUnavailable is returned.
func (s *Source) Poll(ctx context.Context, now time.Time) ([]int64, error) {
	if !now.Before(s.next) {
		s.next = s.advance(now)
	}
	s.polledAt = now
	s.behind = false

	high, err := s.client.MaxItem(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMaxItemUnavailable, err)
	}

	if high <= s.cursor {
		s.logger.Debug("no new items", "cursor", s.cursor, "max", high)
		return nil, nil
	}

	end := high
	if s.maxBatch > 0 && end-s.cursor > s.maxBatch {
		end = s.cursor + s.maxBatch
		s.behind = true
		s.logger.Info("capping batch", "cursor", s.cursor, "max", high, "emitting", s.maxBatch)
	}

	ids := make([]int64, 0, end-s.cursor)
	for id := s.cursor; id < end; id++ {
		ids = append(ids, id)
	}
	s.cursor = end
	return ids, nil
}

// advance returns the first scheduled wake strictly after now. Wakes missed
// while a batch was processing are coalesced into one.
func (s *Source) advance(now time.Time) time.Time {
	next := s.next.Add(s.interval)
	if !next.After(now) {
		missed := now.Sub(next)/s.interval + 1
		next = next.Add(missed * s.interval)
	}
	return next
}

// Checkpoint returns the current cursor. Ids below it have been emitted.
func (s *Source) Checkpoint() core.Cursor {
	return core.Cursor{LastSeenID: s.cursor}
}

// NextWake returns when Poll should next run. A wake capped by MaxBatch is
// followed by an immediate one until the source has caught up.
func (s *Source) NextWake() time.Time {
	if s.behind {
		return s.polledAt
	}
	return s.next
}

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
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/retry"
)

const (
	// DefaultMaxAttempts bounds fetches of an item that is not ready yet.
	DefaultMaxAttempts = 10

	// DefaultRetryDelay is the fixed wait between fetch attempts.
	DefaultRetryDelay = 500 * time.Millisecond

	// DelayedMarker is the placeholder the upstream puts in text it has not published yet.
	DelayedMarker = "[delayed]"
)

// ItemSource fetches items from the upstream API.
type ItemSource interface {
	Item(ctx context.Context, id int64) (core.Item, error)
}

// Resolver turns ids into items, retrying payloads the upstream is still
// publishing and filtering out items the pipeline cannot use.
// Resolver is safe for concurrent use.
type Resolver struct {
	items       ItemSource
	maxAttempts int
	delay       time.Duration
	stats       *Stats
	logger      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxAttempts sets the total number of fetch attempts per item.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the fixed wait between fetch attempts.
// Default is DefaultRetryDelay.
func WithRetryDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithResolverStats records drops in stats.
func WithResolverStats(stats *Stats) ResolverOption {
	return func(r *Resolver) {
		r.stats = stats
	}
}

// WithResolverLogger sets a custom logger.
// Default is slog.Default().
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver reading from items.
func NewResolver(items ItemSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		items:       items,
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "resolver")
	return r
}

// Resolve fetches an item and keeps it only if it is a live story or comment.
// Every drop is logged and counted.
func (r *Resolver) Resolve(ctx context.Context, id int64) (core.Item, bool) {
	item, reason, ok := r.lookup(ctx, id)
	if !ok {
		if ctx.Err() == nil {
			r.stats.drop(reason)
			r.logger.Warn("dropping item", "id", id, "reason", reason)
		}
		return core.Item{}, false
	}

	switch item.Kind {
	case core.KindStory, core.KindComment:
		r.stats.resolvedItem()
		return item, true
	default:
		r.stats.drop(DropKind)
		r.logger.Debug("dropping item", "id", id, "reason", DropKind, "kind", item.Kind)
		return core.Item{}, false
	}
}

// Lookup fetches an item of any kind, applying the same retry and deletion
// rules as Resolve. It is used to walk parent chains, which may pass through
// polls and jobs.
func (r *Resolver) Lookup(ctx context.Context, id int64) (core.Item, bool) {
	item, reason, ok := r.lookup(ctx, id)
	if !ok {
		r.logger.Debug("lookup failed", "id", id, "reason", reason)
	}
	return item, ok
}

func (r *Resolver) lookup(ctx context.Context, id int64) (core.Item, DropReason, bool) {
	var item core.Item
	attempt := 0
	err := retry.Do(ctx, r.maxAttempts, retry.Fixed(r.delay), func() error {
		attempt++
		got, err := r.items.Item(ctx, id)
		if err != nil {
			r.logger.Debug("error getting payload, trying again", "id", id, "attempt", attempt, "err", err)
			return err
		}
		if err := core.ValidateItem(got); err != nil {
			return retry.Permanent(err)
		}
		if strings.Contains(got.Text, DelayedMarker) {
			r.logger.Debug("text delayed, trying again", "id", id, "attempt", attempt)
			return ErrDelayed
		}
		item = got
		return nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			r.logger.Debug("giving up on item", "id", id, "attempts", attempt, "err", err)
		}
		return core.Item{}, DropUnavailable, false
	}
	if item.Deleted {
		return core.Item{}, DropDeleted, false
	}
	return item, 0, true
}

package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/hnstream/ai"
	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/textprep"
	"github.com/poiesic/hnstream/vectorindex"
)

// Searcher runs nearest-neighbour queries over the vector index collections.
type Searcher struct {
	embedder      ai.Embedder
	indexes       map[core.Kind]vectorindex.Index
	verbatimBoost float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithVerbatimBoost adds boost to the score of hits containing every query word.
// Default is 0 (scores are pure cosine similarity).
func WithVerbatimBoost(boost float32) Option {
	return func(s *Searcher) error {
		if boost < 0 {
			return fmt.Errorf("verbatim boost must not be negative: %v", boost)
		}
		s.verbatimBoost = boost
		return nil
	}
}

// NewSearcher creates a searcher over the given collections, one per kind.
func NewSearcher(embedder ai.Embedder, indexes []vectorindex.Index, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(indexes) == 0 {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		embedder: embedder,
		indexes:  make(map[core.Kind]vectorindex.Index, len(indexes)),
		logger:   slog.Default(),
	}
	for _, idx := range indexes {
		if idx == nil {
			return nil, ErrIndexRequired
		}
		s.indexes[idx.Schema().Kind] = idx
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to limit hits from the collection for kind, best first.
func (s *Searcher) Search(ctx context.Context, collection core.Kind, query string, limit int) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, collection, query, limit, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, collection core.Kind, query string, limit int, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	idx, ok := s.indexes[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	monitor.Start(collection, query)

	cleaned := textprep.Clean(textprep.StripMarkup(query))
	if cleaned == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := s.embedder.EmbedText(ctx, cleaned)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	embedding = vectorindex.NormalizeVector(embedding)
	monitor.AfterEmbedding(len(embedding))

	results, err := idx.Search(ctx, embedding, limit)
	if err != nil {
		s.logger.Error("error querying for similar records", "index", idx.Schema().Name, "err", err)
		return nil, err
	}
	monitor.AfterNearestNeighbours(results)

	if s.verbatimBoost > 0 {
		for i := range results {
			if containsAllQueryWords(results[i].Record.Text, cleaned) {
				results[i].Score += s.verbatimBoost
				monitor.VerbatimHit(results[i].Record)
			}
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	monitor.Finish(results)

	return results, nil
}

package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/hnstream/core"
)

// DefaultMaxDepth bounds a single ancestor walk.
const DefaultMaxDepth = 10000

// ItemLookup resolves an item of any kind by id.
type ItemLookup interface {
	Lookup(ctx context.Context, id int64) (core.Item, bool)
}

// AncestorResolver attaches each comment to the root of its thread.
type AncestorResolver struct {
	items    ItemLookup
	maxDepth int
	logger   *slog.Logger
}

// NewAncestorResolver creates a resolver that walks at most maxDepth parents.
// A non-positive maxDepth uses DefaultMaxDepth.
func NewAncestorResolver(items ItemLookup, maxDepth int, logger *slog.Logger) *AncestorResolver {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AncestorResolver{
		items:    items,
		maxDepth: maxDepth,
		logger:   logger.With("component", "ancestors"),
	}
}

// ResolveRoot follows parent links from comment until it reaches an item
// without a parent. If a parent cannot be resolved, repeats an id already on
// the walk, or the depth bound is hit, the walk stops at the last ancestor
// that did resolve. RootID is the comment's own id when none resolved.
func (a *AncestorResolver) ResolveRoot(ctx context.Context, comment core.Item) core.Comment {
	rootID := comment.ID
	visited := map[int64]struct{}{comment.ID: {}}
	current := comment

	for depth := 0; current.HasParent(); depth++ {
		if depth >= a.maxDepth {
			a.logger.Warn("ancestor walk hit depth bound", "id", comment.ID, "depth", depth, "root_id", rootID)
			break
		}
		parentID := *current.Parent
		if _, seen := visited[parentID]; seen {
			a.logger.Warn("cycle in parent chain", "id", comment.ID, "repeated", parentID, "root_id", rootID)
			break
		}
		visited[parentID] = struct{}{}

		parent, ok := a.items.Lookup(ctx, parentID)
		if !ok {
			a.logger.Warn("could not resolve ancestor", "id", comment.ID, "parent", parentID, "root_id", rootID)
			break
		}
		rootID = parent.ID
		current = parent
	}

	return core.Comment{Item: comment, RootID: rootID}
}

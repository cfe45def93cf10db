package vectorindex

import (
	"context"
	"fmt"

	"github.com/poiesic/hnstream/core"
)

// Index is one collection of the vector index.
// Implementations must be safe for concurrent use by several sink workers.
type Index interface {
	// Schema returns the collection layout.
	Schema() Schema

	// Exists reports whether the collection has been created.
	Exists(ctx context.Context) (bool, error)

	// Create creates the collection. With overwrite, an existing collection
	// is dropped first; without it, an existing collection yields ErrIndexExists.
	Create(ctx context.Context, overwrite bool) error

	// Load upserts records by key in one bulk operation. Either every record is
	// written or none is.
	Load(ctx context.Context, records []core.IndexRecord) error

	// Search returns up to limit records nearest to vector by cosine distance.
	Search(ctx context.Context, vector []float32, limit int) ([]core.SearchResult, error)

	// Close releases the connection.
	Close() error
}

// Open prepares a collection for writing. With overwrite the collection is
// dropped and recreated; otherwise it is created only when missing.
func Open(ctx context.Context, index Index, overwrite bool) error {
	if index == nil {
		return ErrIndexRequired
	}
	name := index.Schema().Name
	if overwrite {
		if err := index.Create(ctx, true); err != nil {
			return fmt.Errorf("recreate %s: %w", name, err)
		}
		return nil
	}

	exists, err := index.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check %s: %w", name, err)
	}
	if exists {
		return nil
	}
	if err := index.Create(ctx, false); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

package storage

import (
	"context"

	"github.com/poiesic/hnstream/core"
)

// CheckpointRepository persists polling cursors across restarts.
// Implementations must be thread-safe and support concurrent access.
type CheckpointRepository interface {
	// SaveCheckpoint persists the checkpoint for its partition.
	// Sets UpdatedAt automatically.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a partition.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, partition string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a partition.
	// Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, partition string) error
}

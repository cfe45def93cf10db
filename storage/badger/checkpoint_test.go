package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCheckpointRepository(t *testing.T) *CheckpointRepository {
	repo, backend, err := NewMemoryCheckpointRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repo
}

func TestCheckpointRepository_LoadMissing(t *testing.T) {
	repo := setupCheckpointRepository(t)

	checkpoint, err := repo.LoadCheckpoint(context.Background(), "singleton")
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestCheckpointRepository_SaveAndLoad(t *testing.T) {
	repo := setupCheckpointRepository(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Partition: "singleton", Cursor: 103}))

	loaded, err := repo.LoadCheckpoint(ctx, "singleton")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "singleton", loaded.Partition)
	assert.Equal(t, int64(103), loaded.Cursor)
	assert.True(t, loaded.UpdatedAt.After(before))
}

func TestCheckpointRepository_Overwrite(t *testing.T) {
	repo := setupCheckpointRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Partition: "singleton", Cursor: 100}))
	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Partition: "singleton", Cursor: 250}))

	loaded, err := repo.LoadCheckpoint(ctx, "singleton")
	require.NoError(t, err)
	assert.Equal(t, int64(250), loaded.Cursor)
}

func TestCheckpointRepository_PartitionsAreIndependent(t *testing.T) {
	repo := setupCheckpointRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Partition: "a", Cursor: 1}))
	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Partition: "b", Cursor: 2}))

	a, err := repo.LoadCheckpoint(ctx, "a")
	require.NoError(t, err)
	b, err := repo.LoadCheckpoint(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Cursor)
	assert.Equal(t, int64(2), b.Cursor)
}

func TestCheckpointRepository_Delete(t *testing.T) {
	repo := setupCheckpointRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Partition: "singleton", Cursor: 9}))
	require.NoError(t, repo.DeleteCheckpoint(ctx, "singleton"))

	loaded, err := repo.LoadCheckpoint(ctx, "singleton")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting again is fine
	require.NoError(t, repo.DeleteCheckpoint(ctx, "singleton"))
}

func TestCheckpointRepository_EmptyPartition(t *testing.T) {
	repo := setupCheckpointRepository(t)
	err := repo.SaveCheckpoint(context.Background(), &core.Checkpoint{Cursor: 1})
	assert.ErrorIs(t, err, storage.ErrEmptyPartition)
}

func TestCheckpointRepository_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, NewCheckpointRepository(backend).SaveCheckpoint(ctx, &core.Checkpoint{Partition: "singleton", Cursor: 77}))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	loaded, err := NewCheckpointRepository(backend).LoadCheckpoint(ctx, "singleton")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(77), loaded.Cursor)
}

func TestCheckpointRepository_Closed(t *testing.T) {
	repo, backend, err := NewMemoryCheckpointRepository()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = repo.LoadCheckpoint(context.Background(), "singleton")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

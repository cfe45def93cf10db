package vectorindex

import (
	"context"
	"math"
	"testing"

	"github.com/poiesic/hnstream/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_LoadBeforeCreate(t *testing.T) {
	idx := NewMemoryIndex(StorySchema(4))
	err := idx.Load(context.Background(), []core.IndexRecord{storyRecord(1, 4)})
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestMemoryIndex_CreateTwice(t *testing.T) {
	idx := setupStoryIndex(t, 4)
	assert.ErrorIs(t, idx.Create(context.Background(), false), ErrIndexExists)
	assert.NoError(t, idx.Create(context.Background(), true))
}

func TestMemoryIndex_Search(t *testing.T) {
	ctx := context.Background()
	idx := setupStoryIndex(t, 4)
	require.NoError(t, idx.Load(ctx, []core.IndexRecord{
		storyRecord(0, 4), storyRecord(1, 4), storyRecord(2, 4),
	}))

	results, err := idx.Search(ctx, []float32{0, 1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].Record.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.0, results[1].Score, 1e-6)
}

func TestMemoryIndex_ReloadDropsStaleChunks(t *testing.T) {
	ctx := context.Background()
	idx := setupStoryIndex(t, 4)

	chunk := func(id int64, n int) core.IndexRecord {
		r := storyRecord(id, 4)
		r.KeyID = core.RecordKey(DefaultPrefix, core.KindStory, id, n)
		return r
	}
	require.NoError(t, idx.Load(ctx, []core.IndexRecord{chunk(1, 0), chunk(1, 1), chunk(1, 2), chunk(2, 0)}))
	require.Equal(t, 4, idx.Len())

	require.NoError(t, idx.Load(ctx, []core.IndexRecord{chunk(1, 0)}))

	var keys []string
	for _, r := range idx.Records() {
		keys = append(keys, r.KeyID)
	}
	assert.ElementsMatch(t, []string{chunk(1, 0).KeyID, chunk(2, 0).KeyID}, keys)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 2.0, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(1), CosineDistance([]float32{1}, []float32{1, 2}))
	assert.Equal(t, float32(1), CosineDistance([]float32{0, 0}, []float32{1, 2}))
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var mag float64
	for _, x := range NormalizeVector([]float32{0.001, 0.002, 0.003}) {
		mag += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-6)

	assert.Equal(t, []float32{0, 0}, NormalizeVector([]float32{0, 0}))
	assert.Empty(t, NormalizeVector(nil))
}

package ingestion

import (
	"context"
	"testing"

	"github.com/poiesic/hnstream/core"
	"github.com/stretchr/testify/assert"
)

func newTestAncestors(items ItemSource, maxDepth int) *AncestorResolver {
	return NewAncestorResolver(newTestResolver(items, nil, 2), maxDepth, nil)
}

func TestAncestorResolver_ChainOfDepthThree(t *testing.T) {
	items := newFakeItems(
		core.Item{ID: 10, Kind: core.KindStory},
		core.Item{ID: 20, Kind: core.KindComment, Parent: ptr(10)},
	)
	comment := core.Item{ID: 30, Kind: core.KindComment, Parent: ptr(20), Text: "hi"}

	got := newTestAncestors(items, 0).ResolveRoot(context.Background(), comment)
	assert.Equal(t, int64(10), got.RootID)
	assert.Equal(t, comment, got.Item, "the original comment is returned")
}

func TestAncestorResolver_DirectReplyToStory(t *testing.T) {
	items := newFakeItems(core.Item{ID: 10, Kind: core.KindStory})
	got := newTestAncestors(items, 0).ResolveRoot(context.Background(),
		core.Item{ID: 11, Kind: core.KindComment, Parent: ptr(10)})
	assert.Equal(t, int64(10), got.RootID)
}

func TestAncestorResolver_PollRoot(t *testing.T) {
	items := newFakeItems(core.Item{ID: 10, Kind: core.KindPoll})
	got := newTestAncestors(items, 0).ResolveRoot(context.Background(),
		core.Item{ID: 11, Kind: core.KindComment, Parent: ptr(10)})
	assert.Equal(t, int64(10), got.RootID)
}

func TestAncestorResolver_CycleTerminates(t *testing.T) {
	items := newFakeItems(
		core.Item{ID: 20, Kind: core.KindComment, Parent: ptr(21)},
		core.Item{ID: 21, Kind: core.KindComment, Parent: ptr(20)},
	)

	got := newTestAncestors(items, 0).ResolveRoot(context.Background(),
		core.Item{ID: 30, Kind: core.KindComment, Parent: ptr(20)})
	assert.Equal(t, int64(21), got.RootID, "last good ancestor before the repeat")
	assert.Equal(t, 1, items.Calls(20))
	assert.Equal(t, 1, items.Calls(21))
}

func TestAncestorResolver_CycleBackToComment(t *testing.T) {
	items := newFakeItems(core.Item{ID: 20, Kind: core.KindComment, Parent: ptr(30)})

	got := newTestAncestors(items, 0).ResolveRoot(context.Background(),
		core.Item{ID: 30, Kind: core.KindComment, Parent: ptr(20)})
	assert.Equal(t, int64(20), got.RootID)
	assert.Equal(t, 0, items.Calls(30), "the comment itself is never fetched")
}

func TestAncestorResolver_UnresolvableParent(t *testing.T) {
	t.Run("falls back to last good ancestor", func(t *testing.T) {
		items := newFakeItems(
			core.Item{ID: 20, Kind: core.KindComment, Parent: ptr(15)},
			core.Item{ID: 15, Kind: core.KindComment, Parent: ptr(10), Deleted: true},
		)
		got := newTestAncestors(items, 0).ResolveRoot(context.Background(),
			core.Item{ID: 30, Kind: core.KindComment, Parent: ptr(20)})
		assert.Equal(t, int64(20), got.RootID)
	})

	t.Run("falls back to own id when nothing resolves", func(t *testing.T) {
		got := newTestAncestors(newFakeItems(), 0).ResolveRoot(context.Background(),
			core.Item{ID: 30, Kind: core.KindComment, Parent: ptr(20)})
		assert.Equal(t, int64(30), got.RootID)
	})
}

func TestAncestorResolver_NoParent(t *testing.T) {
	got := newTestAncestors(newFakeItems(), 0).ResolveRoot(context.Background(),
		core.Item{ID: 30, Kind: core.KindComment})
	assert.Equal(t, int64(30), got.RootID)
}

func TestAncestorResolver_DepthBound(t *testing.T) {
	items := newFakeItems()
	for id := int64(1); id < 50; id++ {
		items.items[id] = core.Item{ID: id, Kind: core.KindComment, Parent: ptr(id + 1)}
	}

	got := newTestAncestors(items, 5).ResolveRoot(context.Background(),
		core.Item{ID: 100, Kind: core.KindComment, Parent: ptr(1)})
	assert.Equal(t, int64(5), got.RootID)
	assert.Equal(t, 0, items.Calls(6))
}

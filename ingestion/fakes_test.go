package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/hn"
	"github.com/poiesic/hnstream/textprep"
)

func ptr(v int64) *int64 { return &v }

// fakeItems serves items from a map. An id listed in empty answers with an
// empty payload for that many calls before returning its item.
type fakeItems struct {
	mu    sync.Mutex
	items map[int64]core.Item
	empty map[int64]int
	errs  map[int64]error
	calls map[int64]int
}

func newFakeItems(items ...core.Item) *fakeItems {
	f := &fakeItems{
		items: make(map[int64]core.Item),
		empty: make(map[int64]int),
		errs:  make(map[int64]error),
		calls: make(map[int64]int),
	}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeItems) Item(ctx context.Context, id int64) (core.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if err, ok := f.errs[id]; ok {
		return core.Item{}, err
	}
	if f.calls[id] <= f.empty[id] {
		return core.Item{}, fmt.Errorf("item %d: %w", id, hn.ErrEmptyPayload)
	}
	item, ok := f.items[id]
	if !ok {
		return core.Item{}, fmt.Errorf("item %d: %w", id, hn.ErrEmptyPayload)
	}
	return item, nil
}

func (f *fakeItems) Calls(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// fakePages returns a canned body per URL; unknown URLs fail.
type fakePages struct {
	mu    sync.Mutex
	pages map[string][]byte
	calls int
}

func (f *fakePages) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return body, nil
}

// fakeText treats story content and comment text as a single chunk.
type fakeText struct{}

func (fakeText) PrepareStory(ctx context.Context, content []byte) ([]string, error) {
	if len(content) == 0 {
		return nil, textprep.ErrNoContent
	}
	return []string{string(content)}, nil
}

func (fakeText) PrepareComment(text string) ([]string, error) {
	if text == "" {
		return nil, textprep.ErrNoText
	}
	return []string{text}, nil
}

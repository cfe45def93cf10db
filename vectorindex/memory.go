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


package vectorindex

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/poiesic/hnstream/core"
)

// MemoryIndex is an in-process Index. It applies the same schema validation
// as the database-backed index and keeps rows keyed by KeyID.
type MemoryIndex struct {
	schema  Schema
	mu      sync.RWMutex
	created bool
	rows    map[string]core.IndexRecord
	closed  bool

	// ExistsFunc, if set, replaces the default Exists behavior.
	ExistsFunc func(ctx context.Context) (bool, error)

	// LoadFunc, if set, replaces the default Load behavior.
	LoadFunc func(ctx context.Context, records []core.IndexRecord) error
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty, not yet created collection.
func NewMemoryIndex(schema Schema) *MemoryIndex {
	return &MemoryIndex{
		schema: schema,
		rows:   make(map[string]core.IndexRecord),
	}
}

// Schema returns the collection layout.
func (m *MemoryIndex) Schema() Schema {
	return m.schema
}

// Exists reports whether Create has been called.
func (m *MemoryIndex) Exists(ctx context.Context) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.created, nil
}

// Create creates the collection, dropping existing rows when overwrite is set.
func (m *MemoryIndex) Create(ctx context.Context, overwrite bool) error {
	if err := m.schema.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.created && !overwrite {
		return ErrIndexExists
	}
	m.rows = make(map[string]core.IndexRecord)
	m.created = true
	return nil
}

// Load validates every record and then upserts them all. Older rows of a
// loaded item that the batch does not rewrite are removed.
func (m *MemoryIndex) Load(ctx context.Context, records []core.IndexRecord) error {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, records)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateRecords(m.schema, records); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.created {
		return ErrIndexNotFound
	}
	for _, item := range KeysByItem(records) {
		keep := make(map[string]struct{}, len(item.Keys))
		for _, k := range item.Keys {
			keep[k] = struct{}{}
		}
		for k, r := range m.rows {
			if _, ok := keep[k]; !ok && r.ID == item.ID {
				delete(m.rows, k)
			}
		}
	}
	for _, r := range records {
		m.rows[r.KeyID] = r
	}
	return nil
}

// Search ranks every row by cosine distance to vector.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return nil, ErrIndexNotFound
	}

	results := make([]core.SearchResult, 0, len(m.rows))
	for _, r := range m.rows {
		results = append(results, core.SearchResult{
			Record: r,
			Score:  1 - CosineDistance(vector, r.Embedding),
		})
	}
	slices.SortFunc(results, func(a, b core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return cmp.Compare(a.Record.KeyID, b.Record.KeyID)
		}
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close marks the index closed.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of every stored row, ordered by key.
func (m *MemoryIndex) Records() []core.IndexRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.IndexRecord, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b core.IndexRecord) int {
		return cmp.Compare(a.KeyID, b.KeyID)
	})
	return out
}

// Len returns the number of stored rows.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

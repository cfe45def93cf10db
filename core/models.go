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


package core

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Kind identifies the upstream item type.
type Kind int

const (
	KindUnknown Kind = iota
	KindStory
	KindComment
	KindJob
	KindPoll
	KindPollOpt
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindStory:   "story",
	KindComment: "comment",
	KindJob:     "job",
	KindPoll:    "poll",
	KindPollOpt: "pollopt",
}

// ParseKind maps an upstream type string to a Kind.
// Unrecognised values map to KindUnknown.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// String returns the upstream type string.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// MarshalJSON encodes the kind as its upstream type string.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes an upstream type string.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}

// Item is a decoded upstream payload. Fields that only apply to some
// kinds are left zero when absent.
type Item struct {
	ID          int64   `json:"id"`
	Kind        Kind    `json:"type"`
	By          string  `json:"by,omitempty"`
	Time        int64   `json:"time,omitempty"`
	Deleted     bool    `json:"deleted,omitempty"`
	Dead        bool    `json:"dead,omitempty"`
	Parent      *int64  `json:"parent,omitempty"`
	Kids        []int64 `json:"kids,omitempty"`
	URL         string  `json:"url,omitempty"`
	Title       string  `json:"title,omitempty"`
	Text        string  `json:"text,omitempty"`
	Score       int64   `json:"score,omitempty"`
	Descendants int64   `json:"descendants,omitempty"`
}

// HasParent reports whether the item links to a parent item.
func (i Item) HasParent() bool {
	return i.Parent != nil
}

// Timestamp returns the item creation time.
func (i Item) Timestamp() time.Time {
	return time.Unix(i.Time, 0).UTC()
}

// Story is a story item enriched through the story chain.
type Story struct {
	Item
	Content    []byte      // Raw webpage content (populated by the fetch stage)
	Chunks     []string    // Prepared text segments (populated by the parse stage)
	Embeddings [][]float32 // One vector per chunk (populated by the embed stage)
}

// Comment is a comment item enriched through the comment chain.
type Comment struct {
	Item
	RootID     int64       // Id of the topmost ancestor reached
	Chunks     []string    // Prepared text segments
	Embeddings [][]float32 // One vector per chunk
}

// IndexRecord is one row written to the vector index. An item with N chunks
// yields N records sharing scalar fields.
type IndexRecord struct {
	KeyID     string
	ID        int64
	By        string
	Time      int64
	Type      string
	Text      string
	Embedding []float32

	// Story fields
	Title       string
	URL         string
	Score       int64
	Descendants int64

	// Comment fields
	Parent int64
	RootID string
}

// Cursor is the polling source's high-water mark.
type Cursor struct {
	LastSeenID int64
}

// Checkpoint is the persisted form of a cursor for one source partition.
type Checkpoint struct {
	Partition string
	Cursor    int64
	UpdatedAt time.Time
}

// SearchResult is a single nearest-neighbour hit from the vector index.
type SearchResult struct {
	Record IndexRecord
	Score  float32
}

// RecordKey returns a deterministic key for one chunk of an item.
// Replaying the same item produces the same keys, which makes writes idempotent upserts.
func RecordKey(prefix string, kind Kind, id int64, chunk int) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(id))
	binary.BigEndian.PutUint64(buf[8:], uint64(chunk))
	h.Write([]byte(kind.String()))
	h.Write(buf[:])
	sum := binary.BigEndian.Uint64(h.Sum(nil))
	return fmt.Sprintf("%s:%s:%016x", prefix, kind, sum)
}

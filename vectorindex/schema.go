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
	"errors"
	"fmt"
	"strconv"

	"github.com/poiesic/hnstream/core"
)

// FieldType identifies how the index treats a field.
type FieldType int

const (
	FieldTag FieldType = iota
	FieldText
	FieldNumeric
	FieldVector
)

func (t FieldType) String() string {
	switch t {
	case FieldTag:
		return "tag"
	case FieldText:
		return "text"
	case FieldNumeric:
		return "numeric"
	case FieldVector:
		return "vector"
	default:
		return "unknown"
	}
}

const (
	StoryIndexName   = "story_index"
	CommentIndexName = "comment_index"
	DefaultPrefix    = "v1"

	KeyField       = "key_id"
	EmbeddingField = "doc_embedding"

	DistanceCosine  = "cosine"
	AlgorithmFlat   = "flat"
	AlgorithmHNSW   = "hnsw"
	DataTypeFloat32 = "FLOAT32"
)

// VectorAttrs holds the parameters of a vector field.
type VectorAttrs struct {
	Dims           int
	DistanceMetric string
	Algorithm      string
	DataType       string
}

// Field is one column of a collection.
type Field struct {
	Name   string
	Type   FieldType
	Vector *VectorAttrs // Set only for FieldVector
}

// Schema describes one collection of the vector index.
type Schema struct {
	Name   string
	Prefix string
	Kind   core.Kind
	Fields []Field
}

func embeddingField(dims int) Field {
	return Field{
		Name: EmbeddingField,
		Type: FieldVector,
		Vector: &VectorAttrs{
			Dims:           dims,
			DistanceMetric: DistanceCosine,
			Algorithm:      AlgorithmFlat,
			DataType:       DataTypeFloat32,
		},
	}
}

// StorySchema returns the story collection layout for vectors of the given size.
func StorySchema(dims int) Schema {
	return Schema{
		Name:   StoryIndexName,
		Prefix: DefaultPrefix,
		Kind:   core.KindStory,
		Fields: []Field{
			{Name: KeyField, Type: FieldTag},
			{Name: "by", Type: FieldText},
			{Name: "descendants", Type: FieldNumeric},
			{Name: "id", Type: FieldNumeric},
			{Name: "score", Type: FieldNumeric},
			{Name: "time", Type: FieldNumeric},
			{Name: "title", Type: FieldText},
			{Name: "type", Type: FieldText},
			{Name: "url", Type: FieldText},
			{Name: "text", Type: FieldText},
			embeddingField(dims),
		},
	}
}

// CommentSchema returns the comment collection layout for vectors of the given size.
func CommentSchema(dims int) Schema {
	return Schema{
		Name:   CommentIndexName,
		Prefix: DefaultPrefix,
		Kind:   core.KindComment,
		Fields: []Field{
			{Name: KeyField, Type: FieldTag},
			{Name: "by", Type: FieldText},
			{Name: "id", Type: FieldNumeric},
			{Name: "parent", Type: FieldNumeric},
			{Name: "time", Type: FieldNumeric},
			{Name: "type", Type: FieldText},
			{Name: "root_id", Type: FieldText},
			{Name: "text", Type: FieldText},
			embeddingField(dims),
		},
	}
}

// SchemaFor returns the collection schema for an item kind.
func SchemaFor(kind core.Kind, dims int) (Schema, error) {
	switch kind {
	case core.KindStory:
		return StorySchema(dims), nil
	case core.KindComment:
		return CommentSchema(dims), nil
	default:
		return Schema{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

// VectorField returns the schema's vector field.
func (s Schema) VectorField() (Field, bool) {
	for _, f := range s.Fields {
		if f.Type == FieldVector && f.Vector != nil {
			return f, true
		}
	}
	return Field{}, false
}

// Dimensions returns the size of the vector field, or 0 if there is none.
func (s Schema) Dimensions() int {
	if f, ok := s.VectorField(); ok {
		return f.Vector.Dims
	}
	return 0
}

// WithAlgorithm returns a copy of the schema using the given vector search algorithm.
func (s Schema) WithAlgorithm(algorithm string) Schema {
	fields := make([]Field, len(s.Fields))
	copy(fields, s.Fields)
	for i, f := range fields {
		if f.Type == FieldVector && f.Vector != nil {
			attrs := *f.Vector
			attrs.Algorithm = algorithm
			fields[i].Vector = &attrs
		}
	}
	s.Fields = fields
	return s
}

// Validate checks that the schema can back a collection.
func (s Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSchema)
	}
	f, ok := s.VectorField()
	if !ok {
		return fmt.Errorf("%w: %s has no vector field", ErrInvalidSchema, s.Name)
	}
	if f.Vector.Dims < 1 {
		return fmt.Errorf("%w: %s vector dimensions must be positive", ErrInvalidSchema, s.Name)
	}
	switch f.Vector.Algorithm {
	case AlgorithmFlat, AlgorithmHNSW:
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidSchema, f.Vector.Algorithm)
	}
	return nil
}

// FieldValue returns the value a record stores under a schema field name.
func FieldValue(r core.IndexRecord, name string) (any, bool) {
	switch name {
	case KeyField:
		return r.KeyID, true
	case "id":
		return r.ID, true
	case "by":
		return r.By, true
	case "time":
		return r.Time, true
	case "type":
		return r.Type, true
	case "text":
		return r.Text, true
	case EmbeddingField:
		return r.Embedding, true
	case "title":
		return r.Title, true
	case "url":
		return r.URL, true
	case "score":
		return r.Score, true
	case "descendants":
		return r.Descendants, true
	case "parent":
		return r.Parent, true
	case "root_id":
		return r.RootID, true
	default:
		return nil, false
	}
}

// ValidateRecords checks every record against the schema. All violations are
// reported together, wrapped in ErrDataError.
func ValidateRecords(s Schema, records []core.IndexRecord) error {
	dims := s.Dimensions()
	var errs []error
	for _, r := range records {
		if err := core.ValidateRecord(r, dims); err != nil {
			errs = append(errs, fmt.Errorf("record %q: %w", r.KeyID, err))
			continue
		}
		if r.Type != s.Kind.String() {
			errs = append(errs, fmt.Errorf("record %q: type %q in %s", r.KeyID, r.Type, s.Name))
			continue
		}
		if s.Kind == core.KindComment {
			if _, err := strconv.ParseInt(r.RootID, 10, 64); err != nil {
				errs = append(errs, fmt.Errorf("record %q: root_id %q is not an item id", r.KeyID, r.RootID))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrDataError, errors.Join(errs...))
	}
	return nil
}

// ItemKeys lists the record keys written for one upstream item.
type ItemKeys struct {
	ID   int64
	Keys []string
}

// KeysByItem groups record keys by item id, in order of first appearance.
func KeysByItem(records []core.IndexRecord) []ItemKeys {
	pos := make(map[int64]int)
	var out []ItemKeys
	for _, r := range records {
		n, ok := pos[r.ID]
		if !ok {
			n = len(out)
			pos[r.ID] = n
			out = append(out, ItemKeys{ID: r.ID})
		}
		out[n].Keys = append(out[n].Keys, r.KeyID)
	}
	return out
}

package vectorindex

import "errors"

var (
	// ErrDataError is returned when a record does not conform to the collection schema.
	// A Load that returns it has persisted nothing.
	ErrDataError = errors.New("record does not match schema")

	// ErrIndexNotFound is returned when operating on a collection that was never created.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexExists is returned by Create when the collection exists and overwrite is false.
	ErrIndexExists = errors.New("index already exists")

	// ErrInvalidSchema is returned when a schema has no vector field or bad dimensions.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnsupportedKind is returned when no collection exists for an item kind.
	ErrUnsupportedKind = errors.New("no collection for item kind")

	// ErrSchemaMismatch is returned when an existing collection was created
	// with a different layout, such as another embedding dimension.
	ErrSchemaMismatch = errors.New("existing index does not match schema")

	// ErrIndexRequired is returned when a nil index is supplied.
	ErrIndexRequired = errors.New("index required")
)

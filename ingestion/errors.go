package ingestion

import "errors"

var (
	// ErrItemSourceRequired is returned when no upstream item source is provided.
	ErrItemSourceRequired = errors.New("item source required")

	// ErrPageFetcherRequired is returned when no webpage fetcher is provided.
	ErrPageFetcherRequired = errors.New("page fetcher required")

	// ErrTextPreparerRequired is returned when no text preparer is provided.
	ErrTextPreparerRequired = errors.New("text preparer required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSinkRequired is returned when a branch has no sink.
	ErrSinkRequired = errors.New("sink required")

	// ErrDelayed is returned while an item's text is still the delayed placeholder.
	ErrDelayed = errors.New("item text delayed")

	// ErrNoChunks is returned when there is nothing to embed.
	ErrNoChunks = errors.New("no chunks to embed")

	// ErrEmbeddingMismatch is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)

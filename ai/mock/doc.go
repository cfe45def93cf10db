// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder satisfies ai.Embedder for unit tests that must run without an
// embedding server. It returns deterministic unit vectors derived from an FNV
// hash of the input, so identical text always embeds identically.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedderWithDims(8)
//	vectors, err := embedder.EmbedTexts(ctx, []string{"a", "b"})
//
//	// Custom behavior injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service unavailable")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
package mock

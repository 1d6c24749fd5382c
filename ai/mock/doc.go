// Package mock provides a test double implementation of ai.Embedder.
//
// The mock lets tests run with controlled, deterministic vectors and observe how
// often the embedder was invoked.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder(16)
//	vec, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	failing := mock.NewMockEmbedder(16).
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return nil, errors.New("boom")
//	    })
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns unit-length vectors seeded from an FNV hash of the text.
// It is safe for concurrent use, so it can stand in for the real embedder inside
// the ingestion worker pool.
package mock

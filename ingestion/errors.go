package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingMismatch is returned when the embedder returns a vector of the wrong length.
	ErrEmbeddingMismatch = errors.New("embedding dimension mismatch")
)

package domain

import "context"

// Embedder converts text into fixed-dimension vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Completer calls a stateless chat completion API. The full conversation must
// be passed on every call.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, temperature float32) (Completion, error)
}

// VectorStore stores chunk embeddings in one named collection.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	Add(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, query string, k int) (RetrievalResult, error)
	Count(ctx context.Context) (int, error)
}

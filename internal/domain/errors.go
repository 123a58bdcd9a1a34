package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConnection indicates the vector store or a provider could not be reached
	ErrConnection = errors.New("connection failed")
	// ErrEmbedding indicates the embedding call failed or returned unusable vectors
	ErrEmbedding = errors.New("embedding failed")
	// ErrModelCall indicates the chat completion call failed
	ErrModelCall = errors.New("model call failed")
	// ErrScrape indicates a web page yielded no usable content
	ErrScrape = errors.New("no content")
	// ErrChunkingDegenerate indicates a chunk exceeds the size bound after all separators
	ErrChunkingDegenerate = errors.New("chunk exceeds size bound")
	// ErrEmptyDocument indicates a document without extractable text
	ErrEmptyDocument = errors.New("document has no text")
	// ErrTurnInProgress indicates a model call is already in flight for the session
	ErrTurnInProgress = errors.New("a turn is already in progress")
)

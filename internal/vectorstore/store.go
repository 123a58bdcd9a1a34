// Package vectorstore persists chunk embeddings and answers similarity
// queries over one named collection.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// Record is one stored vector with the chunk it was computed from.
type Record struct {
	ID     string
	Chunk  domain.Chunk
	Vector []float32
}

// Backend is a vector database. Insert must be all-or-nothing per call and
// Query must return at most k results ordered by cosine similarity.
type Backend interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Insert(ctx context.Context, name string, records []Record) error
	Query(ctx context.Context, name string, vector []float32, k int) (domain.RetrievalResult, error)
	Count(ctx context.Context, name string) (int, error)
	Close() error
}

// Options configures a Store.
type Options struct {
	Collection string
	Dimension  int
	Timeout    time.Duration
	// EnsureOnUse creates the collection on the first Add or Search that
	// finds it not yet ensured, so a store that was down at startup recovers.
	EnsureOnUse bool
}

// Store implements domain.VectorStore on top of an Embedder and a Backend.
type Store struct {
	backend  Backend
	embedder domain.Embedder
	opts     Options
	logger   *zap.Logger

	mu    sync.Mutex
	ready bool
}

// New creates a store. A zero Dimension is taken from the embedder.
func New(backend Backend, embedder domain.Embedder, opts Options, logger *zap.Logger) *Store {
	if opts.Collection == "" {
		opts.Collection = "my_collection"
	}
	if opts.Dimension <= 0 {
		opts.Dimension = embedder.Dimension()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, embedder: embedder, opts: opts, logger: logger}
}

// Collection returns the collection name.
func (s *Store) Collection() string { return s.opts.Collection }

// EnsureCollection creates the collection if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.backend.EnsureCollection(ctx, s.opts.Collection, s.opts.Dimension); err != nil {
		return fmt.Errorf("ensure collection %q: %w", s.opts.Collection, err)
	}
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	return nil
}

func (s *Store) ensureOnUse(ctx context.Context) error {
	if !s.opts.EnsureOnUse {
		return nil
	}
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	if ready {
		return nil
	}
	return s.EnsureCollection(ctx)
}

// Add embeds every chunk and then stores them with a single backend insert,
// so a failed embedding leaves the collection untouched.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureOnUse(ctx); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return embeddingErr(err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		if err := s.checkDimension(vectors[i]); err != nil {
			return err
		}
		records[i] = Record{ID: uuid.NewString(), Chunk: c, Vector: vectors[i]}
	}

	insertCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.backend.Insert(insertCtx, s.opts.Collection, records); err != nil {
		return fmt.Errorf("insert into %q: %w", s.opts.Collection, err)
	}

	s.logger.Info("stored vectors",
		zap.String("collection", s.opts.Collection),
		zap.Int("count", len(records)),
	)
	return nil
}

// Search returns the min(k, N) chunks most similar to query.
func (s *Store) Search(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidRequest, k)
	}
	if err := s.ensureOnUse(ctx); err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, embeddingErr(err)
	}
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	results, err := s.backend.Query(queryCtx, s.opts.Collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", s.opts.Collection, err)
	}
	if results == nil {
		results = domain.RetrievalResult{}
	}
	return results, nil
}

// Count returns the number of stored vectors.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	n, err := s.backend.Count(ctx, s.opts.Collection)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", s.opts.Collection, err)
	}
	return n, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) checkDimension(v []float32) error {
	if len(v) != s.opts.Dimension {
		return fmt.Errorf("%w: vector has dimension %d, collection expects %d",
			domain.ErrEmbedding, len(v), s.opts.Dimension)
	}
	return nil
}

func embeddingErr(err error) error {
	if errors.Is(err, domain.ErrEmbedding) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
}

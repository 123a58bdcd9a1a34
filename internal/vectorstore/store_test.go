package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/llm/llmtest"
	"github.com/liliang-cn/askpdf/internal/repository"
)

const testDim = 256

// backends returns every local Backend so the same behaviour is checked
// against each of them.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	db, err := repository.Open(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	lite, err := NewSQLite(db)
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })

	return map[string]Backend{
		"memory": NewMemory(),
		"sqlite": lite,
	}
}

func newTestStore(t *testing.T, b Backend, e domain.Embedder) *Store {
	t.Helper()
	s := New(b, e, Options{Collection: "test"}, zap.NewNop())
	require.NoError(t, s.EnsureCollection(t.Context()))
	return s
}

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		out[i] = domain.Chunk{Text: text, Source: "doc.pdf", Index: i}
	}
	return out
}

func TestStore_SearchRanksMatchingChunkFirst(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, b, llmtest.NewHashEmbedder(testDim))
			require.NoError(t, s.Add(t.Context(), chunks("The quick", "brown fox")))

			got, err := s.Search(t.Context(), "fox", 1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "brown fox", got[0].Text)
			assert.Equal(t, "doc.pdf", got[0].Source)
			assert.Equal(t, 1, got[0].Index)
			assert.Greater(t, got[0].Score, 0.0)
		})
	}
}

func TestStore_SearchReturnsAllWhenFewerThanK(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, b, llmtest.NewHashEmbedder(testDim))
			require.NoError(t, s.Add(t.Context(), chunks("paris is the capital of france", "berlin")))

			got, err := s.Search(t.Context(), "capital", 5)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "paris is the capital of france", got[0].Text)
			assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
		})
	}
}

func TestStore_SearchEmptyCollection(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, b, llmtest.NewHashEmbedder(testDim))

			got, err := s.Search(t.Context(), "anything", 3)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestStore_AddIsAppendOnly(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, b, llmtest.NewHashEmbedder(testDim))
			doc := chunks("a b", "c d", "e")

			require.NoError(t, s.Add(t.Context(), doc))
			require.NoError(t, s.Add(t.Context(), doc))

			n, err := s.Count(t.Context())
			require.NoError(t, err)
			assert.Equal(t, 6, n)
		})
	}
}

func TestStore_EnsureCollectionIsIdempotent(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, b, llmtest.NewHashEmbedder(testDim))
			require.NoError(t, s.Add(t.Context(), chunks("dogs bark")))

			require.NoError(t, s.EnsureCollection(t.Context()))
			n, err := s.Count(t.Context())
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStore_EnsureCollectionRejectsOtherDimension(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			newTestStore(t, b, llmtest.NewHashEmbedder(testDim))

			other := New(b, llmtest.NewHashEmbedder(8), Options{Collection: "test"}, nil)
			assert.ErrorIs(t, other.EnsureCollection(t.Context()), domain.ErrInvalidRequest)
		})
	}
}

func TestStore_EmbeddingFailureStoresNothing(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			e := llmtest.NewHashEmbedder(testDim)
			s := newTestStore(t, b, e)

			e.Err = errors.New("provider down")
			err := s.Add(t.Context(), chunks("cats meow"))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrEmbedding)
			assert.NotErrorIs(t, err, domain.ErrConnection)

			e.Err = nil
			n, err := s.Count(t.Context())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

type shortEmbedder struct{ *llmtest.HashEmbedder }

func (shortEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 2}, nil
}

func TestStore_SearchRejectsWrongDimension(t *testing.T) {
	s := newTestStore(t, NewMemory(), shortEmbedder{llmtest.NewHashEmbedder(testDim)})

	_, err := s.Search(t.Context(), "fox", 1)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestStore_SearchRejectsNonPositiveK(t *testing.T) {
	s := newTestStore(t, NewMemory(), llmtest.NewHashEmbedder(testDim))

	_, err := s.Search(t.Context(), "fox", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestStore_AddToMissingCollection(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(b, llmtest.NewHashEmbedder(testDim), Options{Collection: "never-created"}, nil)
			assert.ErrorIs(t, s.Add(t.Context(), chunks("fox")), domain.ErrNotFound)
		})
	}
}

// flakyBackend fails EnsureCollection while down is positive.
type flakyBackend struct {
	*Memory
	down    int
	ensures int
}

func (f *flakyBackend) EnsureCollection(ctx context.Context, name string, dim int) error {
	f.ensures++
	if f.down > 0 {
		f.down--
		return fmt.Errorf("%w: refused", domain.ErrConnection)
	}
	return f.Memory.EnsureCollection(ctx, name, dim)
}

func TestStore_EnsureOnUseRecoversAfterOutage(t *testing.T) {
	b := &flakyBackend{Memory: NewMemory(), down: 2}
	s := New(b, llmtest.NewHashEmbedder(testDim), Options{Collection: "lazy", EnsureOnUse: true}, nil)

	assert.ErrorIs(t, s.EnsureCollection(t.Context()), domain.ErrConnection)
	_, err := s.Search(t.Context(), "fox", 1)
	assert.ErrorIs(t, err, domain.ErrConnection)

	require.NoError(t, s.Add(t.Context(), chunks("brown fox")))
	require.NoError(t, s.Add(t.Context(), chunks("cats meow")))
	assert.Equal(t, 3, b.ensures)

	got, err := s.Search(t.Context(), "fox", 1)
	require.NoError(t, err)
	assert.Equal(t, "brown fox", got[0].Text)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, cosine([]float32{1}, []float32{1, 1}))
}

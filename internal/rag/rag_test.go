package rag

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/chunker"
	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/llm/llmtest"
	"github.com/liliang-cn/askpdf/internal/vectorstore"
)

type fixture struct {
	embedder  *llmtest.HashEmbedder
	store     *vectorstore.Store
	pipeline  *Pipeline
	completer *llmtest.Completer
	answerer  *Answerer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	splitter, err := chunker.New(2, 0, nil, chunker.WordCounter{})
	require.NoError(t, err)

	f := &fixture{
		embedder:  llmtest.NewHashEmbedder(256),
		completer: &llmtest.Completer{Text: "I don't know.", Cost: 0.001},
	}
	f.store = vectorstore.New(vectorstore.NewMemory(), f.embedder, vectorstore.Options{Collection: "my_collection"}, zap.NewNop())
	require.NoError(t, f.store.EnsureCollection(t.Context()))
	f.pipeline = NewPipeline(splitter, f.store, zap.NewNop())
	f.answerer = NewAnswerer(f.store, f.completer, 0, 0, zap.NewNop())
	return f
}

func TestIngest_StoresEveryChunk(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Ingest(t.Context(), domain.Document{Text: "The quick brown fox", Source: "fox.txt"})
	require.NoError(t, err)
	assert.Equal(t, domain.IngestResult{Source: "fox.txt", ChunkCount: 2}, res)

	got, err := f.store.Search(t.Context(), "fox", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "brown fox", got[0].Text)
}

func TestIngest_SameDocumentTwiceDoublesCount(t *testing.T) {
	f := newFixture(t)
	doc := domain.Document{Text: "The quick brown fox", Source: "fox.txt"}

	_, err := f.pipeline.Ingest(t.Context(), doc)
	require.NoError(t, err)
	_, err = f.pipeline.Ingest(t.Context(), doc)
	require.NoError(t, err)

	n, err := f.store.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestIngest_EmptyDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Ingest(t.Context(), domain.Document{Text: "  \n ", Source: "blank.pdf"})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Zero(t, f.embedder.Calls())
}

func TestIngest_EmbeddingFailureLeavesStoreEmpty(t *testing.T) {
	f := newFixture(t)
	f.embedder.Err = errors.New("rate limited")

	_, err := f.pipeline.Ingest(t.Context(), domain.Document{Text: "The quick brown fox", Source: "fox.txt"})
	require.ErrorIs(t, err, domain.ErrEmbedding)

	f.embedder.Err = nil
	n, err := f.store.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAnswer_EmptyStoreStillAsksModel(t *testing.T) {
	f := newFixture(t)

	res, err := f.answerer.Answer(t.Context(), "What is the capital?", 3)
	require.NoError(t, err)
	assert.Empty(t, res.Sources)
	assert.Equal(t, "I don't know.", res.Answer)
	assert.InDelta(t, 0.001, res.Cost, 1e-12)

	call := f.completer.LastCall()
	require.Len(t, call, 2)
	assert.Equal(t, domain.RoleSystem, call[0].Role)
	assert.True(t, strings.HasSuffix(call[0].Content, "----------------\n"))
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "What is the capital?"}, call[1])
}

func TestAnswer_StuffsContextByRank(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.Ingest(t.Context(), domain.Document{Text: "The quick brown fox", Source: "fox.txt"})
	require.NoError(t, err)

	res, err := f.answerer.Answer(t.Context(), "fox", 0)
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "brown fox", res.Sources[0].Text)

	want := BuildMessages([]string{"brown fox", "The quick"}, "fox")
	assert.Equal(t, want, f.completer.LastCall())
	assert.Equal(t, []float32{0}, f.completer.Temperatures())
}

func TestAnswer_ModelFailure(t *testing.T) {
	f := newFixture(t)
	f.completer.Err = domain.ErrModelCall

	_, err := f.answerer.Answer(t.Context(), "fox", 1)
	assert.ErrorIs(t, err, domain.ErrModelCall)
}

func TestAnswer_RejectsBlankQuery(t *testing.T) {
	f := newFixture(t)

	_, err := f.answerer.Answer(t.Context(), "  ", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, f.completer.Calls())
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages([]string{"first", "second"}, "why?")
	require.Len(t, msgs, 2)

	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "Use the following pieces of context to answer the user's question."))
	assert.True(t, strings.HasSuffix(msgs[0].Content, "----------------\nfirst\n\nsecond"))
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "why?"}, msgs[1])
}

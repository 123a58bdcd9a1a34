// Package rag ties chunking, the vector store and the completion model
// together: documents go in through a Pipeline, questions are answered by an
// Answerer.
package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// Chunker splits a document into ordered chunks.
type Chunker interface {
	Chunk(doc domain.Document) ([]domain.Chunk, error)
}

// Pipeline ingests documents into a vector store.
type Pipeline struct {
	chunker Chunker
	store   domain.VectorStore
	logger  *zap.Logger
}

func NewPipeline(chunker Chunker, store domain.VectorStore, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{chunker: chunker, store: store, logger: logger}
}

// Ingest chunks doc and stores every chunk in one batch. Ingesting the same
// document twice stores its chunks twice.
func (p *Pipeline) Ingest(ctx context.Context, doc domain.Document) (domain.IngestResult, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return domain.IngestResult{}, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, doc.Source)
	}

	chunks, err := p.chunker.Chunk(doc)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("chunk %s: %w", doc.Source, err)
	}
	if len(chunks) == 0 {
		return domain.IngestResult{}, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, doc.Source)
	}

	if err := p.store.Add(ctx, chunks); err != nil {
		return domain.IngestResult{}, fmt.Errorf("store %s: %w", doc.Source, err)
	}

	p.logger.Info("document ingested",
		zap.String("source", doc.Source),
		zap.Int("chunks", len(chunks)),
	)
	return domain.IngestResult{Source: doc.Source, ChunkCount: len(chunks)}, nil
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/chunker"
	"github.com/liliang-cn/askpdf/internal/config"
	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/llm"
	"github.com/liliang-cn/askpdf/internal/rag"
	"github.com/liliang-cn/askpdf/internal/repository"
	"github.com/liliang-cn/askpdf/internal/source"
	"github.com/liliang-cn/askpdf/internal/vectorstore"
)

// OrchestratorService owns the provider client, splitter and vector store
// and hands the assembled pipeline and answerer to the other services.
type OrchestratorService struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *vectorstore.Store
	pipeline *rag.Pipeline
	answerer *rag.Answerer
	scraper  *source.Scraper
}

// NewLLMClient builds the provider client. Chat needs nothing else, so it
// is created apart from the vector store.
func NewLLMClient(cfg *config.Config, logger *zap.Logger) *llm.Client {
	return llm.NewClient(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Dimension:      cfg.VectorStore.Dimension,
		Timeout:        cfg.LLM.Timeout,
		MaxRetries:     cfg.LLM.MaxRetries,
		BatchSize:      cfg.LLM.BatchSize,
	}, logger.Named("llm"))
}

// NewOrchestratorService builds the RAG components around client. db is
// shared with the sqlite vector backend unless vector_store.path names
// another file. An unreachable vector store does not fail construction; the
// collection is created on first use instead.
func NewOrchestratorService(ctx context.Context, cfg *config.Config, client *llm.Client, db *repository.DB, logger *zap.Logger) (*OrchestratorService, error) {
	backend, err := openBackend(cfg, db)
	if err != nil {
		return nil, err
	}

	o, err := NewOrchestratorWith(cfg, client, client, backend, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}
	_ = o.Prepare(ctx)

	logger.Info("Orchestrator ready",
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("collection", cfg.VectorStore.Collection),
		zap.String("model", client.Model()),
	)
	return o, nil
}

// Prepare creates the collection now rather than on first use. A failure is
// logged and returned; the store keeps trying on later calls.
func (s *OrchestratorService) Prepare(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx); err != nil {
		s.logger.Warn("Vector store not ready, collection will be created on first use",
			zap.String("collection", s.store.Collection()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// NewOrchestratorWith assembles the services around the given providers and
// backend. It does not touch the network.
func NewOrchestratorWith(
	cfg *config.Config,
	embedder domain.Embedder,
	completer domain.Completer,
	backend vectorstore.Backend,
	logger *zap.Logger,
) (*OrchestratorService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	counter, err := chunker.NewCounter(cfg.Chunker.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	splitter, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap, cfg.Chunker.Separators, counter)
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}

	store := vectorstore.New(backend, embedder, vectorstore.Options{
		Collection:  cfg.VectorStore.Collection,
		Dimension:   cfg.VectorStore.Dimension,
		Timeout:     cfg.VectorStore.Timeout,
		EnsureOnUse: true,
	}, logger.Named("vectorstore"))

	return &OrchestratorService{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pipeline: rag.NewPipeline(splitter, store, logger.Named("ingest")),
		answerer: rag.NewAnswerer(store, completer, cfg.RAG.Temperature, cfg.RAG.K, logger.Named("rag")),
		scraper:  source.NewScraper(cfg.Browse.Timeout, cfg.Browse.Selector),
	}, nil
}

func openBackend(cfg *config.Config, db *repository.DB) (vectorstore.Backend, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "qdrant":
		return vectorstore.NewQdrant(vectorstore.QdrantConfig{
			Host:   vs.Qdrant.Host,
			Port:   vs.Qdrant.Port,
			APIKey: vs.Qdrant.APIKey,
			UseTLS: vs.Qdrant.UseTLS,
		})
	case "sqlite":
		if vs.Path == "" || vs.Path == cfg.Database.Path {
			if db == nil {
				return nil, fmt.Errorf("sqlite vector store needs vector_store.path or a database")
			}
			return vectorstore.NewSQLite(db.DB)
		}
		vdb, err := repository.Open(vs.Path)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewSQLite(vdb)
	case "memory":
		return vectorstore.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown vector store type %q", vs.Type)
}

// Store returns the vector store
func (s *OrchestratorService) Store() *vectorstore.Store { return s.store }

// Pipeline returns the ingestion pipeline
func (s *OrchestratorService) Pipeline() *rag.Pipeline { return s.pipeline }

// Answerer returns the question answerer
func (s *OrchestratorService) Answerer() *rag.Answerer { return s.answerer }

// Scraper returns the web page scraper
func (s *OrchestratorService) Scraper() *source.Scraper { return s.scraper }

// Close closes the underlying stores
func (s *OrchestratorService) Close() error {
	return s.store.Close()
}

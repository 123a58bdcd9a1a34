package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/config"
	"github.com/liliang-cn/askpdf/internal/llm"
	"github.com/liliang-cn/askpdf/internal/repository"
	"github.com/liliang-cn/askpdf/internal/service"
	"github.com/liliang-cn/askpdf/internal/source"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "askpdf",
		Short: "Ask questions about PDFs and web pages",
		Long: "AskPDF splits documents into chunks, stores their embeddings in a vector " +
			"database and answers questions with a chat model grounded on the closest chunks.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(createServeCommand())
	rootCmd.AddCommand(createIngestCommand())
	rootCmd.AddCommand(createAskCommand())
	rootCmd.AddCommand(createBrowseCommand())
	rootCmd.AddCommand(createChatCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is what every subcommand needs: configuration, a logger and the model
// client. The database and the RAG components are opened only by the
// commands that use them.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	llm    *llm.Client

	db           *repository.DB
	orchestrator *service.OrchestratorService
}

func newApp(quiet bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := zap.NewNop()
	if !quiet {
		logger, err = newLogger(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	return &app{cfg: cfg, logger: logger, llm: service.NewLLMClient(cfg, logger)}, nil
}

func (a *app) openDB() error {
	if a.db != nil {
		return nil
	}
	db, err := repository.NewDB(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db
	return nil
}

// openRAG builds the splitter, vector store, pipeline and answerer.
func (a *app) openRAG(ctx context.Context) error {
	if a.orchestrator != nil {
		return nil
	}
	if err := a.openDB(); err != nil {
		return err
	}
	orchestrator, err := service.NewOrchestratorService(ctx, a.cfg, a.llm, a.db, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}
	a.orchestrator = orchestrator
	return nil
}

func (a *app) close() {
	if a.orchestrator != nil {
		if err := a.orchestrator.Close(); err != nil {
			a.logger.Warn("Failed to close vector store", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) ingestService() *service.IngestService {
	return service.NewIngestService(
		a.orchestrator.Pipeline(),
		a.orchestrator.Scraper(),
		a.cfg.Server.MaxUploadMB<<20,
		a.logger.Named("ingest"),
	)
}

func (a *app) browseService() *service.BrowseService {
	return service.NewBrowseService(
		source.NewScraper(a.cfg.Browse.Timeout, a.cfg.Browse.Selector),
		a.llm,
		a.cfg.Browse.ContentChars,
		a.cfg.Browse.SummaryChars,
		a.cfg.Browse.Temperature,
		a.logger.Named("browse"),
	)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	return zc.Build()
}

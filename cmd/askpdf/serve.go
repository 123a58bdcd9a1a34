package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/api"
	"github.com/liliang-cn/askpdf/internal/repository"
	"github.com/liliang-cn/askpdf/internal/service"
)

func createServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			srv, err := newServer(cmd.Context(), a)
			if err != nil {
				return err
			}
			return serve(srv, a.logger)
		},
	}
}

// newServer opens the database and the RAG components and mounts the API.
// Chat only needs the model client, so it keeps working while the vector
// store is down.
func newServer(ctx context.Context, a *app) (*http.Server, error) {
	if err := a.openRAG(ctx); err != nil {
		return nil, err
	}
	cfg, logger := a.cfg, a.logger
	sessionRepo := repository.NewSessionRepository(a.db)

	services := api.Services{
		Admin:  service.NewAdminService(a.orchestrator.Store(), sessionRepo, logger.Named("admin")),
		Ingest: a.ingestService(),
		QA:     service.NewQAService(a.orchestrator.Answerer()),
		Chat: service.NewChatService(
			sessionRepo,
			a.llm,
			cfg.Chat.SystemPrompt,
			cfg.Chat.Temperature,
			logger.Named("chat"),
		),
		Browse: a.browseService(),
	}

	router := api.SetupRouter(services, api.RouterConfig{
		APIKey:         cfg.Admin.APIKey,
		AllowOrigins:   cfg.Server.AllowOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}, logger.Named("http"))

	return &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}, nil
}

func serve(srv *http.Server, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting AskPDF server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Error("Failed to start server", zap.Error(err))
			return err
		}
	case <-quit:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}

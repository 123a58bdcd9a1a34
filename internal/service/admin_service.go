package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/repository"
	"github.com/liliang-cn/askpdf/internal/vectorstore"
)

// AdminService handles admin operations
type AdminService struct {
	store       *vectorstore.Store
	sessionRepo *repository.SessionRepository
	logger      *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store *vectorstore.Store, sessionRepo *repository.SessionRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{store: store, sessionRepo: sessionRepo, logger: logger}
}

// GetStats reports what is stored. A component that cannot be counted is
// reported as zero.
func (s *AdminService) GetStats(ctx context.Context) (*domain.Stats, error) {
	vectors, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("Failed to count vectors", zap.Error(err))
	}
	sessions, err := s.sessionRepo.CountSessions(ctx)
	if err != nil {
		s.logger.Warn("Failed to count sessions", zap.Error(err))
	}
	chats, err := s.sessionRepo.CountChats(ctx)
	if err != nil {
		s.logger.Warn("Failed to count chats", zap.Error(err))
	}

	return &domain.Stats{
		Collection:    s.store.Collection(),
		TotalVectors:  vectors,
		TotalSessions: sessions,
		TotalChats:    chats,
	}, nil
}

// Health checks that the vector store answers
func (s *AdminService) Health(ctx context.Context) error {
	_, err := s.store.Count(ctx)
	return err
}

package service

import (
	"context"

	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/rag"
)

// QAService answers questions about the ingested documents
type QAService struct {
	answerer *rag.Answerer
}

// NewQAService creates a new question answering service
func NewQAService(answerer *rag.Answerer) *QAService {
	return &QAService{answerer: answerer}
}

// Ask answers req.Query from the req.K most similar chunks
func (s *QAService) Ask(ctx context.Context, req *domain.AskRequest) (*domain.AnswerResult, error) {
	res, err := s.answerer.Answer(ctx, req.Query, req.K)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

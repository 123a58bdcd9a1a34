package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/chat"
	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/repository"
)

// ChatService keeps live chat sessions and persists every completed turn
type ChatService struct {
	sessionRepo  *repository.SessionRepository
	completer    domain.Completer
	systemPrompt string
	temperature  float32
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*chat.Session
}

// NewChatService creates a new chat service
func NewChatService(
	sessionRepo *repository.SessionRepository,
	completer domain.Completer,
	systemPrompt string,
	temperature float32,
	logger *zap.Logger,
) *ChatService {
	if systemPrompt == "" {
		systemPrompt = chat.DefaultSystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		sessionRepo:  sessionRepo,
		completer:    completer,
		systemPrompt: systemPrompt,
		temperature:  temperature,
		logger:       logger,
		sessions:     make(map[string]*chat.Session),
	}
}

// CreateSession opens a new conversation
func (s *ChatService) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.SessionView, error) {
	prompt := s.systemPrompt
	if req != nil && req.SystemPrompt != "" {
		prompt = req.SystemPrompt
	}

	record := &domain.Session{ID: uuid.New().String(), SystemPrompt: prompt}
	if err := s.sessionRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.AppendMessages(ctx, record.ID, &domain.Message{
		Role:    domain.RoleSystem,
		Content: prompt,
	}); err != nil {
		return nil, err
	}

	session := chat.NewSession(record.ID, prompt)
	s.mu.Lock()
	s.sessions[record.ID] = session
	s.mu.Unlock()

	return view(session), nil
}

// GetSession returns the history and cost log of a session
func (s *ChatService) GetSession(ctx context.Context, id string) (*domain.SessionView, error) {
	session, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(session), nil
}

// Chat sends one user message and returns the model's reply
func (s *ChatService) Chat(ctx context.Context, id string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	session, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}

	// the turn is written while the session is still busy, so a concurrent
	// Reset cannot be overtaken by a stale write. The in-memory session stays
	// authoritative if the write fails.
	completion, err := session.SendWith(ctx, s.completer, s.temperature, req.Message, func(c domain.Completion) {
		if err := s.sessionRepo.AppendMessages(ctx, id,
			&domain.Message{Role: domain.RoleUser, Content: req.Message},
			&domain.Message{Role: domain.RoleAssistant, Content: c.Text, Cost: c.Cost},
		); err != nil {
			s.logger.Error("Failed to persist chat turn", zap.String("session_id", id), zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		SessionID: id,
		Answer:    completion.Text,
		Cost:      completion.Cost,
		TotalCost: session.TotalCost(),
	}, nil
}

// Reset clears a conversation back to its system message
func (s *ChatService) Reset(ctx context.Context, id string) (*domain.SessionView, error) {
	session, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.Reset(); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Reset(ctx, id, &domain.Message{
		Role:    domain.RoleSystem,
		Content: session.SystemPrompt(),
	}); err != nil {
		return nil, err
	}
	return view(session), nil
}

// session returns the live session, restoring it from the database on a miss
func (s *ChatService) session(ctx context.Context, id string) (*chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		return session, nil
	}

	record, err := s.sessionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stored, err := s.sessionRepo.Messages(ctx, id)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, 0, len(stored))
	var costs []float64
	for _, m := range stored {
		messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
		if m.Role == domain.RoleAssistant {
			costs = append(costs, m.Cost)
		}
	}

	session := chat.Restore(record.ID, record.SystemPrompt, messages, costs)
	s.sessions[id] = session
	return session, nil
}

func view(session *chat.Session) *domain.SessionView {
	costs := session.Costs()
	if costs == nil {
		costs = []float64{}
	}
	return &domain.SessionView{
		SessionID: session.ID(),
		Messages:  session.History(),
		Costs:     costs,
		TotalCost: session.TotalCost(),
	}
}

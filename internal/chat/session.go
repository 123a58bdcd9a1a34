// Package chat holds multi-turn conversations with a stateless completion
// model: every call is sent the whole history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// DefaultSystemPrompt opens every new conversation unless configured otherwise.
const DefaultSystemPrompt = "You are a helpful assistant."

// State is the turn state of a session.
type State int

const (
	Idle State = iota
	AwaitingModel
	ErrorReported
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingModel:
		return "awaiting_model"
	case ErrorReported:
		return "error_reported"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session is one conversation. The history always starts with the system
// message and only shrinks on Reset or when a turn fails.
type Session struct {
	id           string
	systemPrompt string

	// mu guards the fields below and is never held across a model call.
	mu       sync.Mutex
	messages []domain.ChatMessage
	costs    []float64
	state    State
}

// NewSession starts a conversation with a single system message.
func NewSession(id, systemPrompt string) *Session {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Session{
		id:           id,
		systemPrompt: systemPrompt,
		messages:     []domain.ChatMessage{{Role: domain.RoleSystem, Content: systemPrompt}},
	}
}

// Restore rebuilds a session from persisted history. A history that does not
// start with a system message gets one prepended.
func Restore(id, systemPrompt string, messages []domain.ChatMessage, costs []float64) *Session {
	s := NewSession(id, systemPrompt)
	if len(messages) > 0 && messages[0].Role == domain.RoleSystem {
		s.messages = s.messages[:0]
	}
	s.messages = append(s.messages, messages...)
	s.costs = append(s.costs, costs...)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) SystemPrompt() string { return s.systemPrompt }

// Append adds a message to the history.
func (s *Session) Append(role domain.Role, text string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidRequest, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == AwaitingModel {
		return domain.ErrTurnInProgress
	}
	s.messages = append(s.messages, domain.ChatMessage{Role: role, Content: text})
	return nil
}

// History returns a copy of the messages in order.
func (s *Session) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages...)
}

// Reset drops everything but a fresh system message and clears the cost log.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == AwaitingModel {
		return domain.ErrTurnInProgress
	}
	s.messages = []domain.ChatMessage{{Role: domain.RoleSystem, Content: s.systemPrompt}}
	s.costs = nil
	s.state = Idle
	return nil
}

// RecordCost appends one entry to the cost log.
func (s *Session) RecordCost(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs = append(s.costs, amount)
}

// Costs returns a copy of the cost log.
func (s *Session) Costs() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.costs...)
}

func (s *Session) TotalCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, c := range s.costs {
		total += c
	}
	return total
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send runs one turn: it appends the user text, calls the model with the
// full history and appends the reply and its cost. If the call fails the
// user message is removed again, leaving the session as it was before the
// turn. Only one turn may be in flight at a time.
func (s *Session) Send(ctx context.Context, completer domain.Completer, temperature float32, text string) (domain.Completion, error) {
	return s.SendWith(ctx, completer, temperature, text, nil)
}

// SendWith is Send with a commit step. commit runs after the reply has been
// appended but before the turn ends, so a Reset cannot slip in between the
// reply and whatever commit records.
func (s *Session) SendWith(
	ctx context.Context,
	completer domain.Completer,
	temperature float32,
	text string,
	commit func(domain.Completion),
) (domain.Completion, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Completion{}, fmt.Errorf("%w: message is empty", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	if s.state == AwaitingModel {
		s.mu.Unlock()
		return domain.Completion{}, domain.ErrTurnInProgress
	}
	pending := len(s.messages)
	s.messages = append(s.messages, domain.ChatMessage{Role: domain.RoleUser, Content: text})
	history := append([]domain.ChatMessage(nil), s.messages...)
	s.state = AwaitingModel
	s.mu.Unlock()

	completion, err := completer.Complete(ctx, history, temperature)

	s.mu.Lock()
	if err != nil {
		s.messages = s.messages[:pending]
		s.state = ErrorReported
		s.mu.Unlock()
		if !errors.Is(err, domain.ErrModelCall) {
			err = fmt.Errorf("%w: %w", domain.ErrModelCall, err)
		}
		return domain.Completion{}, err
	}
	s.messages = append(s.messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: completion.Text})
	s.costs = append(s.costs, completion.Cost)
	s.mu.Unlock()

	if commit != nil {
		commit(completion)
	}

	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()
	return completion, nil
}

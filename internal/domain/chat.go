package domain

import "time"

// Role tags a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ChatMessage is one entry of a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completion is the result of a chat completion call
type Completion struct {
	Text             string  `json:"text"`
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	Cost             float64 `json:"cost"`
}

// Session represents a persisted chat session
type Session struct {
	ID           string    `json:"id" db:"id"`
	SystemPrompt string    `json:"system_prompt" db:"system_prompt"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Message represents a persisted chat message
type Message struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Seq       int       `json:"seq" db:"seq"`
	Role      Role      `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Cost      float64   `json:"cost" db:"cost"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// CreateSessionRequest is the request to open a chat session
type CreateSessionRequest struct {
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ChatResponse is the response from a chat message
type ChatResponse struct {
	SessionID string  `json:"session_id"`
	Answer    string  `json:"answer"`
	Cost      float64 `json:"cost"`
	TotalCost float64 `json:"total_cost"`
}

// SessionView is the read model of a chat session
type SessionView struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
	Costs     []float64     `json:"costs"`
	TotalCost float64       `json:"total_cost"`
}

package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/askpdf/internal/chat"
	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/llm/llmtest"
)

func newModel(t *testing.T, completer domain.Completer) Model {
	t.Helper()
	m := New(context.Background(), chat.NewSession("tui", chat.DefaultSystemPrompt), completer, 0)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

// submit types text, presses enter and feeds the model's reply back.
func submit(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.True(t, m.waiting)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "ChatGPT is typing ...")
	assert.Empty(t, m.input.Value())

	reply := m.send(text)()
	next, _ = m.Update(reply)
	return next.(Model)
}

func TestModel_Conversation(t *testing.T) {
	completer := &llmtest.Completer{Text: "Hello there", Cost: 0.0012}
	m := newModel(t, completer)

	m = submit(t, m, "hi")
	assert.False(t, m.waiting)

	history := m.session.History()
	require.Len(t, history, 3)
	assert.Equal(t, domain.RoleUser, history[1].Role)
	assert.Equal(t, "Hello there", history[2].Content)

	view := m.View()
	assert.Contains(t, view, "System message: You are a helpful assistant.")
	assert.Contains(t, view, "合計額: $0.00120")
}

func TestModel_ErrorKeepsHistory(t *testing.T) {
	m := newModel(t, &llmtest.Completer{Err: errors.New("boom")})

	m = submit(t, m, "hi")
	assert.Contains(t, m.status, "Error:")
	assert.Len(t, m.session.History(), 1)
	assert.Equal(t, chat.ErrorReported, m.session.State())
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	m := newModel(t, &llmtest.Completer{Text: "x"})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).waiting)
}

func TestModel_ClearConversation(t *testing.T) {
	m := newModel(t, &llmtest.Completer{Text: "ok", Cost: 0.5})
	m = submit(t, m, "hi")
	require.Len(t, m.session.History(), 3)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = next.(Model)
	assert.Len(t, m.session.History(), 1)
	assert.Equal(t, "Conversation cleared.", m.status)
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t, &llmtest.Completer{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

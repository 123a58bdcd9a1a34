// Package tui is a terminal chat client for a single conversation.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/liliang-cn/askpdf/internal/chat"
	"github.com/liliang-cn/askpdf/internal/domain"
)

// replyMsg carries the outcome of one model call back into Update.
type replyMsg struct {
	completion domain.Completion
	err        error
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx         context.Context
	session     *chat.Session
	completer   domain.Completer
	temperature float32

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	waiting  bool
	status   string
	ready    bool
}

// New creates a chat screen around session.
func New(ctx context.Context, session *chat.Session, completer domain.Completer, temperature float32) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "聞きたいことを入力してね！"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:         ctx,
		session:     session,
		completer:   completer,
		temperature: temperature,
		input:       ti,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		status:      "Enter to send, ctrl+l to clear, ctrl+c to quit.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, hh := historyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		// header, input line, status and footer
		reserved := 1 + 1 + ih + 2
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-hh)
		m.refresh()
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Reply cost $%.5f", msg.completion.Cost)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlL:
			if err := m.session.Reset(); err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = "Conversation cleared."
			}
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.waiting = true
			m.status = ""
			cmd := m.send(text)
			// show the user's message while the model is typing
			m.refreshPending(text)
			return m, tea.Batch(cmd, m.spinner.Tick)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("My First ChatGPT")
	history := historyBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " ChatGPT is typing ..."
	}
	footer := costStyle.Render(fmt.Sprintf("合計額: $%.5f", m.session.TotalCost()))
	return header + "\n" + history + "\n" + input + "\n" + status + "\n" + footer
}

func (m Model) send(text string) tea.Cmd {
	ctx, session, completer, temperature := m.ctx, m.session, m.completer, m.temperature
	return func() tea.Msg {
		completion, err := session.Send(ctx, completer, temperature, text)
		return replyMsg{completion: completion, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderHistory(m.session.History()))
	m.viewport.GotoBottom()
}

func (m *Model) refreshPending(text string) {
	history := append(m.session.History(), domain.ChatMessage{Role: domain.RoleUser, Content: text})
	m.viewport.SetContent(renderHistory(history))
	m.viewport.GotoBottom()
}

func renderHistory(messages []domain.ChatMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("you") + "  " + msg.Content)
		case domain.RoleAssistant:
			b.WriteString(assistantStyle.Render("assistant") + "  " + msg.Content)
		default:
			b.WriteString(systemStyle.Render("System message: " + msg.Content))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	costStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	systemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Package tui implements the interactive chat session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/neuromap/cli/internal/chat"
	"github.com/neuromap/cli/internal/history"
)

type replyMsg struct {
	reply string
	err   error
}

// Model is the bubbletea model for the chat session.
type Model struct {
	ctx    context.Context
	agent  *chat.Agent
	hist   *history.Store
	userID string

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	messages []chat.Message
	waiting  bool
	ready    bool
	err      error
}

// New creates the chat session model, preloading the saved conversation.
func New(ctx context.Context, agent *chat.Agent, hist *history.Store, userID string) (*Model, error) {
	msgs, err := hist.Messages(ctx, userID)
	if err != nil {
		return nil, err
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about your notes... (Enter to send, Esc to quit)"
	ta.Focus()
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:      ctx,
		agent:    agent,
		hist:     hist,
		userID:   userID,
		textarea: ta,
		spinner:  sp,
		messages: msgs,
	}, nil
}

// Run starts the interactive session.
func (m *Model) Run() error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := m.textarea.Height() + 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.waiting {
				return m, m.send()
			}
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.messages = append(m.messages, chat.Message{
				Role:    chat.RoleAssistant,
				Content: msg.reply,
			})
		}
		m.refreshViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// send dispatches the typed message to the agent in the background.
func (m *Model) send() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return nil
	}

	prior := make([]chat.Message, len(m.messages))
	copy(prior, m.messages)

	m.messages = append(m.messages, chat.Message{Role: chat.RoleUser, Content: input})
	m.textarea.Reset()
	m.waiting = true
	m.refreshViewport()
	m.viewport.GotoBottom()

	respond := func() tea.Msg {
		reply, err := m.agent.Respond(m.ctx, input, prior)
		if err != nil {
			return replyMsg{err: err}
		}
		// Persist both turns so the next session replays them.
		if err := m.hist.Append(m.ctx, m.userID, chat.RoleUser, input); err != nil {
			return replyMsg{reply: reply, err: err}
		}
		if err := m.hist.Append(m.ctx, m.userID, chat.RoleAssistant, reply); err != nil {
			return replyMsg{reply: reply, err: err}
		}
		return replyMsg{reply: reply}
	}

	return tea.Batch(respond, m.spinner.Tick)
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, msg := range m.messages {
		label := userLabelStyle.Render("you")
		if msg.Role == chat.RoleAssistant {
			label = assistantLabelStyle.Render("mindchat")
		}
		b.WriteString(fmt.Sprintf("%s  %s\n\n", label, msg.Content))
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Mindchat"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.waiting {
		b.WriteString(m.spinner.View() + " thinking...\n")
	} else if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	} else {
		b.WriteString(m.textarea.View() + "\n")
	}
	b.WriteString(helpStyle.Render("enter: send • esc: quit"))
	return b.String()
}

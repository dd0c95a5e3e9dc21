package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/wwwzy/LifeAgent/internal/assistant"
	"github.com/wwwzy/LifeAgent/internal/ui"
)

// ChatUI 基于 bubbletea 的全屏对话界面。
type ChatUI struct{}

func (u *ChatUI) Run(ctx context.Context, backend ui.ChatBackend, opts ui.ChatOptions) error {
	m := newChatModel(ctx, backend, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// chatEntry 一条已完成的对话记录。
type chatEntry struct {
	role  string // "user" | "assistant" | "error"
	text  string
	steps []assistant.AgentStep
}

type backendResultMsg struct {
	outcome *assistant.Outcome
	err     error
}

type cancelMsg struct{}

var (
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	asstStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	stepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	inputStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

type chatModel struct {
	ctx     context.Context
	backend ui.ChatBackend
	opts    ui.ChatOptions

	entries  []chatEntry
	thinking bool

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
}

func newChatModel(ctx context.Context, backend ui.ChatBackend, opts ui.ChatOptions) chatModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	ti := textinput.New()
	ti.Placeholder = "输入消息，回车发送"
	ti.Prompt = ""
	ti.Focus()

	vp := viewport.New(0, 0)
	vp.SetContent("")

	return chatModel{
		ctx:      ctx,
		backend:  backend,
		opts:     opts,
		viewport: vp,
		input:    ti,
		spinner:  s,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitCancel(m.ctx))
}

func waitCancel(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return cancelMsg{}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case cancelMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		inputHeight := 3
		chatHeight := m.height - inputHeight - 1
		if chatHeight < 1 {
			chatHeight = 1
		}
		m.viewport.Width = m.width
		m.viewport.Height = chatHeight
		m.input.Width = maxInt(10, m.width-6)

		m.resetMarkdownRenderer()
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case backendResultMsg:
		m.thinking = false
		if msg.err != nil {
			m.entries = append(m.entries, chatEntry{role: "error", text: msg.err.Error()})
		} else {
			entry := chatEntry{role: "assistant", text: ui.OutcomeText(msg.outcome)}
			if m.opts.ShowSteps {
				entry.steps = msg.outcome.Steps
			}
			m.entries = append(m.entries, entry)
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.thinking {
				return m, nil
			}
			m.input.SetValue("")
			m.entries = append(m.entries, chatEntry{role: "user", text: line})
			m.thinking = true
			m.refreshViewport()
			m.viewport.GotoBottom()
			return m, tea.Batch(m.spinner.Tick, m.sendCmd(line))
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m chatModel) sendCmd(message string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.backend.Send(m.ctx, message)
		return backendResultMsg{outcome: outcome, err: err}
	}
}

func (m chatModel) View() string {
	status := "Enter 发送 · Esc 退出"
	if m.thinking {
		status = m.spinner.View() + " 思考中…"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		inputStyle.Width(maxInt(10, m.width-2)).Render(m.input.View()),
		stepStyle.Render(status),
	)
}

func (m *chatModel) refreshViewport() {
	var sb strings.Builder
	for i, entry := range m.entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch entry.role {
		case "user":
			sb.WriteString(userStyle.Render("你"))
			sb.WriteString("\n")
			sb.WriteString(entry.text)
			sb.WriteString("\n")
		case "error":
			sb.WriteString(errStyle.Render("出错了: " + entry.text))
			sb.WriteString("\n")
		default:
			sb.WriteString(asstStyle.Render("助手"))
			sb.WriteString("\n")
			sb.WriteString(m.renderMarkdown(entry.text))
			for _, st := range entry.steps {
				sb.WriteString(stepStyle.Render(formatStep(st)))
				sb.WriteString("\n")
			}
		}
	}
	m.viewport.SetContent(sb.String())
}

func formatStep(st assistant.AgentStep) string {
	switch {
	case st.Err != "":
		return fmt.Sprintf("  [%s] %s 失败: %s", st.Agent, st.Action, st.Err)
	case st.Result != nil:
		return fmt.Sprintf("  [%s] %s: %s", st.Agent, st.Action, st.Result.Result)
	case st.Text != "":
		return fmt.Sprintf("  [%s] %s", st.Agent, st.Action)
	}
	return fmt.Sprintf("  [%s] %s", st.Agent, st.Action)
}

func (m *chatModel) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (m *chatModel) resetMarkdownRenderer() {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

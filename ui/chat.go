// Package ui implements the interactive terminal chat
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmichie/greenie/pkg/vision"
)

const (
	inputHeight    = 3
	statusHeight   = 1
	minViewport    = 5
	requestTimeout = 120 * time.Second

	welcome = "Ask about plants, wildlife, habitats or soil. Attach a photo with /image <path>."
	help    = "(enter to send, /image <path> to attach, ctrl+l to clear, ctrl+c to quit)"
)

// Answerer answers one chat message
type Answerer interface {
	Run(ctx context.Context, message string, image *vision.Image) string
}

// ImageLoader reads a photo from disk
type ImageLoader func(path string) (*vision.Image, error)

type answerMsg struct {
	response string
}

type styles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	system    lipgloss.Style
	status    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		system:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

type model struct {
	viewport  viewport.Model
	textarea  textarea.Model
	spinner   spinner.Model
	history   chatHistory
	answerer  Answerer
	loadImage ImageLoader
	ctx       context.Context
	pending   *vision.Image
	loading   bool
	width     int
	height    int
	styles    styles
}

func newModel(ctx context.Context, answerer Answerer, loadImage ImageLoader, width, height int) model {
	ta := textarea.New()
	ta.Placeholder = "Ask about the natural world..."
	ta.ShowLineNumbers = false
	ta.Focus()
	ta.SetHeight(inputHeight)
	ta.SetWidth(width - 2)

	m := model{
		viewport:  viewport.New(width, viewportHeight(height)),
		textarea:  ta,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		answerer:  answerer,
		loadImage: loadImage,
		ctx:       ctx,
		width:     width,
		height:    height,
		styles:    defaultStyles(),
	}
	m.history.addMessage(roleSystem, welcome)
	m.updateViewport()
	return m
}

func viewportHeight(height int) int {
	h := height - inputHeight - statusHeight - 2
	if h < minViewport {
		return minViewport
	}
	return h
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case answerMsg:
		m.loading = false
		m.history.addMessage(roleAssistant, msg.response)
		m.updateViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			return m.submit()
		case tea.KeyUp:
			m.textarea.SetValue(m.history.navigateHistory(-1))
			return m, nil
		case tea.KeyDown:
			m.textarea.SetValue(m.history.navigateHistory(1))
			return m, nil
		case tea.KeyCtrlL:
			m.history.clear()
			m.pending = nil
			m.updateViewport()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight(msg.Height)
		m.textarea.SetWidth(msg.Width - 2)
		m.updateViewport()
		return m, nil
	}

	var tiCmd, vpCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// submit handles the current input line: a /image command attaches a photo,
// anything else is sent with the attached photo, if any.
func (m model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	m.textarea.Reset()
	m.history.addInput(input)

	if input == "/image" || strings.HasPrefix(input, "/image ") {
		m.attach(strings.TrimSpace(strings.TrimPrefix(input, "/image")))
		m.updateViewport()
		return m, nil
	}

	image := m.pending
	m.pending = nil

	content := input
	if image != nil {
		content += fmt.Sprintf("\n[image: %s]", image.Name)
	}
	m.history.addMessage(roleUser, content)
	m.loading = true
	m.updateViewport()

	return m, tea.Batch(m.spinner.Tick, m.ask(input, image))
}

func (m *model) attach(path string) {
	if path == "" {
		m.history.addMessage(roleSystem, "Usage: /image <path>")
		return
	}
	if m.loadImage == nil {
		m.history.addMessage(roleSystem, "Image attachments are not available")
		return
	}

	img, err := m.loadImage(path)
	if err != nil {
		m.history.addMessage(roleSystem, fmt.Sprintf("Could not load image: %v", err))
		return
	}
	m.pending = img
	m.history.addMessage(roleSystem, fmt.Sprintf("Attached %s to your next message", img.Name))
}

// ask runs the pipeline off the UI goroutine
func (m model) ask(message string, image *vision.Image) tea.Cmd {
	ctx, answerer := m.ctx, m.answerer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return answerMsg{response: answerer.Run(ctx, message, image)}
	}
}

func (m *model) updateViewport() {
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 20))

	var b strings.Builder
	for i, msg := range m.history.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.role {
		case roleUser:
			b.WriteString(m.styles.user.Render("You:") + "\n")
		case roleAssistant:
			b.WriteString(m.styles.assistant.Render("Greenie:") + "\n")
		case roleSystem:
			b.WriteString(m.styles.system.Render(wrap.Render(msg.content)) + "\n")
			continue
		}
		b.WriteString(wrap.Render(msg.content) + "\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m model) View() string {
	status := help
	if m.pending != nil {
		status = fmt.Sprintf("[%s attached] %s", m.pending.Name, status)
	}
	if m.loading {
		status = fmt.Sprintf("%s Thinking... %s", m.spinner.View(), status)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s",
		m.viewport.View(),
		m.textarea.View(),
		m.styles.status.Render(status),
	)
}

// StartChat runs the chat until the user quits
func StartChat(ctx context.Context, answerer Answerer, loadImage ImageLoader, width, height int) error {
	p := tea.NewProgram(
		newModel(ctx, answerer, loadImage, width, height),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run chat: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui is a terminal viewer for one rendered result.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/patent-report/internal/clipboard"
	"github.com/pdiddy/patent-report/internal/report"
)

// Options are the export sinks of the viewer.
type Options struct {
	// Clipboard receives the canonical text on "c". Nil uses the system
	// clipboard.
	Clipboard clipboard.Writer

	// SavePDF writes the canonical text as a PDF and returns the path.
	// Nil disables "p".
	SavePDF func(text string) (string, error)
}

type galleryLoadedMsg struct{ key string }

// Model is the Bubble Tea model for the viewer.
type Model struct {
	ctx      context.Context
	session  *report.Session
	text     string
	opts     Options
	viewport viewport.Model
	cursor   int
	status   string
	width    int
	ready    bool
}

// New creates a viewer over the session's current tree. text is the
// canonical report text used by copy and PDF export.
func New(ctx context.Context, session *report.Session, text string, opts Options) Model {
	return Model{
		ctx:      ctx,
		session:  session,
		text:     text,
		opts:     opts,
		viewport: viewport.New(0, 0),
		width:    80,
		status:   helpLine,
	}
}

const helpLine = "↑/↓ select · enter abstract · i images · c copy · p pdf · q quit"

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := frameStyle.GetFrameSize()
		m.width = max(20, msg.Width-4)
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-fh-2)
		m.refresh()
		return m, nil

	case galleryLoadedMsg:
		if g := m.session.Gallery(msg.key); g.Status == report.GalleryFailed {
			m.status = "Images unavailable: " + g.Err.Error()
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		cards := m.session.Tree().Cards
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "down", "j":
			if len(cards) > 0 {
				m.cursor = (m.cursor + 1) % len(cards)
				m.refresh()
			}
			return m, nil
		case "up", "k":
			if len(cards) > 0 {
				m.cursor = (m.cursor - 1 + len(cards)) % len(cards)
				m.refresh()
			}
			return m, nil
		case "enter":
			if key, ok := m.selected(); ok {
				m.session.ToggleAbstract(key)
				m.refresh()
			}
			return m, nil
		case "i":
			key, ok := m.selected()
			if !ok {
				return m, nil
			}
			open, done := m.session.ToggleImages(m.ctx, key)
			m.refresh()
			if !open {
				return m, nil
			}
			return m, waitGallery(done, key)
		case "c":
			if err := clipboard.Copy(m.opts.Clipboard, m.text); err != nil {
				m.status = "Copy failed: " + err.Error()
			} else {
				m.status = "Copied to clipboard"
			}
			return m, nil
		case "p":
			if m.opts.SavePDF == nil {
				m.status = "PDF export not available"
				return m, nil
			}
			path, err := m.opts.SavePDF(m.text)
			if err != nil {
				m.status = "PDF export failed: " + err.Error()
			} else {
				m.status = "Saved " + path
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return frameStyle.Render(m.viewport.View()) + "\n" + statusStyle.Render(m.status)
}

func (m *Model) selected() (string, bool) {
	cards := m.session.Tree().Cards
	if m.cursor < 0 || m.cursor >= len(cards) {
		return "", false
	}
	return cards[m.cursor].Key, true
}

func (m *Model) refresh() {
	m.viewport.SetContent(Render(m.session, m.cursor, m.width))
}

func waitGallery(done <-chan struct{}, key string) tea.Cmd {
	return func() tea.Msg {
		<-done
		return galleryLoadedMsg{key: key}
	}
}

// Run starts the viewer full screen.
func Run(m Model) error {
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}

var (
	frameStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

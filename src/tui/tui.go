// Package tui renders the live node logs in a tabbed terminal view, one tab
// per node. Arrow keys switch tabs, q quits and tears the cluster down.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bakernet/harness/src/cluster"
)

// maxBufferedLines caps the per-node scrollback kept in memory.
const maxBufferedLines = 500

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("#666666"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("#00D4AA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// lineMsg carries one node log line into the bubbletea loop.
type lineMsg cluster.LogLine

// closedMsg is sent when the cluster's line channel closes, meaning every
// node has exited.
type closedMsg struct{}

// Model is the bubbletea model for the log viewer.
type Model struct {
	titles   []string
	buffers  [][]string
	index    int
	viewport viewport.Model
	lines    <-chan cluster.LogLine
	onQuit   func()
	ready    bool
}

// NewModel creates a viewer over the given node titles and line stream.
// onQuit is called once when the operator quits, before the program exits.
func NewModel(titles []string, lines <-chan cluster.LogLine, onQuit func()) Model {
	return Model{
		titles:  titles,
		buffers: make([][]string, len(titles)),
		lines:   lines,
		onQuit:  onQuit,
	}
}

// Init starts listening for node output.
func (m Model) Init() tea.Cmd {
	return waitForLine(m.lines)
}

func waitForLine(lines <-chan cluster.LogLine) tea.Cmd {
	return func() tea.Msg {
		l, ok := <-lines
		if !ok {
			return closedMsg{}
		}
		return lineMsg(l)
	}
}

// Update handles key presses, terminal resizes and incoming log lines.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		case "right", "tab":
			m.index = (m.index + 1) % len(m.titles)
			m.refresh()
		case "left", "shift+tab":
			m.index = (m.index + len(m.titles) - 1) % len(m.titles)
			m.refresh()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		// one line of tabs on top, one line of help at the bottom
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		m.refresh()

	case lineMsg:
		buf := append(m.buffers[msg.Index], msg.Text)
		if len(buf) > maxBufferedLines {
			buf = buf[len(buf)-maxBufferedLines:]
		}
		m.buffers[msg.Index] = buf

		if msg.Index == m.index {
			m.refresh()
		}
		return m, waitForLine(m.lines)

	case closedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.buffers[m.index], "\n"))
	m.viewport.GotoBottom()
}

// View renders the tab bar, the selected node's log tail and a help line.
func (m Model) View() string {
	if !m.ready {
		return "starting nodes..."
	}

	tabs := make([]string, len(m.titles))
	for i, title := range m.titles {
		if i == m.index {
			tabs[i] = activeTabStyle.Render(title)
		} else {
			tabs[i] = tabStyle.Render(title)
		}
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→ switch node • q quit"))
	return b.String()
}

// Run blocks until the operator quits or every node has exited.
func Run(titles []string, lines <-chan cluster.LogLine, onQuit func()) error {
	p := tea.NewProgram(NewModel(titles, lines, onQuit), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

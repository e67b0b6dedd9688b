// Package tui holds the live event view used by midimon.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxRows = 20

// EventMsg is one decoded MIDI event, already formatted as a protocol line.
type EventMsg struct {
	Line    string
	DeltaMS int32
}

// Monitor displays incoming MIDI events as they arrive.
type Monitor struct {
	port     string
	events   <-chan EventMsg
	rows     []string
	count    int
	quitting bool
}

// NewMonitor returns a monitor reading events from the given channel.
func NewMonitor(port string, events <-chan EventMsg) Monitor {
	return Monitor{port: port, events: events}
}

func listenForEvents(events <-chan EventMsg) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return tea.QuitMsg{}
		}
		return ev
	}
}

func (m Monitor) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case EventMsg:
		m.count++
		row := fmt.Sprintf("%6d  %-28s %+6dms", m.count, strings.TrimSuffix(msg.Line, "\n"), msg.DeltaMS)
		m.rows = append(m.rows, row)
		if len(m.rows) > maxRows {
			m.rows = m.rows[len(m.rows)-maxRows:]
		}
		return m, listenForEvents(m.events)
	}

	return m, nil
}

func (m Monitor) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(fmt.Sprintf("midimon  %s  events:%d", m.port, m.count)))
	out.WriteString("\n\n")
	if len(m.rows) == 0 {
		out.WriteString(dimStyle.Render("  waiting for MIDI input..."))
		out.WriteString("\n")
	}
	for _, row := range m.rows {
		out.WriteString("  " + row + "\n")
	}
	out.WriteString("\n")
	out.WriteString(dimStyle.Render("q:quit"))
	out.WriteString("\n")
	return out.String()
}

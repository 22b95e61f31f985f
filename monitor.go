package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// monitorSnap is a copy of the externally visible translator state, pushed
// from the poll loop once per tick. The monitor never touches the voice or
// sink directly.
type monitorSnap struct {
	Note    uint8
	HasNote bool
	Out     OutputState
	Input   string
	Events  uint64
	Drops   uint64
}

type snapMsg monitorSnap

func listenForSnaps(ch <-chan monitorSnap) tea.Cmd {
	return func() tea.Msg {
		return snapMsg(<-ch)
	}
}

// monitorModel renders live voice state. Read-only: the only key handling
// is quitting, which shuts the whole program down.
type monitorModel struct {
	snaps      <-chan monitorSnap
	snap       monitorSnap
	resolution int
	mode       string
	ampSource  string
	channel    int
	quitting   bool
}

func newMonitorModel(cfg Config, snaps <-chan monitorSnap) monitorModel {
	mode := "legato"
	if cfg.MultiTrigger {
		mode = "multi-trigger"
	}
	return monitorModel{
		snaps:      snaps,
		resolution: cfg.Resolution,
		mode:       mode,
		ampSource:  cfg.AmpSource,
		channel:    cfg.Channel,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return listenForSnaps(m.snaps)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case snapMsg:
		m.snap = monitorSnap(msg)
		return m, listenForSnaps(m.snaps)
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	onStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)

	header := headerStyle.Render(fmt.Sprintf("midi2cv  ch %d  %s  %s", m.channel, m.ampSource, m.mode))

	input := m.snap.Input
	if input == "" {
		input = "waiting for input"
	}

	note := "---"
	if m.snap.HasNote {
		note = pitchName(int(m.snap.Note))
	}

	gate := renderLamp("gate", m.snap.Out.Gate, onStyle, dimStyle)
	trig := renderLamp("trig", m.snap.Out.Trigger, onStyle, dimStyle)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(fmt.Sprintf("  input  %s\n\n", input))
	out.WriteString(fmt.Sprintf("  note   %-4s   %s   %s\n\n", note, gate, trig))
	out.WriteString(fmt.Sprintf("  pitch  %s %3d/%d\n", renderBar(m.snap.Out.Pitch, m.resolution), m.snap.Out.Pitch, m.resolution))
	out.WriteString(fmt.Sprintf("  amp    %s %3d/%d\n", renderBar(m.snap.Out.Amp, m.resolution), m.snap.Out.Amp, m.resolution))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(fmt.Sprintf("  events %d   dropped bytes %d", m.snap.Events, m.snap.Drops)))
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render("  q: quit"))
	out.WriteString("\n")

	return out.String()
}

func renderLamp(label string, on bool, onStyle, offStyle lipgloss.Style) string {
	if on {
		return onStyle.Render(label + " ●")
	}
	return offStyle.Render(label + " ·")
}

func renderBar(level, resolution int) string {
	const barWidth = 24

	filled := 0
	if resolution > 1 {
		filled = level * barWidth / (resolution - 1)
	}
	if filled > barWidth {
		filled = barWidth
	}

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar.WriteString("█")
		} else {
			bar.WriteString("─")
		}
	}
	bar.WriteString("]")
	return bar.String()
}

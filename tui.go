// tui.go - minimal terminal player

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
tui.go is a small bubbletea program that shows the parsed notes and
transport state while a song plays - a scaled-down relative of a
pattern-grid tracker UI, with no editor, just a read-only transport
view, since this repo compiles and plays one song rather than editing
one interactively.
*/

package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// playerModel is the TUI's tea.Model: a read-only view over a
// compiled song's notes and its sequencer's live transport state.
type playerModel struct {
	notes   []Note
	seq     *SequencerState
	driver  AudioDriver
	quitting bool
}

func newPlayerModel(notes []Note, seq *SequencerState, driver AudioDriver) playerModel {
	return playerModel{notes: notes, seq: seq, driver: driver}
}

func (m playerModel) Init() tea.Cmd {
	return tick()
}

func (m playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.driver.Stop()
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.seq.Completed.Load() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m playerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("lilysynth"))
	b.WriteString("\n\n")

	status := playingStyle.Render("playing")
	if m.seq.Completed.Load() {
		status = doneStyle.Render("done")
	}
	b.WriteString(fmt.Sprintf("%s  sample %d / %d events\n\n", status, m.seq.CurrentSampleIndex.Load(), len(m.seq.Events)))

	for i, n := range m.notes {
		if i >= 32 {
			b.WriteString("...\n")
			break
		}
		b.WriteString(n.String())
		b.WriteString(" ")
	}
	b.WriteString("\n\nq to quit\n")
	return b.String()
}

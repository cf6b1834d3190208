// SPDX-License-Identifier: MIT
package tui

import (
	"audiostate/internal/analysis"
	"audiostate/internal/field"
	"audiostate/internal/transport"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// DefaultRefresh is how often the field intensity bar is redrawn.
	DefaultRefresh = 50 * time.Millisecond
	recentLabels   = 8
	barWidth       = 40
)

type snapshotMsg transport.Snapshot

type streamClosedMsg struct{}

type refreshMsg time.Time

// MonitorModel renders live analysis results received on a snapshot channel.
type MonitorModel struct {
	snapshots <-chan transport.Snapshot
	bands     []analysis.Band
	field     *field.Collection
	refresh   time.Duration

	bar    progress.Model
	last   *transport.Snapshot
	recent []string
	count  int
	paused bool
	closed bool
}

// NewMonitorModel creates a monitor over snapshots. Band names label the
// level bars. fc may be nil; when set, each snapshot's volume becomes the
// collection target and its intensity is drawn as an extra bar.
func NewMonitorModel(snapshots <-chan transport.Snapshot, bands []analysis.Band, fc *field.Collection) MonitorModel {
	return MonitorModel{
		snapshots: snapshots,
		bands:     bands,
		field:     fc,
		refresh:   DefaultRefresh,
		bar: progress.New(
			progress.WithScaledGradient("#25A065", "#E0A030"),
			progress.WithoutPercentage(),
			progress.WithWidth(barWidth),
		),
	}
}

func waitForSnapshot(ch <-chan transport.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m MonitorModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSnapshot(m.snapshots)}
	if m.field != nil {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyQuit):
			return m, tea.Quit
		case key.Matches(msg, keyPause):
			m.paused = !m.paused
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(barWidth, msg.Width-lipgloss.Width(labelStyle.Render(""))-2))
		return m, nil

	case snapshotMsg:
		s := transport.Snapshot(msg)
		m.count++
		if m.field != nil {
			m.field.SetTarget(s.Volume)
		}
		if !m.paused {
			m.last = &s
			m.recent = append(m.recent, s.Label)
			if len(m.recent) > recentLabels {
				m.recent = m.recent[len(m.recent)-recentLabels:]
			}
		}
		return m, waitForSnapshot(m.snapshots)

	case streamClosedMsg:
		m.closed = true
		return m, tea.Quit

	case refreshMsg:
		if m.closed {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

// Received returns the number of snapshots read from the channel.
func (m MonitorModel) Received() int { return m.count }

func (m MonitorModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("audiostate monitor"))
	sb.WriteString("\n\n")

	if m.last == nil {
		sb.WriteString(infoStyle.Render("Waiting for audio..."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.renderState(*m.last))
		sb.WriteString("\n\n")
		for i, level := range m.last.Levels {
			name := fmt.Sprintf("band %d", i)
			if i < len(m.bands) {
				name = m.bands[i].Name
			}
			fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render(name), m.bar.ViewAs(level))
		}
	}

	if m.field != nil {
		fmt.Fprintf(&sb, "\n%s %s\n", labelStyle.Render("field"), m.bar.ViewAs(min(1, max(0, m.field.Intensity()))))
	}

	if len(m.recent) > 0 {
		sb.WriteString("\n")
		sb.WriteString(infoStyle.Render("recent: " + strings.Join(m.recent, " ")))
		sb.WriteString("\n")
	}

	status := "p pause  q quit"
	if m.paused {
		status = "paused  " + status
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(status))
	return sb.String()
}

func (m MonitorModel) renderState(s transport.Snapshot) string {
	header := stateStyle.Render(s.Label)
	var detail string
	switch s.Kind {
	case transport.KindBreathing:
		detail = fmt.Sprintf("%s  %.1f bpm  depth %.2f", s.Pattern, s.Rate, s.Depth)
	case transport.KindEmotion:
		detail = fmt.Sprintf("confidence %.0f%%  stress %.2f  relaxation %.2f", s.Confidence*100, s.Stress, s.Relaxation)
	}
	line := fmt.Sprintf("%s  %s  %.0f Hz  vol %.3f", s.Source, detail, s.Fundamental, s.Volume)
	return lipgloss.JoinHorizontal(lipgloss.Center, header, " ", infoStyle.Render(line))
}

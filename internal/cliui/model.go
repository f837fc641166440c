// Package cliui implements the wu:watch live view (§2a): a bubbletea table
// of WU/lane status that falls back to a plain re-printed snapshot when
// stdout isn't a terminal or the process is running under CI.
package cliui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Row is one WU's display state, assembled by the caller from
// eventstore.ProjectedState plus the WU YAML.
type Row struct {
	WuID      string
	Lane      string
	Status    string
	Title     string
	UpdatedAt time.Time
}

// RefreshFunc re-queries WU/lane state, called once per tick.
type RefreshFunc func() ([]Row, error)

// Model is the bubbletea model backing wu:watch.
type Model struct {
	Refresh  RefreshFunc
	Interval time.Duration
	Styles   Styles

	Rows      []Row
	Err       error
	StartedAt time.Time
	Width     int
	Height    int
	Quitting  bool
}

// NewModel constructs a watch Model polling refresh every interval.
func NewModel(refresh RefreshFunc, interval time.Duration) *Model {
	return &Model{
		Refresh:   refresh,
		Interval:  interval,
		Styles:    DefaultStyles(),
		StartedAt: time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd(m.Interval))
}

type tickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type refreshedMsg struct {
	rows []Row
	err  error
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		rows, err := m.Refresh()
		return refreshedMsg{rows: rows, err: err}
	}
}

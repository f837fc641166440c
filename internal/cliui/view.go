package cliui

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Quitting {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", m.Styles.Title.Render("lumenflow watch"), m.Styles.Timer.Render(time.Since(m.StartedAt).Round(time.Second).String()))

	if m.Err != nil {
		fmt.Fprintf(&b, "error refreshing status: %v\n", m.Err)
	}

	b.WriteString(renderTable(m.Styles, m.Rows))
	b.WriteString("\n")
	b.WriteString(m.Styles.Footer.Render(m.Styles.FooterKey.Render("q") + " quit"))
	return b.String()
}

func renderTable(s Styles, rows []Row) string {
	if len(rows) == 0 {
		return "no work units found\n"
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Lane != sorted[j].Lane {
			return sorted[i].Lane < sorted[j].Lane
		}
		return sorted[i].WuID < sorted[j].WuID
	})

	var b strings.Builder
	lastLane := ""
	for _, r := range sorted {
		if r.Lane != lastLane {
			fmt.Fprintf(&b, "%s\n", s.LaneHeader.Render(r.Lane))
			lastLane = r.Lane
		}
		status := statusStyle(s, r.Status).Render(fmt.Sprintf("%-11s", r.Status))
		fmt.Fprintf(&b, "  %-8s %s %s\n", r.WuID, status, r.Title)
	}
	return b.String()
}

// PlainRender renders the same table without ANSI styling, for the
// non-interactive fallback used in CI or when stdout isn't a terminal.
func PlainRender(rows []Row) string {
	return renderTable(Styles{}, rows)
}

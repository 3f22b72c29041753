package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/activity"
)

// resize recomputes viewport dimensions after a window change.
func (m *Model) resize() {
	_, _, aH := panelHeights(m.height - chromeHeight)
	// Box inner = box height - 2 (top and bottom borders)
	m.logViewport.Width = max(m.width-2, 0)
	m.logViewport.Height = max(aH-2, 0)
	m.uploadPath.Width = max(m.width-len(m.uploadPath.Prompt)-4, 10)
	m.refreshLog()
}

// refreshLog re-renders the activity feed into the viewport.
func (m *Model) refreshLog() {
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.paneBackground(m.focused == paneActivity)))
	m.logViewport.SetContent(m.renderLogContent())

	// Auto-scroll if following
	if m.followLog {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent formats every feed entry, oldest first.
func (m Model) renderLogContent() string {
	if len(m.entries) == 0 {
		return m.theme.Styles().FaintText.Render("No activity yet")
	}
	lines := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		lines = append(lines, m.formatEntry(entry))
	}
	return strings.Join(lines, "\n")
}

// formatEntry renders "15:04:05 TAG text" with the tag colored by severity.
func (m Model) formatEntry(entry activity.Entry) string {
	styles := m.theme.Styles()
	ts := entry.Time.Local().Format("15:04:05")
	tag := fmt.Sprintf("%-4s", severityTag(entry.Severity))
	return styles.FaintText.Render(ts) + " " +
		m.severityStyle(entry.Severity).Render(tag) + " " +
		styles.Text.Render(entry.Text)
}

func (m Model) severityStyle(sev activity.Severity) lipgloss.Style {
	styles := m.theme.Styles()
	switch sev {
	case activity.Success:
		return styles.SuccessText
	case activity.Warning:
		return styles.WarningText
	case activity.Error:
		return styles.DangerText
	default:
		return styles.InfoText
	}
}

func severityTag(sev activity.Severity) string {
	switch sev {
	case activity.Success:
		return "OK"
	case activity.Warning:
		return "WARN"
	case activity.Error:
		return "ERR"
	default:
		return "INFO"
	}
}

// activityTitle shows the entry count and whether the log follows new lines.
func (m Model) activityTitle() string {
	title := fmt.Sprintf("Activity (%d)", len(m.entries))
	if !m.followLog {
		title += " · paused"
	}
	return title
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

// renderPanels stacks the participants table, the resources table and the
// activity log.
func (m Model) renderPanels() string {
	pH, rH, aH := panelHeights(m.height - chromeHeight)

	participants := m.renderTitledBox(
		fmt.Sprintf("Peers (%d)", m.snapshot.ParticipantCount),
		m.renderParticipantRows(m.width-2, pH-2),
		m.width, pH, m.focused == paneParticipants)
	resources := m.renderTitledBox(
		fmt.Sprintf("Torrents (%d)", m.snapshot.ResourceCount),
		m.renderResourceRows(m.width-2, rH-2),
		m.width, rH, m.focused == paneResources)
	activity := m.renderTitledBox(
		m.activityTitle(),
		m.logViewport.View(),
		m.width, aH, m.focused == paneActivity)

	return lipgloss.JoinVertical(lipgloss.Left, participants, resources, activity)
}

// renderParticipantRows renders the visible slice of the participant list.
func (m Model) renderParticipantRows(width, rows int) string {
	peers := m.snapshot.Participants
	if len(peers) == 0 {
		return m.theme.Styles().FaintText.Render(ternary(m.snapshot.IsOnline(), "No peers reported", "Not connected"))
	}
	bgColor := m.paneBackground(m.focused == paneParticipants)
	now := time.Now()

	start := windowStart(m.participantRow, len(peers), rows)
	end := min(start+rows, len(peers))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(m.participantCells(peers[i], now), width, bgColor, i == m.participantRow))
	}
	return strings.Join(lines, "\n")
}

// renderResourceRows renders the visible slice of the resource list.
func (m Model) renderResourceRows(width, rows int) string {
	resources := m.snapshot.Resources
	if len(resources) == 0 {
		return m.theme.Styles().FaintText.Render("No torrents reported")
	}
	bgColor := m.paneBackground(m.focused == paneResources)
	now := time.Now()

	start := windowStart(m.resourceRow, len(resources), rows)
	end := min(start+rows, len(resources))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(m.resourceCells(resources[i], now), width, bgColor, i == m.resourceRow))
	}
	return strings.Join(lines, "\n")
}

// cell is one column of a row: its text, width and style when not selected.
type cell struct {
	text  string
	width int
	style lipgloss.Style
}

func (m Model) participantCells(p wire.ParticipantRecord, now time.Time) []cell {
	styles := m.theme.Styles()
	peerStyle := styles.Text
	if p.PeerID == m.snapshot.Identity {
		peerStyle = styles.AccentText
	}
	cells := []cell{
		{text: p.PeerID, width: 16, style: peerStyle},
		{text: fmt.Sprintf("%s:%d", p.IP, p.Port), width: 22, style: styles.MutedText},
		{text: since(now, p.ParsedConnectedAt()), width: 6, style: styles.FaintText},
		{text: fmt.Sprintf("%d torrents", len(p.ActiveTorrents)), width: 12, style: styles.InfoText},
	}
	if m.width >= LayoutWideWidth && p.ClientID != "" {
		cells = append(cells, cell{text: p.ClientID, width: 24, style: styles.FaintText})
	}
	return cells
}

func (m Model) resourceCells(r wire.ResourceRecord, now time.Time) []cell {
	styles := m.theme.Styles()
	cells := []cell{
		{text: r.Filename, width: 32, style: styles.Text},
		{text: formatBytes(r.Size), width: 10, style: styles.MutedText},
		{text: since(now, r.ParsedUploadedAt()), width: 6, style: styles.FaintText},
	}
	if m.width >= LayoutCompactWidth {
		cells = append(cells, cell{text: truncateMiddle(r.InfoHash, 16), width: 16, style: styles.FaintText})
	}
	return cells
}

// renderRow lays cells out left to right, truncating each to its column.
// Selected rows use SelectionText for every cell to keep contrast.
func (m Model) renderRow(cells []cell, width int, bgColor string, selected bool) string {
	if selected {
		bgColor = m.theme.SelectionBg
	}
	bg := NewBgStyle(bgColor)
	selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))

	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		style := c.style
		if selected {
			style = selText
		}
		text := truncate(c.text, c.width)
		parts = append(parts, bg.Render(text, style)+bg.Spaces(c.width-lipgloss.Width(text)))
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bgColor)).
		Width(width).
		MaxWidth(width).
		Render(bg.Join(parts, " "))
}

// windowStart returns the first visible row so that selected stays in view.
func windowStart(selected, total, rows int) int {
	if rows <= 0 || total <= rows {
		return 0
	}
	return clamp(selected-rows+1, 0, total-rows)
}

// renderFooter renders the upload prompt, the last action error, or the
// last close reason.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var content string
	switch {
	case m.uploading:
		content = m.uploadPath.View()
	case m.lastErr != "":
		content = bg.Render("!", styles.WarningText.Bold(true)) + bg.Space() +
			bg.Render(truncate(m.lastErr, m.width-4), styles.WarningText)
	case m.snapshot.LastReason != "" && !m.snapshot.IsOnline():
		content = bg.Pair("last close:", styles.FaintText, truncate(m.snapshot.LastReason, m.width-16), styles.MutedText)
	default:
		content = bg.Pair("theme", styles.FaintText, m.theme.Name, styles.MutedText)
	}
	return styles.Footer.Width(m.width).Render(content)
}

// paneBackground returns the pane fill color for the focus state.
func (m Model) paneBackground(focused bool) string {
	if focused {
		return m.theme.FocusBg
	}
	return m.theme.SurfaceAlt
}

// renderTitledBox renders content in a box with the title embedded in the top border.
// When focused is true, uses BorderFocus color and FocusBg background.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr := m.theme.Border
	if focused {
		borderColorStr = m.theme.BorderFocus
	}
	bgColorStr := m.paneBackground(focused)
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0) // Account for left and right border chars
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0) // -2 for spaces around title
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0) // -2 for top and bottom borders

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
)

// renderHeader renders the status bar: identity, state badges and counts.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	parts := []string{bg.Render("vmpeer", styles.Logo)}

	id := snap.Identity
	if id == "" && m.session != nil {
		id = m.session.Identity().String()
	}
	if id != "" {
		parts = append(parts, bg.Render(id, styles.AccentText))
	}

	parts = append(parts,
		styles.StateStyle(snap.Connection.String()).Render(stateLabel(snap.Connection.String())),
		styles.StateStyle(snap.Registration.String()).Render(stateLabel(snap.Registration.String())),
	)

	if snap.SessionID != "" && !compact {
		parts = append(parts, bg.Pair("sid", styles.FaintText, truncateMiddle(snap.SessionID, 14), styles.MutedText))
	}

	if snap.Attempts > 0 {
		style := styles.WarningText
		if snap.Connection == state.ReconnectExhausted {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(fmt.Sprintf("retry %d", snap.Attempts), style))
	}

	parts = append(parts,
		bg.Pair(ternary(compact, "P:", "Peers:"), styles.MutedText, fmt.Sprintf("%d", snap.ParticipantCount), styles.Text),
		bg.Pair(ternary(compact, "T:", "Torrents:"), styles.MutedText, fmt.Sprintf("%d", snap.ResourceCount), styles.Text),
	)

	if !snap.LastPingAt.IsZero() && !compact {
		parts = append(parts, bg.Pair("ping", styles.FaintText, since(time.Now(), snap.LastPingAt), styles.MutedText))
	}

	if m.trackerURL != "" && m.width >= LayoutWideWidth {
		parts = append(parts, bg.Render(truncateMiddle(m.trackerURL, 40), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// stateLabel renders a state name as a badge label.
func stateLabel(name string) string {
	switch name {
	case "reconnect-exhausted":
		return "GAVE UP"
	default:
		return strings.ToUpper(name)
	}
}

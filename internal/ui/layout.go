package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the tracker URL and
	// secondary table columns.
	LayoutWideWidth = 140
)

// Timing constants.
const (
	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = 250 * time.Millisecond
)

// chromeHeight is the number of rows taken by header, command bar and footer.
const chromeHeight = 3

// panelHeights splits the body between the two tables and the activity log.
func panelHeights(total int) (participants, resources, activity int) {
	if total < 9 {
		return 3, 3, max(total-6, 3)
	}
	participants = total * 3 / 10
	resources = total * 3 / 10
	activity = total - participants - resources
	return participants, resources, activity
}

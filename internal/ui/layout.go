package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which header details are dropped.
	LayoutCompactWidth = 100

	// LayoutSplitWidth is the minimum width for side-by-side panels.
	LayoutSplitWidth = 120
)

// Log display limits.
const (
	// LogTailLines is how many lines of the console log the log view reads.
	LogTailLines = 400
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// DashboardTimeout bounds one dashboard load.
	DashboardTimeout = 8 * time.Second

	// NoticeDuration is how long a footer notice stays visible.
	NoticeDuration = 4 * time.Second

	// settingsBuffer is the settings subscription channel size.
	settingsBuffer = 8
)

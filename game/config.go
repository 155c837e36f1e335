package game

import "github.com/pthm-cable/citywalk/telemetry"

// Options holds run settings that are not part of the world config.
type Options struct {
	Seed           int64   // Overrides world.seed when non-zero
	LogStats       bool    // Log window stats and bookmarks via slog
	StatsWindowSec float64 // Overrides telemetry.stats_window when positive
	OutputDir      string  // CSV output base directory (empty = disabled)
	Tour           bool    // Drive the observer along a scripted route
	Headless       bool    // Frames carry census and tiles but no instances

	// Optional callback for each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// DefaultOptions returns options for an interactive run.
func DefaultOptions() Options {
	return Options{}
}

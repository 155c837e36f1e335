package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHandoffSurge        BookmarkType = "handoff_surge"
	BookmarkCandidateStarvation BookmarkType = "candidate_starvation"
	BookmarkStreamingBurst      BookmarkType = "streaming_burst"
	BookmarkFrameSpike          BookmarkType = "frame_spike"
	BookmarkSteadyCrowd         BookmarkType = "steady_crowd"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	SimTime     float64      `csv:"sim_time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"sim_time", b.SimTime,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	steadyWindows int // consecutive windows with a stable crowd
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady crowd detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	if bd.historyFull || bd.historyIdx > 0 {
		for _, check := range []func(WindowStats) *Bookmark{
			bd.checkHandoffSurge,
			bd.checkCandidateStarvation,
			bd.checkStreamingBurst,
			bd.checkFrameSpike,
			bd.checkSteadyCrowd,
		} {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}
	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// average returns the mean of f over the history.
func (bd *BookmarkDetector) average(f func(WindowStats) float64) float64 {
	history := bd.getHistory()
	if len(history) == 0 {
		return 0
	}
	var sum float64
	for _, h := range history {
		sum += f(h)
	}
	return sum / float64(len(history))
}

func (bd *BookmarkDetector) checkHandoffSurge(stats WindowStats) *Bookmark {
	if len(bd.getHistory()) < 3 {
		return nil
	}
	avg := bd.average(func(h WindowStats) float64 { return float64(h.Promotions) })
	if avg == 0 || stats.Promotions < 5 {
		return nil
	}
	if float64(stats.Promotions) > avg*2 {
		return &Bookmark{
			Type:        BookmarkHandoffSurge,
			SimTime:     stats.WindowEnd,
			Description: fmt.Sprintf("%d promotions is %.1fx average (%.1f)", stats.Promotions, float64(stats.Promotions)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkCandidateStarvation(stats WindowStats) *Bookmark {
	if stats.Misses >= 3 && stats.Misses > stats.Promotions {
		return &Bookmark{
			Type:        BookmarkCandidateStarvation,
			SimTime:     stats.WindowEnd,
			Description: fmt.Sprintf("%d budgeted promotions found no candidate (%d made)", stats.Misses, stats.Promotions),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStreamingBurst(stats WindowStats) *Bookmark {
	if len(bd.getHistory()) < 3 || stats.TilesLoaded < 5 {
		return nil
	}
	avg := bd.average(func(h WindowStats) float64 { return float64(h.TilesLoaded) })
	if float64(stats.TilesLoaded) > avg*2 {
		return &Bookmark{
			Type:        BookmarkStreamingBurst,
			SimTime:     stats.WindowEnd,
			Description: fmt.Sprintf("%d tiles loaded against an average of %.1f", stats.TilesLoaded, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkFrameSpike(stats WindowStats) *Bookmark {
	if len(bd.getHistory()) < 3 {
		return nil
	}
	avg := bd.average(func(h WindowStats) float64 { return h.FrameMSP95 })
	if avg > 0 && stats.FrameMSP95 > avg*2 && stats.FrameMSP95 >= 8 {
		return &Bookmark{
			Type:        BookmarkFrameSpike,
			SimTime:     stats.WindowEnd,
			Description: fmt.Sprintf("p95 frame %.2fms is %.1fx average (%.2fms)", stats.FrameMSP95, stats.FrameMSP95/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSteadyCrowd(stats WindowStats) *Bookmark {
	if stats.Crowd < 10 {
		bd.steadyWindows = 0
		return nil
	}
	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += float64(h.Crowd)
	}
	mean := sum / 4
	var variance float64
	for _, h := range recent {
		d := float64(h.Crowd) - mean
		variance += d * d
	}
	variance /= 4

	if mean > 0 && variance/(mean*mean) < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.steadyWindows++
	} else {
		bd.steadyWindows = 0
	}

	if bd.steadyWindows == 5 { // trigger exactly once per steady stretch
		return &Bookmark{
			Type:        BookmarkSteadyCrowd,
			SimTime:     stats.WindowEnd,
			Description: fmt.Sprintf("Crowd steady at %d with %d Sim agents over 5+ windows", stats.Crowd, stats.Sim),
		}
	}
	return nil
}

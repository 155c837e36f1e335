package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// RunSummary holds end-of-run totals.
type RunSummary struct {
	Frames      uint64
	SimTime     float64
	TilesLoaded uint64
	Promotions  uint64
	Forced      uint64
	Misses      uint64
	Recycles    uint64
	Stumbles    uint64
	AvgFrame    time.Duration
}

// Summary returns totals for the run so far.
func (g *Game) Summary() RunSummary {
	c := g.pop.Counters()
	return RunSummary{
		Frames:      g.frameNum,
		SimTime:     g.simTime,
		TilesLoaded: g.tilesLoaded,
		Promotions:  c.Promotions,
		Forced:      c.Forced,
		Misses:      c.Misses,
		Recycles:    recycles(c),
		Stumbles:    c.Stumbles,
		AvgFrame:    g.perfCollector.AvgFrame(),
	}
}

// String formats the summary for terminal output.
func (s RunSummary) String() string {
	simDur := time.Duration(s.SimTime * float64(time.Second)).Round(time.Millisecond)
	return fmt.Sprintf("%s frames over %s, %s tiles streamed, %s promotions (%s forced, %s misses), %s recycles, avg frame %s",
		humanize.Comma(int64(s.Frames)),
		simDur,
		humanize.Comma(int64(s.TilesLoaded)),
		humanize.Comma(int64(s.Promotions)),
		humanize.Comma(int64(s.Forced)),
		humanize.Comma(int64(s.Misses)),
		humanize.Comma(int64(s.Recycles)),
		s.AvgFrame.Round(time.Microsecond),
	)
}

// LogSummary logs the run summary.
func (g *Game) LogSummary() {
	s := g.Summary()
	slog.Info("run summary",
		"frames", s.Frames,
		"sim_time", s.SimTime,
		"tiles_loaded", s.TilesLoaded,
		"promotions", s.Promotions,
		"forced", s.Forced,
		"candidate_misses", s.Misses,
		"recycles", s.Recycles,
		"stumbles", s.Stumbles,
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"summary", s.String(),
	)
}

package game

import (
	"log/slog"

	"github.com/pthm-cable/citywalk/population"
	"github.com/pthm-cable/citywalk/telemetry"
	"github.com/pthm-cable/citywalk/tiles"
)

// recordEvents turns this frame's streaming result and counter deltas into
// collector events.
func (g *Game) recordEvents(streamed tiles.UpdateResult) {
	f := g.frameNum
	g.collector.Record(telemetry.NewTileEvent(f, true, streamed.Loaded))
	g.collector.Record(telemetry.NewTileEvent(f, false, streamed.Evicted))
	g.tilesLoaded += uint64(streamed.Loaded)

	cur := g.pop.Counters()
	prev := g.prevCounters
	for _, d := range []struct {
		t         telemetry.EventType
		cur, prev uint64
	}{
		{telemetry.EventPromotion, cur.Promotions, prev.Promotions},
		{telemetry.EventForcedPromotion, cur.Forced, prev.Forced},
		{telemetry.EventCandidateMiss, cur.Misses, prev.Misses},
		{telemetry.EventCrossingWait, cur.CrossingWaits, prev.CrossingWaits},
		{telemetry.EventReplan, cur.Replans, prev.Replans},
		{telemetry.EventRecycle, recycles(cur), recycles(prev)},
		{telemetry.EventStumble, cur.Stumbles, prev.Stumbles},
	} {
		if d.cur > d.prev {
			g.collector.Record(telemetry.NewCountEvent(f, d.t, d.cur-d.prev))
		}
	}
	g.prevCounters = cur
}

func recycles(c population.Counters) uint64 {
	return c.SimRecycles + c.CrowdRecycles + c.FakeRecycles
}

// snapshot samples the state recorded at the end of a stats window.
func (g *Game) snapshot() telemetry.Snapshot {
	sims := g.pop.Sims()
	speeds := make([]float64, 0, len(sims))
	for _, a := range sims {
		speeds = append(speeds, a.Speed())
	}
	c := g.frame.Census
	return telemetry.Snapshot{
		TilesResident: g.streamer.Count(),
		Buildings:     g.streamer.BuildingCount(),
		Sim:           c.Sim,
		SimFadingIn:   c.SimFadingIn,
		Crowd:         c.Crowd,
		CrowdFading:   c.CrowdFading,
		Fake:          c.Fake,
		ObserverSpeed: g.pop.ObserverSpeed(),
		SimSpeeds:     speeds,
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.simTime) {
		return
	}

	stats := g.collector.Flush(g.simTime, g.snapshot())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

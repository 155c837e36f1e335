package telemetry

import "time"

// Snapshot is the state sampled at the end of a window.
type Snapshot struct {
	TilesResident int
	Buildings     int
	Sim           int
	SimFadingIn   int
	Crowd         int
	CrowdFading   int
	Fake          int
	ObserverSpeed float64
	SimSpeeds     []float64
}

// Collector accumulates events within time windows and produces WindowStats.
// Windows are measured in simulated seconds since frame dt varies.
type Collector struct {
	windowSec   float64
	windowStart float64
	frames      int

	counts  [eventTypeCount]int
	frameMS []float64
}

// NewCollector creates a new stats collector.
// windowSec: how long each stats window lasts in simulated seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 1
	}
	return &Collector{windowSec: windowSec}
}

// Record adds an event to the current window. Zero-count events are ignored.
func (c *Collector) Record(ev Event) {
	if ev.Count <= 0 || ev.Type >= eventTypeCount {
		return
	}
	c.counts[ev.Type] += ev.Count
}

// RecordFrame records one frame and its wall-clock duration.
func (c *Collector) RecordFrame(d time.Duration) {
	c.frames++
	c.frameMS = append(c.frameMS, float64(d)/float64(time.Millisecond))
}

// Count returns the current window's total for an event type.
func (c *Collector) Count(t EventType) int {
	if t >= eventTypeCount {
		return 0
	}
	return c.counts[t]
}

// ShouldFlush returns true once the window has elapsed.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStart >= c.windowSec
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(simTime float64, snap Snapshot) WindowStats {
	dur := simTime - c.windowStart
	var promoRate float64
	if dur > 0 {
		promoRate = float64(c.counts[EventPromotion]) / dur
	}
	frameMean, frameP50, frameP95 := ComputeFrameStats(c.frameMS)
	speedMean, speedStd := ComputeSpeedStats(snap.SimSpeeds)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   simTime,
		Frames:      c.frames,

		TilesResident: snap.TilesResident,
		Buildings:     snap.Buildings,
		TilesLoaded:   c.counts[EventTileLoaded],
		TilesEvicted:  c.counts[EventTileEvicted],

		Sim:         snap.Sim,
		SimFadingIn: snap.SimFadingIn,
		Crowd:       snap.Crowd,
		CrowdFading: snap.CrowdFading,
		Fake:        snap.Fake,

		Promotions:       c.counts[EventPromotion],
		Forced:           c.counts[EventForcedPromotion],
		Misses:           c.counts[EventCandidateMiss],
		PromotionsPerSec: promoRate,
		CrossingWaits:    c.counts[EventCrossingWait],
		Replans:          c.counts[EventReplan],
		Recycles:         c.counts[EventRecycle],
		Stumbles:         c.counts[EventStumble],

		ObserverSpeed: snap.ObserverSpeed,
		SimSpeedMean:  speedMean,
		SimSpeedStd:   speedStd,

		FrameMSMean: frameMean,
		FrameMSP50:  frameP50,
		FrameMSP95:  frameP95,
	}

	c.windowStart = simTime
	c.frames = 0
	c.counts = [eventTypeCount]int{}
	c.frameMS = c.frameMS[:0]
	return stats
}

// WindowSec returns the window length in simulated seconds.
func (c *Collector) WindowSec() float64 {
	return c.windowSec
}

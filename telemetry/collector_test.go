package telemetry

import (
	"math"
	"testing"
	"time"
)

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(5)

	c.Record(NewTileEvent(1, true, 9))
	c.Record(NewTileEvent(2, false, 3))
	c.Record(NewCountEvent(3, EventPromotion, 4))
	c.Record(NewCountEvent(4, EventPromotion, 6))
	c.Record(NewCountEvent(4, EventCandidateMiss, 2))
	c.Record(NewCountEvent(5, EventCrossingWait, 0))
	for _, ms := range []int{2, 4, 6} {
		c.RecordFrame(time.Duration(ms) * time.Millisecond)
	}

	if c.ShouldFlush(4.9) {
		t.Fatal("window flushed early")
	}
	if !c.ShouldFlush(5) {
		t.Fatal("window did not flush at its end")
	}

	stats := c.Flush(5, Snapshot{
		TilesResident: 25,
		Sim:           24,
		Crowd:         140,
		Fake:          400,
		SimSpeeds:     []float64{1, 2, 3},
	})

	if stats.Frames != 3 {
		t.Errorf("Frames = %d, want 3", stats.Frames)
	}
	if stats.TilesLoaded != 9 || stats.TilesEvicted != 3 {
		t.Errorf("tiles loaded/evicted = %d/%d", stats.TilesLoaded, stats.TilesEvicted)
	}
	if stats.Promotions != 10 || stats.Misses != 2 || stats.CrossingWaits != 0 {
		t.Errorf("promotions %d misses %d waits %d", stats.Promotions, stats.Misses, stats.CrossingWaits)
	}
	if math.Abs(stats.PromotionsPerSec-2) > 1e-9 {
		t.Errorf("PromotionsPerSec = %v, want 2", stats.PromotionsPerSec)
	}
	if math.Abs(stats.FrameMSMean-4) > 1e-9 || stats.FrameMSP50 != 4 {
		t.Errorf("frame mean %v p50 %v", stats.FrameMSMean, stats.FrameMSP50)
	}
	if stats.SimSpeedMean != 2 || stats.SimSpeedStd != 1 {
		t.Errorf("speed mean %v std %v", stats.SimSpeedMean, stats.SimSpeedStd)
	}
	if stats.Sim != 24 || stats.Crowd != 140 || stats.Fake != 400 {
		t.Errorf("census = %d/%d/%d", stats.Sim, stats.Crowd, stats.Fake)
	}
}

func TestCollector_ResetsAfterFlush(t *testing.T) {
	c := NewCollector(1)
	c.Record(NewCountEvent(1, EventReplan, 5))
	c.RecordFrame(time.Millisecond)
	c.Flush(1, Snapshot{})

	if c.Count(EventReplan) != 0 {
		t.Errorf("Count after flush = %d", c.Count(EventReplan))
	}
	if c.ShouldFlush(1.5) {
		t.Error("new window should start at the previous flush time")
	}
	stats := c.Flush(2, Snapshot{})
	if stats.WindowStart != 1 || stats.Frames != 0 {
		t.Errorf("second window start %v frames %d", stats.WindowStart, stats.Frames)
	}
}

func TestCollector_IgnoresInvalidEvents(t *testing.T) {
	c := NewCollector(0)
	if c.WindowSec() != 1 {
		t.Errorf("WindowSec() = %v, want default 1", c.WindowSec())
	}
	c.Record(Event{Type: eventTypeCount, Count: 3})
	c.Record(Event{Type: EventStumble, Count: -1})
	if c.Count(EventStumble) != 0 || c.Count(eventTypeCount) != 0 {
		t.Error("invalid events were counted")
	}
}

func TestEventType_String(t *testing.T) {
	if EventForcedPromotion.String() != "forced_promotion" {
		t.Errorf("String() = %q", EventForcedPromotion.String())
	}
	if EventType(200).String() != "unknown" {
		t.Error("out of range type should be unknown")
	}
}

package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few frames
	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseStreaming)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhasePopulation)
		time.Sleep(200 * time.Microsecond)
		if d := pc.EndFrame(); d <= 0 {
			t.Errorf("frame %d: EndFrame returned %v", i, d)
		}
	}

	stats := pc.Stats()
	if stats.AvgFrame <= 0 {
		t.Error("expected positive average frame duration")
	}
	if stats.MinFrame > stats.AvgFrame || stats.AvgFrame > stats.MaxFrame {
		t.Errorf("min %v avg %v max %v out of order", stats.MinFrame, stats.AvgFrame, stats.MaxFrame)
	}
	if _, ok := stats.PhaseAvg[PhaseStreaming]; !ok {
		t.Error("expected streaming phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhasePopulation]; !ok {
		t.Error("expected population phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseStreaming)
		pc.EndFrame()
	}

	if pc.Samples() != 5 {
		t.Errorf("Samples() = %d, want 5", pc.Samples())
	}
	stats := pc.Stats()
	if stats.FramesPerSecond <= 0 {
		t.Error("expected positive frames per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseSignals)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseHandoff)
		time.Sleep(2 * time.Millisecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	fastPct := stats.PhasePct[PhaseSignals]
	slowPct := stats.PhasePct[PhaseHandoff]
	if slowPct <= fastPct {
		t.Errorf("expected handoff (%.1f%%) > signals (%.1f%%)", slowPct, fastPct)
	}
	if total := fastPct + slowPct; total > 101 {
		t.Errorf("phase percentages sum to %.1f%%", total)
	}
}

func TestPerfCollector_ReenteredPhaseAccumulates(t *testing.T) {
	pc := NewPerfCollector(1)

	pc.StartFrame()
	pc.StartPhase(PhasePopulation)
	time.Sleep(time.Millisecond)
	pc.StartPhase(PhaseHandoff)
	pc.StartPhase(PhasePopulation)
	time.Sleep(time.Millisecond)
	pc.EndFrame()

	if got := pc.Stats().PhaseAvg[PhasePopulation]; got < 2*time.Millisecond {
		t.Errorf("population phase = %v, want >= 2ms", got)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgFrame != 0 {
		t.Error("expected zero average for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected initialized maps")
	}
	if pc.AvgFrame() != 0 {
		t.Error("expected zero AvgFrame for empty collector")
	}
}

func TestPerfCollector_Reset(t *testing.T) {
	pc := NewPerfCollector(4)
	for i := 0; i < 3; i++ {
		pc.StartFrame()
		pc.EndFrame()
	}
	pc.Reset()
	if pc.Samples() != 0 || pc.AvgFrame() != 0 {
		t.Errorf("after Reset: samples %d avg %v", pc.Samples(), pc.AvgFrame())
	}
}

func TestPerfCollector_PresentGap(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.RecordPresent()
	time.Sleep(2 * time.Millisecond)
	pc.RecordPresent()

	stats := pc.Stats()
	if stats.PresentGap < 2*time.Millisecond {
		t.Errorf("PresentGap = %v, want >= 2ms", stats.PresentGap)
	}
	if stats.FPS <= 0 || stats.FPS > 500 {
		t.Errorf("FPS = %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgFrame: 4 * time.Millisecond,
		PhasePct: map[string]float64{PhasePopulation: 40, PhaseHandoff: 5},
	}
	row := stats.ToCSV(12.5)
	if row.SimTime != 12.5 || row.AvgFrameUS != 4000 {
		t.Errorf("row = %+v", row)
	}
	if row.PopulationPct != 40 || row.HandoffPct != 5 || row.StreamingPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}

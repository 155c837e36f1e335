package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStart float64 `csv:"-"`
	WindowEnd   float64 `csv:"sim_time"`
	Frames      int     `csv:"frames"`

	// Streaming
	TilesResident int `csv:"tiles"`
	Buildings     int `csv:"buildings"`
	TilesLoaded   int `csv:"tiles_loaded"`
	TilesEvicted  int `csv:"tiles_evicted"`

	// Population at window end
	Sim         int `csv:"sim"`
	SimFadingIn int `csv:"sim_fading_in"`
	Crowd       int `csv:"crowd"`
	CrowdFading int `csv:"crowd_fading"`
	Fake        int `csv:"fake"`

	// Handoff and behaviour during the window
	Promotions       int     `csv:"promotions"`
	Forced           int     `csv:"forced"`
	Misses           int     `csv:"candidate_misses"`
	PromotionsPerSec float64 `csv:"promotions_per_sec"`
	CrossingWaits    int     `csv:"crossing_waits"`
	Replans          int     `csv:"replans"`
	Recycles         int     `csv:"recycles"`
	Stumbles         int     `csv:"stumbles"`

	ObserverSpeed float64 `csv:"observer_speed"`
	SimSpeedMean  float64 `csv:"sim_speed_mean"`
	SimSpeedStd   float64 `csv:"sim_speed_std"`

	// Wall-clock frame time
	FrameMSMean float64 `csv:"frame_ms_mean"`
	FrameMSP50  float64 `csv:"frame_ms_p50"`
	FrameMSP95  float64 `csv:"frame_ms_p95"`
}

// Percentile returns the empirical p-quantile of a sorted slice.
// p is clamped to [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeFrameStats calculates mean, median and p95 of frame times.
func ComputeFrameStats(values []float64) (mean, p50, p95 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Mean(sorted, nil), Percentile(sorted, 0.5), Percentile(sorted, 0.95)
}

// ComputeSpeedStats calculates the mean and sample standard deviation.
func ComputeSpeedStats(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("sim_time", s.WindowEnd),
		slog.Int("frames", s.Frames),
		slog.Int("tiles", s.TilesResident),
		slog.Int("buildings", s.Buildings),
		slog.Int("loaded", s.TilesLoaded),
		slog.Int("evicted", s.TilesEvicted),
		slog.Int("sim", s.Sim),
		slog.Int("sim_fading_in", s.SimFadingIn),
		slog.Int("crowd", s.Crowd),
		slog.Int("crowd_fading", s.CrowdFading),
		slog.Int("fake", s.Fake),
		slog.Int("promotions", s.Promotions),
		slog.Int("forced", s.Forced),
		slog.Int("candidate_misses", s.Misses),
		slog.Float64("promotions_per_sec", s.PromotionsPerSec),
		slog.Int("crossing_waits", s.CrossingWaits),
		slog.Int("replans", s.Replans),
		slog.Int("recycles", s.Recycles),
		slog.Int("stumbles", s.Stumbles),
		slog.Float64("observer_speed", s.ObserverSpeed),
		slog.Float64("sim_speed_mean", s.SimSpeedMean),
		slog.Float64("sim_speed_std", s.SimSpeedStd),
		slog.Float64("frame_ms_mean", s.FrameMSMean),
		slog.Float64("frame_ms_p50", s.FrameMSP50),
		slog.Float64("frame_ms_p95", s.FrameMSP95),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"sim_time", s.WindowEnd,
		"tiles", s.TilesResident,
		"loaded", s.TilesLoaded,
		"evicted", s.TilesEvicted,
		"sim", s.Sim,
		"crowd", s.Crowd,
		"fake", s.Fake,
		"promotions", s.Promotions,
		"forced", s.Forced,
		"candidate_misses", s.Misses,
		"crossing_waits", s.CrossingWaits,
		"frame_ms_p95", s.FrameMSP95,
	)
}

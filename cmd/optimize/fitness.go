package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/game"
	"github.com/pthm-cable/citywalk/population"
	"github.com/pthm-cable/citywalk/telemetry"
)

// FitnessEvaluator runs toured headless cities and scores the handoff.
type FitnessEvaluator struct {
	params      *ParamVector
	maxSeconds  float64
	dt          float64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu         sync.Mutex
	lastReport costReport // from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxSeconds float64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxSeconds:  maxSeconds,
		dt:          1.0 / 60,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 5,
	}
}

// LastReport returns the averaged cost terms of the most recent evaluation.
func (fe *FitnessEvaluator) LastReport() costReport {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastReport
}

// Evaluate computes the cost of a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	reports := make([]costReport, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, simCap := fe.runSimulation(x, s)
			reports[idx] = computeCost(windows, simCap)
		}(i, seed)
	}
	wg.Wait()

	var avg costReport
	for _, r := range reports {
		avg.ForcedShare += r.ForcedShare
		avg.MissShare += r.MissShare
		avg.SimChurn += r.SimChurn
		avg.FramePenalty += r.FramePenalty
		avg.Cost += r.Cost
	}
	n := float64(len(reports))
	avg.ForcedShare /= n
	avg.MissShare /= n
	avg.SimChurn /= n
	avg.FramePenalty /= n
	avg.Cost /= n

	fe.mu.Lock()
	fe.lastReport = avg
	fe.mu.Unlock()
	return avg.Cost
}

// runSimulation executes one toured headless run and returns its windows
// and the Sim tier capacity.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) ([]telemetry.WindowStats, int) {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	// Caps must stay fixed for runs to be comparable.
	cfg.Quality.Enabled = false

	var windows []telemetry.WindowStats
	g, err := game.New(&cfg, game.Options{
		Seed:           seed,
		Headless:       true,
		Tour:           true,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		// Parameters that fail validation score as badly as possible.
		return nil, 0
	}
	defer g.Close()

	for g.SimTime() < fe.maxSeconds {
		g.StepTour(fe.dt)
	}
	return windows, g.ActiveCap(population.TierSim)
}

// Cost term weights.
const (
	weightForced = 0.35
	weightMiss   = 0.25
	weightChurn  = 0.30
	weightFrame  = 0.10

	warmupWindows = 2   // skip while the tiers fill
	frameBudgetMS = 8.0 // p95 above this is penalised
	worstCost     = 1e3
)

// costReport breaks a cost into its terms.
type costReport struct {
	ForcedShare  float64 // forced / all promotions
	MissShare    float64 // misses / (misses + promotions)
	SimChurn     float64 // mean share of Sim agents still fading in
	FramePenalty float64 // mean relative p95 overrun
	Cost         float64
}

// computeCost scores window stats. Forced promotions pop in next to the
// observer and misses leave the Sim ring thin, so both are penalised along
// with Sim agents caught mid fade. A window with no Sim agents counts as
// full churn.
func computeCost(windows []telemetry.WindowStats, simCap int) costReport {
	if len(windows) <= warmupWindows || simCap <= 0 {
		return costReport{ForcedShare: 1, MissShare: 1, SimChurn: 1, Cost: worstCost}
	}
	valid := windows[warmupWindows:]

	var promotions, forced, misses int
	churn := make([]float64, 0, len(valid))
	overrun := make([]float64, 0, len(valid))
	for _, w := range valid {
		promotions += w.Promotions
		forced += w.Forced
		misses += w.Misses
		if w.Sim > 0 {
			churn = append(churn, math.Min(1, float64(w.SimFadingIn)/float64(w.Sim)))
		} else {
			churn = append(churn, 1)
		}
		overrun = append(overrun, math.Max(0, w.FrameMSP95/frameBudgetMS-1))
	}

	var r costReport
	if promotions > 0 {
		r.ForcedShare = float64(forced) / float64(promotions)
	}
	if promotions+misses > 0 {
		r.MissShare = float64(misses) / float64(promotions+misses)
	}
	r.SimChurn = stat.Mean(churn, nil)
	r.FramePenalty = stat.Mean(overrun, nil)
	r.Cost = weightForced*r.ForcedShare +
		weightMiss*r.MissShare +
		weightChurn*r.SimChurn +
		weightFrame*r.FramePenalty
	return r
}

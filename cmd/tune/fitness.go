package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/game"
	"github.com/pthm-cable/creatures/telemetry"
)

// A run counts as collapsed once the population stays below minViablePop for
// collapseGraceSec of simulated time.
const (
	minViablePop     = 3
	collapseGraceSec = 30.0
	warmupSec        = 5.0
)

// FitnessEvaluator runs headless simulations and scores them.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

type runResult struct {
	survivalSec float64
	windows     []telemetry.WindowStats
}

type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a parameter vector (lower = better). All
// seeds run in parallel and the mean is returned.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r := fe.runSimulation(x, s)
			q := computeQuality(r.windows)
			results[idx] = seedResult{fitness: computeFitness(r.survivalSec, q), quality: q}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes one headless run until collapse or maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	var result runResult
	g, err := game.NewGameWithOptions(cfg, game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		StatsCallback: func(s telemetry.WindowStats) {
			result.windows = append(result.windows, s)
		},
	})
	if err != nil {
		slog.Error("invalid candidate config", "err", err)
		return result
	}
	defer g.Unload()

	w := g.World()
	var belowSec float64
	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
		simSec := w.Clock() / 1000
		if simSec < warmupSec {
			continue
		}
		if w.Count() < minViablePop {
			belowSec += cfg.Physics.DT / 1000
		} else {
			belowSec = 0
		}
		if belowSec >= collapseGraceSec {
			result.survivalSec = simSec
			return result
		}
	}
	result.survivalSec = w.Clock() / 1000
	return result
}

// computeFitness combines survival and quality. Survival dominates; quality
// adds up to a 20% bonus between configs that survive equally long.
func computeFitness(survivalSec, quality float64) float64 {
	return -(survivalSec * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightLifespan  = 0.5
	qualityWeightStability = 0.3
	qualityWeightOrganic   = 0.2

	qualityWarmupWindows = 2
	lifespanScaleSec     = 60.0
)

// computeQuality scores a run in [0, 1] from its window stats. It rewards
// long average lifespans, a steady population, and growth through births
// rather than spawn-timer injection.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	counts := make([]float64, 0, len(valid))
	var lifespanSum float64
	var births, spawned int
	for _, w := range valid {
		counts = append(counts, float64(w.Agents))
		lifespanSum += w.AvgLifespanSec
		births += w.Births
		spawned += w.Spawned
	}

	lifespanScore := 1 - math.Exp(-lifespanSum/float64(len(valid))/lifespanScaleSec)

	stabilityScore := 0.0
	if mean := stat.Mean(counts, nil); mean > 0 && len(counts) >= 2 {
		cv := stat.PopStdDev(counts, nil) / mean
		stabilityScore = math.Exp(-cv * cv)
	}

	organicScore := 0.0
	if births+spawned > 0 {
		organicScore = float64(births) / float64(births+spawned)
	}

	q := qualityWeightLifespan*lifespanScore +
		qualityWeightStability*stabilityScore +
		qualityWeightOrganic*organicScore
	return min(max(q, 0), 1)
}

package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Agents int `csv:"agents"`
	Food   int `csv:"food"`

	// Events during window
	Births       int     `csv:"births"`
	Spawned      int     `csv:"spawned"`
	Deaths       int     `csv:"deaths"`
	Discarded    int     `csv:"discarded"`
	WastedHealth float64 `csv:"wasted_health"`
	Matings      int     `csv:"matings"`
	FoodEaten    int     `csv:"food_eaten"`
	FoodSpawned  int     `csv:"food_spawned"`

	// Health distribution (sampled at window end)
	HealthMean float64 `csv:"health_mean"`
	HealthP10  float64 `csv:"health_p10"`
	HealthP50  float64 `csv:"health_p50"`
	HealthP90  float64 `csv:"health_p90"`

	// Trait distribution
	SizeMean   float64 `csv:"size_mean"`
	SizeStd    float64 `csv:"size_std"`
	SpeedMean  float64 `csv:"speed_mean"`
	SpeedStd   float64 `csv:"speed_std"`
	VisionMean float64 `csv:"vision_mean"`

	// Lineage
	AvgLifespanSec float64 `csv:"avg_lifespan_sec"`
	MaxGeneration  int     `csv:"max_generation"`
	Diversity      float64 `csv:"diversity"` // mean pairwise body genome distance
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(math.Min(math.Max(p, 0), 1), stat.Empirical, sorted, nil)
}

// ComputeDistribution calculates mean and percentiles. values is not modified.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// MeanStd returns the mean and population standard deviation.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}

// Diversity returns the mean Euclidean distance between every pair of
// genomes. Fewer than two genomes have no diversity.
func Diversity(genomes [][]float64) float64 {
	if len(genomes) < 2 {
		return 0
	}
	var sum float64
	var pairs int
	for i := 0; i < len(genomes); i++ {
		for j := i + 1; j < len(genomes); j++ {
			if len(genomes[i]) != len(genomes[j]) {
				continue
			}
			sum += floats.Distance(genomes[i], genomes[j], 2)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("food", s.Food),
		slog.Int("births", s.Births),
		slog.Int("spawned", s.Spawned),
		slog.Int("deaths", s.Deaths),
		slog.Int("discarded", s.Discarded),
		slog.Float64("wasted_health", s.WastedHealth),
		slog.Int("matings", s.Matings),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("food_spawned", s.FoodSpawned),
		slog.Float64("health_mean", s.HealthMean),
		slog.Float64("health_p10", s.HealthP10),
		slog.Float64("health_p50", s.HealthP50),
		slog.Float64("health_p90", s.HealthP90),
		slog.Float64("size_mean", s.SizeMean),
		slog.Float64("size_std", s.SizeStd),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("vision_mean", s.VisionMean),
		slog.Float64("avg_lifespan_sec", s.AvgLifespanSec),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Float64("diversity", s.Diversity),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

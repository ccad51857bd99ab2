package telemetry

// TickEvents tallies what happened during one or more ticks.
type TickEvents struct {
	Births       int     // organic children added
	Spawned      int     // agents added by the spawn timer
	Deaths       int     // agents removed at health <= 0
	Discarded    int     // additions dropped at the population cap
	WastedHealth float64 // health donated to discarded children
	Matings      int     // sexual reproduction events
	FoodEaten    int
	FoodSpawned  int
}

// Add accumulates other into e.
func (e *TickEvents) Add(other TickEvents) {
	e.Births += other.Births
	e.Spawned += other.Spawned
	e.Deaths += other.Deaths
	e.Discarded += other.Discarded
	e.WastedHealth += other.WastedHealth
	e.Matings += other.Matings
	e.FoodEaten += other.FoodEaten
	e.FoodSpawned += other.FoodSpawned
}

// Sample is the population state observed at a window boundary.
type Sample struct {
	Tick           int64
	SimTimeSec     float64
	Food           int
	Health         []float64
	Size           []float64
	Speed          []float64
	Vision         []float64
	Genomes        [][]float64
	AvgLifespanSec float64
	MaxGeneration  int
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	windowStartTick int64
	windowStartSec  float64

	events TickEvents
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulated seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 10
	}
	return &Collector{windowDurationSec: windowDurationSec}
}

// Reset starts a fresh window at the given tick and simulated time.
func (c *Collector) Reset(tick int64, simTimeSec float64) {
	c.windowStartTick = tick
	c.windowStartSec = simTimeSec
	c.events = TickEvents{}
}

// Record adds one tick's events to the current window.
func (c *Collector) Record(ev TickEvents) {
	c.events.Add(ev)
}

// ShouldFlush returns true if the current window has covered its duration.
func (c *Collector) ShouldFlush(simTimeSec float64) bool {
	return simTimeSec-c.windowStartSec >= c.windowDurationSec
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(s Sample) WindowStats {
	healthMean, p10, p50, p90 := ComputeDistribution(s.Health)
	sizeMean, sizeStd := MeanStd(s.Size)
	speedMean, speedStd := MeanStd(s.Speed)
	visionMean, _ := MeanStd(s.Vision)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   s.Tick,
		SimTimeSec:      s.SimTimeSec,

		Agents: len(s.Health),
		Food:   s.Food,

		Births:       c.events.Births,
		Spawned:      c.events.Spawned,
		Deaths:       c.events.Deaths,
		Discarded:    c.events.Discarded,
		WastedHealth: c.events.WastedHealth,
		Matings:      c.events.Matings,
		FoodEaten:    c.events.FoodEaten,
		FoodSpawned:  c.events.FoodSpawned,

		HealthMean: healthMean,
		HealthP10:  p10,
		HealthP50:  p50,
		HealthP90:  p90,

		SizeMean:   sizeMean,
		SizeStd:    sizeStd,
		SpeedMean:  speedMean,
		SpeedStd:   speedStd,
		VisionMean: visionMean,

		AvgLifespanSec: s.AvgLifespanSec,
		MaxGeneration:  s.MaxGeneration,
		Diversity:      Diversity(s.Genomes),
	}

	// Reset for next window
	c.windowStartTick = s.Tick
	c.windowStartSec = s.SimTimeSec
	c.events = TickEvents{}

	return stats
}

// WindowDurationSec returns the simulated seconds per window.
func (c *Collector) WindowDurationSec() float64 {
	return c.windowDurationSec
}

package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/telemetry"
)

// Simulation speed multiplier bounds for the interactive loop.
const (
	MinSpeed = 1
	MaxSpeed = 10
)

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = config value
	SnapshotDir    string  // snapshots are saved here on bookmarks
	OutputDir      string  // CSV logs and config copy; empty disables
	StepsPerUpdate int     // ticks per UpdateHeadless call
	MaxTicks       int64   // updates never run past this tick; 0 = unlimited

	// Restore resumes from a snapshot instead of seeding a fresh world.
	Restore *telemetry.Snapshot

	// StatsCallback receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game runs a World at a fixed timestep and feeds its telemetry pipeline.
type Game struct {
	cfg   *config.Config
	world *World

	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager

	logStats       bool
	snapshotDir    string
	stepsPerUpdate int
	maxTicks       int64
	statsCallback  func(telemetry.WindowStats)

	paused bool
	speed  int

	last   TickReport
	totals telemetry.TickEvents
}

// NewGameWithOptions creates a game. The config is copied by the world.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	var (
		world *World
		err   error
	)
	if opts.Restore != nil {
		world, err = Restore(cfg, opts.Restore, WithPerf(perf))
	} else {
		world, err = NewWorld(cfg, WithSeed(opts.Seed), WithPerf(perf))
	}
	if err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := om.WriteConfig(world.Config()); err != nil {
		om.Close()
		return nil, err
	}

	window := opts.StatsWindowSec
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:              world.Config(),
		world:            world,
		collector:        telemetry.NewCollector(window),
		perfCollector:    perf,
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.World.Cap, cfg.Bookmarks),
		outputManager:    om,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		stepsPerUpdate:   steps,
		maxTicks:         max(opts.MaxTicks, 0),
		statsCallback:    opts.StatsCallback,
		speed:            MinSpeed,
	}
	g.collector.Reset(world.TickCount(), world.Clock()/1000)
	return g, nil
}

// World returns the underlying simulation.
func (g *Game) World() *World { return g.world }

// Tick returns the number of completed simulation ticks.
func (g *Game) Tick() int64 { return g.world.TickCount() }

// LastReport returns the report of the most recent tick.
func (g *Game) LastReport() TickReport { return g.last }

// Totals returns events accumulated since the game started.
func (g *Game) Totals() telemetry.TickEvents { return g.totals }

// PerfStats returns timing statistics over the recent ticks.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// Paused reports whether Update is currently a no-op.
func (g *Game) Paused() bool { return g.paused }

// TogglePause flips the paused state.
func (g *Game) TogglePause() { g.paused = !g.paused }

// Speed returns the ticks run per interactive update.
func (g *Game) Speed() int { return g.speed }

// SetSpeed sets the ticks run per interactive update, clamped to
// [MinSpeed, MaxSpeed].
func (g *Game) SetSpeed(s int) {
	g.speed = max(MinSpeed, min(MaxSpeed, s))
}

// Step advances one tick of physics.dt milliseconds.
func (g *Game) Step() TickReport {
	g.last = g.world.Tick(g.cfg.Physics.DT)
	g.totals.Add(g.last.TickEvents)
	g.collector.Record(g.last.TickEvents)
	g.flushTelemetry()
	return g.last
}

// UpdateHeadless runs StepsPerUpdate ticks, stopping early at MaxTicks.
func (g *Game) UpdateHeadless() {
	for range g.budget(g.stepsPerUpdate) {
		g.Step()
	}
}

// Done reports whether the tick limit has been reached.
func (g *Game) Done() bool {
	return g.maxTicks > 0 && g.Tick() >= g.maxTicks
}

// budget caps a batch of n ticks at the tick limit.
func (g *Game) budget(n int) int {
	if g.maxTicks == 0 {
		return n
	}
	return int(max(0, min(int64(n), g.maxTicks-g.Tick())))
}

// Update runs one interactive frame: Speed ticks unless paused.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	if g.paused {
		return
	}
	for range g.budget(g.speed) {
		g.Step()
	}
}

// Unload flushes and closes output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// SaveSnapshot writes the current state to dir.
func (g *Game) SaveSnapshot(dir string, bookmark *telemetry.Bookmark) (string, error) {
	snap := g.world.Snapshot()
	snap.Bookmark = bookmark
	return telemetry.SaveSnapshot(snap, dir)
}

package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/game"
	"github.com/pthm-cable/creatures/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	restorePath := flag.String("restore", "", "Resume from a snapshot file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
		MaxTicks:       *maxTicks,
	}
	if *restorePath != "" {
		snap, err := telemetry.LoadSnapshot(*restorePath)
		if err != nil {
			slog.Error("failed to load snapshot", "path", *restorePath, "error", err)
			os.Exit(1)
		}
		opts.Restore = snap
		slog.Info("restoring snapshot", "path", *restorePath, "tick", snap.Tick, "agents", len(snap.Agents))
	}

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	if *headless {
		runHeadless(g, *maxTicks)
		return
	}
	runWindow(g, cfg, *snapshotDir)
}

func runHeadless(g *game.Game, maxTicks int64) {
	slog.Info("starting headless simulation",
		"seed", g.World().Seed(),
		"max_ticks", maxTicks,
	)
	for {
		g.UpdateHeadless()

		if g.World().Count() == 0 && g.World().Config().Spawn.Interval <= 0 {
			slog.Info("population extinct", "tick", g.Tick())
			return
		}
		if g.Done() {
			slog.Info("max ticks reached", "tick", g.Tick(), "agents", g.World().Count())
			return
		}
	}
}

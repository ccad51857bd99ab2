package game

import (
	"log/slog"

	"github.com/pthm-cable/creatures/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	simSec := g.world.Clock() / 1000
	if !g.collector.ShouldFlush(simSec) {
		return
	}

	stats := g.collector.Flush(g.sample(simSec))
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveBookmarkSnapshot(bm)
		}
	}
}

// sample collects the population distributions for a window boundary.
func (g *Game) sample(simSec float64) telemetry.Sample {
	agents := g.world.Agents()
	s := telemetry.Sample{
		Tick:           g.world.TickCount(),
		SimTimeSec:     simSec,
		Food:           g.world.FoodCount(),
		Health:         make([]float64, 0, len(agents)),
		Size:           make([]float64, 0, len(agents)),
		Speed:          make([]float64, 0, len(agents)),
		Vision:         make([]float64, 0, len(agents)),
		Genomes:        g.world.Genomes(),
		AvgLifespanSec: g.world.AverageLifespan(),
	}
	for _, a := range agents {
		s.Health = append(s.Health, a.Health)
		s.Size = append(s.Size, a.Size)
		s.Speed = append(s.Speed, a.Speed)
		s.Vision = append(s.Vision, a.Vision)
		s.MaxGeneration = max(s.MaxGeneration, a.Generation)
	}
	return s
}

func (g *Game) saveBookmarkSnapshot(bm telemetry.Bookmark) {
	path, err := g.SaveSnapshot(g.snapshotDir, &bm)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.world.TickCount())
}

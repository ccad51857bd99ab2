package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/telemetry"
)

func TestGameHeadlessWritesTelemetry(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.StatsWindow = 1
	dir := t.TempDir()

	var windows []telemetry.WindowStats
	g, err := NewGameWithOptions(cfg, Options{
		Seed:           5,
		OutputDir:      dir,
		StepsPerUpdate: 60,
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	for range 3 {
		g.UpdateHeadless()
	}
	g.Unload()

	if g.Tick() != 180 {
		t.Errorf("tick = %d, want 180", g.Tick())
	}
	if len(windows) < 2 {
		t.Fatalf("got %d windows, want at least 2", len(windows))
	}
	if windows[0].Agents == 0 && windows[0].Deaths == 0 {
		t.Error("first window saw no agents at all")
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if rows := strings.Count(strings.TrimSpace(string(data)), "\n"); rows != len(windows) {
		t.Errorf("telemetry.csv has %d rows, want %d", rows, len(windows))
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config copy missing: %v", err)
	}
}

func TestGamePauseAndSpeed(t *testing.T) {
	g, err := NewGameWithOptions(config.Default(), Options{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	g.SetSpeed(3)
	g.Update()
	if g.Tick() != 3 {
		t.Errorf("tick = %d after one update at speed 3", g.Tick())
	}

	g.TogglePause()
	g.Update()
	if g.Tick() != 3 {
		t.Error("paused game advanced")
	}

	g.SetSpeed(100)
	if g.Speed() != MaxSpeed {
		t.Errorf("speed = %d, want clamped to %d", g.Speed(), MaxSpeed)
	}
}

func TestGameTotalsAndRestore(t *testing.T) {
	cfg := config.Default()
	g, err := NewGameWithOptions(cfg, Options{Seed: 9})
	if err != nil {
		t.Fatal(err)
	}
	var births int
	for range 200 {
		births += g.Step().Births
	}
	if g.Totals().Births != births {
		t.Errorf("totals births = %d, want %d", g.Totals().Births, births)
	}

	path, err := g.SaveSnapshot(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewGameWithOptions(cfg, Options{Restore: snap})
	if err != nil {
		t.Fatalf("restore game: %v", err)
	}
	if r.Tick() != g.Tick() || r.World().Count() != g.World().Count() {
		t.Errorf("restored tick/count = %d/%d, want %d/%d",
			r.Tick(), r.World().Count(), g.Tick(), g.World().Count())
	}
}

func TestGameStopsAtMaxTicks(t *testing.T) {
	tests := []struct {
		name     string
		steps    int
		maxTicks int64
		calls    int
		want     int64
	}{
		{"partial last batch", 7, 10, 3, 10},
		{"exact multiple", 5, 10, 4, 10},
		{"unlimited", 7, 0, 3, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGameWithOptions(testConfig(), Options{
				Seed:           3,
				StepsPerUpdate: tt.steps,
				MaxTicks:       tt.maxTicks,
			})
			if err != nil {
				t.Fatalf("NewGameWithOptions: %v", err)
			}
			defer g.Unload()

			for range tt.calls {
				g.UpdateHeadless()
			}
			if g.Tick() != tt.want {
				t.Errorf("tick = %d, want %d", g.Tick(), tt.want)
			}
			if done := tt.maxTicks > 0; g.Done() != done {
				t.Errorf("Done() = %v, want %v", g.Done(), done)
			}
		})
	}
}

package main

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/creatures/camera"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/game"
	"github.com/pthm-cable/creatures/renderer"
	"github.com/pthm-cable/creatures/ui"
)

const controlsLegend = "[Space] Pause  [+/-] Speed  [S] Step  [Tab] Panel  [Wheel] Zoom  [RMB] Pan  [R] Reset view  [Click] Inspect"

// app holds the interactive front end around a Game.
type app struct {
	g           *game.Game
	cam         *camera.Camera
	world       *renderer.WorldRenderer
	overlays    *ui.OverlayRegistry
	hud         *ui.HUD
	controls    *ui.ControlsPanel
	inspector   *ui.Inspector
	perf        *ui.PerfPanel
	snapshotDir string

	selected uint32
	hasSel   bool
}

func runWindow(g *game.Game, cfg *config.Config, snapshotDir string) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Creatures")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	if snapshotDir == "" {
		snapshotDir = "snapshots"
	}
	a := &app{
		g:           g,
		cam:         camera.New(float64(cfg.Screen.Width), float64(cfg.Screen.Height), cfg.Derived.WorldW, cfg.Derived.WorldH),
		world:       renderer.NewWorldRenderer(),
		overlays:    ui.NewOverlayRegistry(),
		hud:         ui.NewHUD(),
		controls:    ui.NewControlsPanel(10, 120, 200),
		inspector:   ui.NewInspector(0, 10, 220),
		perf:        ui.NewPerfPanel(0, 0),
		snapshotDir: snapshotDir,
	}

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			a.cam.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
		}
		a.handleInput()
		g.Update()
		a.draw()

		if g.Done() {
			break
		}
	}
}

func (a *app) handleInput() {
	a.overlays.HandleKeys()

	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		a.g.TogglePause()
	case rl.IsKeyPressed(rl.KeyEqual), rl.IsKeyPressed(rl.KeyKpAdd):
		a.g.SetSpeed(a.g.Speed() + 1)
	case rl.IsKeyPressed(rl.KeyMinus), rl.IsKeyPressed(rl.KeyKpSubtract):
		a.g.SetSpeed(a.g.Speed() - 1)
	case rl.IsKeyPressed(rl.KeyS):
		if a.g.Paused() {
			a.g.Step()
		}
	case rl.IsKeyPressed(rl.KeyTab):
		a.controls.Toggle()
	case rl.IsKeyPressed(rl.KeyR):
		a.cam.Reset()
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := 1.1
		if wheel < 0 {
			factor = 1 / factor
		}
		a.cam.ZoomBy(factor)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		a.cam.Pan(-float64(d.X), -float64(d.Y))
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		m := rl.GetMousePosition()
		if a.controls.Contains(m.X, m.Y) {
			return
		}
		wx, wy := a.cam.ScreenToWorld(float64(m.X), float64(m.Y))
		a.selected, a.hasSel = a.g.World().AgentAt(wx, wy)
	}
}

func (a *app) draw() {
	w := a.g.World()
	cfg := w.Config()
	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())

	var sel game.AgentView
	if a.hasSel {
		sel, a.hasSel = w.Agent(a.selected)
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	a.world.Draw(a.cam, w.Agents(), w.Foods(), renderer.DrawOptions{
		Vision:      a.overlays.IsEnabled(ui.OverlayVision),
		Heading:     a.overlays.IsEnabled(ui.OverlayHeading),
		Fertile:     a.overlays.IsEnabled(ui.OverlayFertile),
		HealthShade: a.overlays.IsEnabled(ui.OverlayHealthShade),
		HealthRef:   2 * cfg.Reproduction.MinHealth,
		Selected:    a.selected,
		HasSel:      a.hasSel,
	})

	a.hud.Draw(ui.HUDData{
		Title:       "Creatures",
		Agents:      w.Count(),
		Cap:         cfg.World.Cap,
		Food:        w.FoodCount(),
		Tick:        a.g.Tick(),
		SimTimeSec:  w.Clock() / 1000,
		Speed:       a.g.Speed(),
		FPS:         rl.GetFPS(),
		Paused:      a.g.Paused(),
		AvgLifespan: w.AverageLifespan(),
		Totals:      a.g.Totals(),
	})
	a.hud.DrawControls(screenH, controlsLegend)

	speed, action := a.controls.Draw(ui.ControlsState{
		Paused:   a.g.Paused(),
		Speed:    a.g.Speed(),
		MinSpeed: game.MinSpeed,
		MaxSpeed: game.MaxSpeed,
	}, a.overlays)
	a.g.SetSpeed(speed)
	a.apply(action)

	if a.hasSel {
		a.inspector.SetPosition(screenW-230, 10)
		a.inspector.Draw(sel, cfg.Reproduction.MinHealth)
	}
	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perf.SetPosition(screenW-270, screenH-180)
		a.perf.Draw(a.g.PerfStats())
	}

	rl.EndDrawing()
}

func (a *app) apply(action ui.Action) {
	switch action {
	case ui.ActionTogglePause:
		a.g.TogglePause()
	case ui.ActionStep:
		if a.g.Paused() {
			a.g.Step()
		}
	case ui.ActionSpawn:
		if id, ok := a.g.World().SpawnRandom(); ok {
			a.selected, a.hasSel = id, true
		}
	case ui.ActionSnapshot:
		path, err := a.g.SaveSnapshot(a.snapshotDir, nil)
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
			return
		}
		slog.Info("snapshot saved", "path", path, "tick", a.g.Tick())
	}
}

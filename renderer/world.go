// Package renderer draws the arena, its food and its agents.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/creatures/camera"
	"github.com/pthm-cable/creatures/game"
)

// DrawOptions selects the optional layers drawn over the agents.
type DrawOptions struct {
	Vision      bool
	Heading     bool
	Fertile     bool
	HealthShade bool
	// Health at which an agent is drawn at full brightness with HealthShade
	HealthRef float64
	Selected  uint32
	HasSel    bool
}

// WorldRenderer draws the arena contents through a camera.
type WorldRenderer struct {
	arenaBg     rl.Color
	arenaBorder rl.Color
	foodColor   rl.Color
	visionColor rl.Color
	fertile     rl.Color
	selected    rl.Color
}

// NewWorldRenderer creates a world renderer with the default palette.
func NewWorldRenderer() *WorldRenderer {
	return &WorldRenderer{
		arenaBg:     rl.Color{R: 12, G: 16, B: 22, A: 255},
		arenaBorder: rl.Color{R: 70, G: 80, B: 95, A: 255},
		foodColor:   rl.Color{R: 90, G: 200, B: 90, A: 255},
		visionColor: rl.Color{R: 120, G: 160, B: 255, A: 40},
		fertile:     rl.Color{R: 255, G: 120, B: 200, A: 255},
		selected:    rl.Yellow,
	}
}

// Draw renders the arena background, then food, then agents.
func (r *WorldRenderer) Draw(cam *camera.Camera, agents []game.AgentView, foods []game.FoodView, opts DrawOptions) {
	x0, y0 := cam.WorldToScreen(0, 0)
	rect := rl.Rectangle{
		X:      float32(x0),
		Y:      float32(y0),
		Width:  float32(cam.Scale(cam.WorldW)),
		Height: float32(cam.Scale(cam.WorldH)),
	}
	rl.DrawRectangleRec(rect, r.arenaBg)
	rl.DrawRectangleLinesEx(rect, 1, r.arenaBorder)

	for _, f := range foods {
		half := f.Size / 2
		if !cam.IsVisible(f.X, f.Y, half) {
			continue
		}
		rl.DrawRectangleRec(square(cam, f.X, f.Y, half), r.foodColor)
	}

	if opts.Vision {
		for _, a := range agents {
			if cam.IsVisible(a.X, a.Y, a.Vision) {
				rl.DrawRectangleRec(square(cam, a.X, a.Y, a.Vision), r.visionColor)
			}
		}
	}

	for _, a := range agents {
		half := a.Size / 2
		if !cam.IsVisible(a.X, a.Y, half) {
			continue
		}
		body := square(cam, a.X, a.Y, half)
		rl.DrawRectangleRec(body, r.agentColor(a, opts))

		if opts.Fertile && a.CanReproduce {
			rl.DrawRectangleLinesEx(body, 1, r.fertile)
		}
		if opts.HasSel && a.ID == opts.Selected {
			outline := square(cam, a.X, a.Y, half+3/cam.Zoom)
			rl.DrawRectangleLinesEx(outline, 2, r.selected)
		}
		if opts.Heading {
			sx, sy := cam.WorldToScreen(a.X, a.Y)
			tip := cam.Scale(a.Size)
			ex := sx + math.Cos(a.Heading)*tip
			ey := sy + math.Sin(a.Heading)*tip
			rl.DrawLine(int32(sx), int32(sy), int32(ex), int32(ey), rl.RayWhite)
		}
	}
}

func (r *WorldRenderer) agentColor(a game.AgentView, opts DrawOptions) rl.Color {
	c := rl.Color{R: a.Color.R, G: a.Color.G, B: a.Color.B, A: 255}
	if !opts.HealthShade || opts.HealthRef <= 0 {
		return c
	}
	shade := 0.25 + 0.75*min(1, max(0, a.Health/opts.HealthRef))
	c.R = uint8(float64(c.R) * shade)
	c.G = uint8(float64(c.G) * shade)
	c.B = uint8(float64(c.B) * shade)
	return c
}

// square converts a center and half-width in arena units to a screen rect.
func square(cam *camera.Camera, x, y, half float64) rl.Rectangle {
	sx, sy := cam.WorldToScreen(x-half, y-half)
	side := float32(cam.Scale(2 * half))
	return rl.Rectangle{X: float32(sx), Y: float32(sy), Width: side, Height: side}
}

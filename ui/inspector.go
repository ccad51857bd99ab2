package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/creatures/game"
	"github.com/pthm-cable/creatures/inspector"
)

// Inspector renders the selected agent's panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the panel for a, using minHealth as the reference level of
// the health bar.
func (ins *Inspector) Draw(a game.AgentView, minHealth float64) {
	r := ins.renderer
	padding := r.Theme.Padding
	x := ins.x + padding
	fields := inspector.ExtractFields(a)

	height := int32(len(fields)+3)*r.Theme.LineHeight + padding*2 + 8
	r.DrawPanel(ins.x, ins.y, ins.width, height)
	y := ins.y + padding

	swatch := rl.Color{R: a.Color.R, G: a.Color.G, B: a.Color.B, A: 255}
	rl.DrawRectangle(x, y, 14, 14, swatch)
	rl.DrawText(fmt.Sprintf("Agent #%d", a.ID), x+20, y, 16, rl.White)
	y += r.Theme.LineHeight + 6

	y = r.DrawHealthBar(x, y, a.Health, 2*minHealth, ins.width-padding*2)
	y = r.DrawLabelValue(x, y, "Position", fmt.Sprintf("%.0f, %.0f", a.X, a.Y))
	for _, f := range fields {
		y = r.DrawLabelValue(x, y, f.Name, f.Format())
	}
}

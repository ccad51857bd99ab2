package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Action is a user request raised by the controls panel.
type Action int

const (
	ActionNone Action = iota
	ActionTogglePause
	ActionStep
	ActionSpawn
	ActionSnapshot
)

// ControlsState is the simulation state the panel reflects.
type ControlsState struct {
	Paused   bool
	Speed    int
	MinSpeed int
	MaxSpeed int
}

// ControlsPanel renders simulation controls and the overlay legend.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Contains reports whether a screen point lies over the panel, so clicks on
// it are not treated as arena picks.
func (c *ControlsPanel) Contains(x, y float32) bool {
	return c.visible &&
		x >= float32(c.x) && x < float32(c.x+c.width) &&
		y >= float32(c.y) && y < float32(c.y+c.height)
}

func (c *ControlsPanel) measure(overlays int) int32 {
	t := c.renderer.Theme
	return t.Padding*3 + t.LineHeight*4 + 30*2 + 20 + int32(overlays)*t.LineHeight
}

// Draw renders the panel and returns the new speed along with any button
// action clicked this frame.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) (int, Action) {
	if !c.visible {
		return state.Speed, ActionNone
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	descs := overlays.All()

	c.height = c.measure(len(descs))
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	w := float32(c.width - padding*2)
	half := (w - 6) / 2

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += float32(lineHeight + 4)

	action := ActionNone
	pauseText := "Pause"
	if state.Paused {
		pauseText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, pauseText) {
		action = ActionTogglePause
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 24}, "Step") {
		action = ActionStep
	}
	y += 30
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Spawn") {
		action = ActionSpawn
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 24}, "Snapshot") {
		action = ActionSnapshot
	}
	y += 30

	rl.DrawText(fmt.Sprintf("Speed: %dx", state.Speed), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += float32(lineHeight)
	value := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: w - 40, Height: 14},
		fmt.Sprint(state.MinSpeed), fmt.Sprint(state.MaxSpeed),
		float32(state.Speed), float32(state.MinSpeed), float32(state.MaxSpeed),
	)
	speed := int(value + 0.5)
	y += 20

	rl.DrawText("Overlays", int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	y += float32(lineHeight)
	for _, desc := range descs {
		c.drawToggle(int32(x), int32(y), desc, overlays.IsEnabled(desc.ID), int32(w))
		y += float32(lineHeight)
	}

	return speed, action
}

func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.LabelColor
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

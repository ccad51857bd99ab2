// Food placement preview tool - shows the patchy density field and a sample
// of food scattered by it, with sliders for the placement parameters.
//
// Usage: go run ./cmd/foodpreview [-config path]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/game"
)

const (
	windowHeight = 720
	panelWidth   = 320
	gridStep     = 4 // arena pixels per density texel
)

// previewParams holds the tunable placement parameters.
type previewParams struct {
	Patchiness float32
	NoiseScale float32
	Count      int
	Seed       int64
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	flag.Parse()

	base, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	arenaW, arenaH := int32(base.Derived.WorldW), int32(base.Derived.WorldH)
	windowWidth := arenaW + panelWidth + 30

	rl.InitWindow(windowWidth, max(windowHeight, arenaH+20), "Food Placement Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	defaults := previewParams{
		Patchiness: float32(base.Food.Patchiness),
		NoiseScale: float32(base.Food.NoiseScale),
		Count:      base.World.InitialFood,
		Seed:       game.DefaultSeed,
	}
	params := defaults

	gw, gh := int(arenaW/gridStep), int(arenaH/gridStep)
	img := rl.GenImageColor(gw, gh, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var foods []game.FoodView
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			cfg := apply(base, params)
			updateTexture(texture, densityGrid(cfg, params.Seed, gw, gh), gw, gh)
			foods = scatter(cfg, params.Seed)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(gw), Height: float32(gh)},
			rl.Rectangle{X: 10, Y: 10, Width: float32(arenaW), Height: float32(arenaH)},
			rl.Vector2{},
			0,
			rl.White,
		)
		for _, f := range foods {
			rl.DrawRectangle(int32(10+f.X-f.Size/2), int32(10+f.Y-f.Size/2), int32(f.Size), int32(f.Size), rl.Green)
		}
		rl.DrawRectangleLines(10, 10, arenaW, arenaH, rl.DarkGray)

		panelX := float32(arenaW + 20)
		panelY := float32(10)
		rl.DrawText("Food Placement", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText("Patchiness (0 = uniform)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newPatch := gui.SliderBar(rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 80, Height: 20}, "0", "1", params.Patchiness, 0, 1)
		rl.DrawText(fmt.Sprintf("%.2f", params.Patchiness), int32(panelX+panelWidth-70), int32(panelY+2), 16, rl.DarkGray)
		if newPatch != params.Patchiness {
			params.Patchiness = newPatch
			needsRegen = true
		}
		panelY += 35

		rl.DrawText("Noise scale (frequency)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newScale := gui.SliderBar(rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 80, Height: 20}, "", "", params.NoiseScale, 0.001, 0.05)
		rl.DrawText(fmt.Sprintf("%.3f", params.NoiseScale), int32(panelX+panelWidth-70), int32(panelY+2), 16, rl.DarkGray)
		if newScale != params.NoiseScale {
			params.NoiseScale = newScale
			needsRegen = true
		}
		panelY += 35

		rl.DrawText("Food items", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newCount := gui.SliderBar(rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 80, Height: 20}, "", "", float32(params.Count), 10, 1000)
		rl.DrawText(fmt.Sprintf("%d", params.Count), int32(panelX+panelWidth-70), int32(panelY+2), 16, rl.DarkGray)
		if int(newCount) != params.Count {
			params.Count = int(newCount)
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(1, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		panelY += 45
		rl.DrawText(fmt.Sprintf("Seed: %d", params.Seed), int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 30

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yaml := yamlSnippet(params)
		rl.DrawText(yaml, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(rl.GetScreenHeight()-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func apply(base *config.Config, p previewParams) *config.Config {
	cfg := base.Clone()
	cfg.Food.Patchiness = float64(p.Patchiness)
	cfg.Food.NoiseScale = float64(p.NoiseScale)
	cfg.World.InitialFood = p.Count
	cfg.World.InitialAgents = 0
	return cfg
}

// scatter places food the way a fresh world with this seed would.
func scatter(cfg *config.Config, seed int64) []game.FoodView {
	w, err := game.NewWorld(cfg, game.WithSeed(seed))
	if err != nil {
		log.Printf("invalid parameters: %v", err)
		return nil
	}
	return w.Foods()
}

func densityGrid(cfg *config.Config, seed int64, gw, gh int) []float64 {
	noise := opensimplex.NewNormalized(seed)
	grid := make([]float64, gw*gh)
	for y := range gh {
		for x := range gw {
			wx := (float64(x) + 0.5) * gridStep
			wy := (float64(y) + 0.5) * gridStep
			grid[y*gw+x] = game.FoodDensity(noise, cfg.Food, wx, wy)
		}
	}
	return grid
}

func updateTexture(texture rl.Texture2D, grid []float64, gw, gh int) {
	pixels := make([]color.RGBA, gw*gh)
	for i, v := range grid {
		// dark soil to bright moss
		pixels[i] = color.RGBA{
			R: uint8(30 + v*60),
			G: uint8(25 + v*140),
			B: uint8(20 + v*40),
			A: 255,
		}
	}
	rl.UpdateTexture(texture, pixels)
}

func yamlSnippet(p previewParams) string {
	return fmt.Sprintf("food:\n  patchiness: %.2f\n  noise_scale: %.4f\nworld:\n  initial_food: %d",
		p.Patchiness, p.NoiseScale, p.Count)
}

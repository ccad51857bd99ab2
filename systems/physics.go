package systems

import (
	"math"

	"github.com/pthm-cable/creatures/components"
)

// Bounds is the arena size. Body centers stay inside [size/2, W-size/2].
type Bounds struct {
	W, H float64
}

// Clamp moves a body center of the given size inside the arena.
// It reports whether any clamping was needed.
func (b Bounds) Clamp(x, y, size float64) (cx, cy float64, clamped bool) {
	half := size / 2
	cx, cy = x, y
	if cx < half {
		cx, clamped = half, true
	} else if cx > b.W-half {
		cx, clamped = b.W-half, true
	}
	if cy < half {
		cy, clamped = half, true
	} else if cy > b.H-half {
		cy, clamped = b.H-half, true
	}
	// Arenas smaller than the body pin it to the center
	if b.W < size {
		cx = b.W / 2
	}
	if b.H < size {
		cy = b.H / 2
	}
	return cx, cy, clamped
}

// Displacement returns the distance covered in dt milliseconds.
func Displacement(speed, scale, dt float64) float64 {
	return speed * scale * dt
}

// Step integrates one tick of motion. Velocity accumulates into the
// remainder, only whole pixels are applied to the position, and the fraction
// carries over so slow agents still drift. Returns true when the move would
// have left the arena; the position is then clamped onto the boundary and the
// remainder on that axis discarded.
func Step(pos *components.Position, mot *components.Motion, speed, scale, dt, size float64, b Bounds) bool {
	d := Displacement(speed, scale, dt)
	mot.RemX += d * math.Cos(mot.Heading)
	mot.RemY += d * math.Sin(mot.Heading)

	stepX := math.Trunc(mot.RemX)
	stepY := math.Trunc(mot.RemY)
	mot.RemX -= stepX
	mot.RemY -= stepY

	nx, ny, hit := b.Clamp(pos.X+stepX, pos.Y+stepY, size)
	if nx != pos.X+stepX {
		mot.RemX = 0
	}
	if ny != pos.Y+stepY {
		mot.RemY = 0
	}
	pos.X, pos.Y = nx, ny
	return hit
}

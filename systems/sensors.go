package systems

import "math"

// Target is the result of a vision scan.
type Target struct {
	Found  bool
	Food   bool // food targets beat agent targets
	Ord    int  // ordinal in the food list or agent list
	DX, DY float64
	Dist   float64
}

// Locator returns the current position of the item with the given ordinal,
// and whether it can be seen at all.
type Locator func(ord int) (x, y float64, ok bool)

// Nearest picks the closest candidate inside the square vision region
// (|dx| and |dy| both <= vision). Distance is Euclidean; equal distances keep
// the lowest ordinal, which is the population's iteration order.
// Candidates may contain duplicates or items outside the region.
func Nearest(x, y, vision float64, candidates []int, locate Locator) (best Target) {
	for _, ord := range candidates {
		cx, cy, ok := locate(ord)
		if !ok {
			continue
		}
		dx, dy := cx-x, cy-y
		if math.Abs(dx) > vision || math.Abs(dy) > vision {
			continue
		}
		d := math.Hypot(dx, dy)
		if !best.Found || d < best.Dist || (d == best.Dist && ord < best.Ord) {
			best = Target{Found: true, Ord: ord, DX: dx, DY: dy, Dist: d}
		}
	}
	return best
}

// Overlaps reports whether two axis-aligned squares centered at (ax, ay) and
// (bx, by) with the given sizes overlap.
func Overlaps(ax, ay, as, bx, by, bs float64) bool {
	h := (as + bs) / 2
	return math.Abs(ax-bx) < h && math.Abs(ay-by) < h
}

package systems

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/traits"
)

var testMetabolism = config.MetabolismConfig{CostScale: 0.00005, SizeOffset: 2, MinEffectiveSize: 5}

func TestSpatialGridQuery(t *testing.T) {
	g := NewSpatialGrid(640, 480, 64)
	pts := [][2]float64{{10, 10}, {100, 100}, {600, 400}, {639, 479}, {130, 70}}
	for i, p := range pts {
		g.Insert(i, p[0], p[1])
	}

	got := g.QueryInto(nil, 100, 100, 40)
	sort.Ints(got)
	// The square [60,140] x [60,140] touches cells 0..2 on both axes
	want := []int{0, 1, 4}
	if len(got) != len(want) {
		t.Fatalf("QueryInto = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("QueryInto = %v, want %v", got, want)
		}
	}

	g.Clear()
	if got := g.QueryInto(nil, 320, 240, 1000); len(got) != 0 {
		t.Errorf("after Clear got %v, want empty", got)
	}
}

func TestNearestTieBreaksByOrdinal(t *testing.T) {
	pos := map[int][2]float64{
		3: {110, 100}, // distance 10
		1: {90, 100},  // distance 10, lower ordinal
		2: {100, 130}, // distance 30
		4: {200, 100}, // outside vision
	}
	locate := func(ord int) (float64, float64, bool) {
		p, ok := pos[ord]
		return p[0], p[1], ok
	}

	best := Nearest(100, 100, 50, []int{3, 2, 4, 1}, locate)
	if !best.Found || best.Ord != 1 {
		t.Fatalf("Nearest = %+v, want ordinal 1", best)
	}
	if best.DX != -10 || best.DY != 0 {
		t.Errorf("delta = (%f, %f), want (-10, 0)", best.DX, best.DY)
	}

	if none := Nearest(100, 100, 5, []int{1, 2, 3}, locate); none.Found {
		t.Errorf("expected no target inside vision 5, got %+v", none)
	}
}

func TestNearestUsesSquareRegion(t *testing.T) {
	// (40, 40) is farther than 50 in Euclidean terms but inside the square.
	locate := func(int) (float64, float64, bool) { return 40, 40, true }
	if best := Nearest(0, 0, 50, []int{0}, locate); !best.Found {
		t.Error("corner of the square vision region should be visible")
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name               string
		ax, ay, as, bx, by float64
		bs                 float64
		want               bool
	}{
		{"same spot", 10, 10, 10, 10, 10, 3, true},
		{"touching edges", 0, 0, 10, 10, 0, 10, false},
		{"just inside", 0, 0, 10, 9.9, 0, 10, true},
		{"diagonal apart", 0, 0, 4, 5, 5, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.ax, tt.ay, tt.as, tt.bx, tt.by, tt.bs); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStepAccumulatesRemainder(t *testing.T) {
	b := Bounds{W: 640, H: 480}
	pos := components.Position{X: 100, Y: 100}
	mot := components.Motion{Heading: 0}

	// 0.3 px per tick: nothing moves for 3 ticks, then one pixel
	for i := 0; i < 3; i++ {
		Step(&pos, &mot, 1, 0.1, 3, 10, b)
		if pos.X != 100 {
			t.Fatalf("tick %d: x = %f, want 100", i, pos.X)
		}
	}
	Step(&pos, &mot, 1, 0.1, 3, 10, b)
	if pos.X != 101 {
		t.Errorf("x = %f after 1.2 px accumulated, want 101", pos.X)
	}
	if math.Abs(mot.RemX-0.2) > 1e-9 {
		t.Errorf("remainder = %f, want 0.2", mot.RemX)
	}
}

func TestStepClampsAtBoundary(t *testing.T) {
	b := Bounds{W: 640, H: 480}
	pos := components.Position{X: 630, Y: 240}
	mot := components.Motion{Heading: 0}

	hit := Step(&pos, &mot, 1, 0.1, 1000, 10, b)
	if !hit {
		t.Error("expected boundary hit")
	}
	if pos.X != 635 || pos.Y != 240 {
		t.Errorf("position = (%f, %f), want (635, 240)", pos.X, pos.Y)
	}
	if mot.RemX != 0 {
		t.Errorf("remainder on clamped axis = %f, want 0", mot.RemX)
	}
}

func TestMetabolicCost(t *testing.T) {
	tests := []struct {
		name                string
		size, speed, vision float64
		dt                  float64
		want                float64
	}{
		// ((max(10-2,5))^3 * 1^2 + 50) * 1000 * 0.00005
		{"scenario", 10, 1, 50, 1000, (512 + 50) * 1000 * 0.00005},
		// effective size floors at 5
		{"small body", 4, 2, 10, 100, (125*4 + 10) * 100 * 0.00005},
		{"stationary", 10, 0, 30, 1000, 30 * 1000 * 0.00005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := traits.Phenotype{Size: tt.size, Speed: tt.speed, Vision: tt.vision}
			got := MetabolicCost(p, tt.dt, testMetabolism)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MetabolicCost() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestUpdateEnergyDeath(t *testing.T) {
	p := traits.Phenotype{Size: 10, Speed: 1, Vision: 50}
	vit := components.Vitals{Health: 28}
	if died := UpdateEnergy(&vit, p, 1000, testMetabolism); !died {
		t.Errorf("health %f should be exhausted", vit.Health)
	}
	if !vit.Dead {
		t.Error("Dead flag not set")
	}
	if died := UpdateEnergy(&vit, p, 1000, testMetabolism); died {
		t.Error("dead agent reported death twice")
	}
}

func TestUpdateCooldownsFloor(t *testing.T) {
	vit := components.Vitals{TurnCooldown: 5, ReproCooldown: 50}
	UpdateCooldowns(&vit, 16)
	if vit.TurnCooldown != 0 || vit.ReproCooldown != 34 {
		t.Errorf("cooldowns = (%f, %f), want (0, 34)", vit.TurnCooldown, vit.ReproCooldown)
	}
}

func TestDonateConservesHealth(t *testing.T) {
	r := config.ReproductionConfig{Cooldown: 3000, MinDonation: 40}
	tests := []struct {
		name   string
		health float64
		share  float64
	}{
		{"half", 300, 0.5},
		{"floor applies", 50, 0.3},
		{"floor capped by health", 20, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vit := components.Vitals{Health: tt.health}
			d := Donate(&vit, tt.share, r)
			if vit.Health+d != tt.health {
				t.Errorf("parent %f + child %f != before %f", vit.Health, d, tt.health)
			}
			if vit.ReproCooldown != r.Cooldown {
				t.Errorf("cooldown = %f, want %f", vit.ReproCooldown, r.Cooldown)
			}
		})
	}
}

func TestCanReproduce(t *testing.T) {
	r := config.ReproductionConfig{MinHealth: 100}
	tests := []struct {
		name string
		vit  components.Vitals
		want bool
	}{
		{"eligible", components.Vitals{Health: 150}, true},
		{"cooldown", components.Vitals{Health: 150, ReproCooldown: 1}, false},
		{"at threshold", components.Vitals{Health: 100}, false},
		{"dead", components.Vitals{Health: 150, Dead: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReproduce(&tt.vit, r); got != tt.want {
				t.Errorf("CanReproduce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAsexualRollRate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	hits := 0
	const n = 100000
	for i := 0; i < n; i++ {
		if AsexualRoll(rng, 0.5, 100) { // p = 0.05 per roll
			hits++
		}
	}
	if got := float64(hits) / n; math.Abs(got-0.05) > 0.005 {
		t.Errorf("hit rate = %f, want ~0.05", got)
	}
	if AsexualRoll(rng, 0, 1000) {
		t.Error("zero propensity must never trigger")
	}
}

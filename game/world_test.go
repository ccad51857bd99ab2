package game

import (
	"math"
	"slices"
	"testing"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/traits"
)

// testConfig is the default config with every automatic source of agents
// and food switched off.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.InitialAgents = 0
	cfg.World.InitialFood = 0
	cfg.Food.SpawnInterval = 0
	cfg.Food.CorpseFactor = 0
	cfg.Spawn.Interval = 0
	return cfg
}

func newTestWorld(t *testing.T, cfg *config.Config) *World {
	t.Helper()
	w, err := NewWorld(cfg, WithSeed(7))
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func fixedTraits(size, speed, vision float64) *traits.Phenotype {
	return &traits.Phenotype{Size: size, Speed: speed, Vision: vision}
}

func mustSpawn(t *testing.T, w *World, spec AgentSpec) uint32 {
	t.Helper()
	id, ok := w.Spawn(spec)
	if !ok {
		t.Fatal("spawn discarded")
	}
	return id
}

func mustAgent(t *testing.T, w *World, id uint32) AgentView {
	t.Helper()
	a, ok := w.Agent(id)
	if !ok {
		t.Fatalf("agent %d not found", id)
	}
	return a
}

func TestTickMovesAndPaysMetabolism(t *testing.T) {
	w := newTestWorld(t, testConfig())
	id := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 20000, fixed: fixedTraits(10, 1, 50)})

	w.Tick(1000)

	a := mustAgent(t, w, id)
	wantCost := (math.Pow(8, 3)*1*1 + 50) * 1000 * 0.00005
	if math.Abs(a.Health-(20000-wantCost)) > 1e-9 {
		t.Errorf("health = %v, want %v", a.Health, 20000-wantCost)
	}
	if a.X != 200 || a.Y != 100 {
		t.Errorf("position = (%v, %v), want (200, 100)", a.X, a.Y)
	}
}

func TestTickClampsAtBoundary(t *testing.T) {
	w := newTestWorld(t, testConfig())
	id := mustSpawn(t, w, AgentSpec{X: 600, Y: 100, Health: 20000, fixed: fixedTraits(10, 1, 20)})

	w.Tick(1000)

	a := mustAgent(t, w, id)
	if a.X != 635 {
		t.Errorf("x = %v, want clamped to 635", a.X)
	}
	if a.Y < 5 || a.Y > 475 {
		t.Errorf("y = %v out of bounds", a.Y)
	}
}

func TestSlowAgentsStillDrift(t *testing.T) {
	w := newTestWorld(t, testConfig())
	// 0.05 px per tick: rounding each step would never move.
	id := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 20000, fixed: fixedTraits(10, 0.5, 10)})

	for range 110 {
		w.Tick(1)
	}
	if a := mustAgent(t, w, id); a.X != 105 {
		t.Errorf("x = %v, want 105", a.X)
	}
}

func TestFeedingConsumesFood(t *testing.T) {
	w := newTestWorld(t, testConfig())
	id := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 10)})
	w.AddFood(100, 100, 2000)

	rep := w.Tick(1000)

	a := mustAgent(t, w, id)
	if math.Abs(a.Health-(1000+2000-0.5)) > 1e-9 {
		t.Errorf("health = %v, want %v", a.Health, 1000+2000-0.5)
	}
	if a.FoodEaten != 1 || rep.FoodEaten != 1 {
		t.Errorf("food eaten = %d (report %d), want 1", a.FoodEaten, rep.FoodEaten)
	}
	if w.FoodCount() != 0 {
		t.Errorf("food count = %d, want 0", w.FoodCount())
	}
}

func TestFoodIsEatenOnce(t *testing.T) {
	w := newTestWorld(t, testConfig())
	first := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 10)})
	second := mustSpawn(t, w, AgentSpec{X: 102, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 10)})
	w.AddFood(101, 100, 50)

	w.Tick(10)

	if a, b := mustAgent(t, w, first), mustAgent(t, w, second); a.FoodEaten != 1 || b.FoodEaten != 0 {
		t.Errorf("food eaten = %d, %d; want the first agent in order to win", a.FoodEaten, b.FoodEaten)
	}
}

func TestSpawnAtCapIsDiscarded(t *testing.T) {
	cfg := testConfig()
	cfg.World.Cap = 3
	w := newTestWorld(t, cfg)
	for range 3 {
		if _, ok := w.SpawnRandom(); !ok {
			t.Fatal("spawn below cap discarded")
		}
	}

	if _, ok := w.SpawnRandom(); ok {
		t.Error("spawn at cap was admitted")
	}
	if w.Count() != 3 {
		t.Errorf("count = %d, want 3", w.Count())
	}
	if w.Discarded() != 1 {
		t.Errorf("discarded = %d, want 1", w.Discarded())
	}
}

func TestDiscardedChildCostsParent(t *testing.T) {
	asexualAgent := func() AgentSpec {
		p := fixedTraits(10, 0, 10)
		p.Asexual = 1000 // certain split every tick
		return AgentSpec{X: 100, Y: 100, Health: 1000, fixed: p}
	}

	tests := []struct {
		name       string
		refund     bool
		wantWasted float64
		wantHealth float64
	}{
		{"parent pays", false, 500, 500},
		{"parent refunded", true, 0, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.World.Cap = 1
			cfg.Reproduction.RefundDiscarded = tt.refund
			w := newTestWorld(t, cfg)
			id := mustSpawn(t, w, asexualAgent())

			rep := w.Tick(10)

			if rep.Discarded != 1 || rep.Births != 0 {
				t.Fatalf("discarded=%d births=%d, want 1, 0", rep.Discarded, rep.Births)
			}
			if rep.WastedHealth != tt.wantWasted {
				t.Errorf("wasted = %v, want %v", rep.WastedHealth, tt.wantWasted)
			}
			cost := 10 * 10 * 0.00005
			if a := mustAgent(t, w, id); math.Abs(a.Health-(tt.wantHealth-cost)) > 1e-9 {
				t.Errorf("parent health = %v, want %v", a.Health, tt.wantHealth-cost)
			}
		})
	}
}

func TestMatingRateConverges(t *testing.T) {
	cfg := testConfig()
	cfg.World.Cap = 2
	cfg.Reproduction.Cooldown = 0
	cfg.Reproduction.MinHealth = 0
	cfg.Reproduction.SexualShare = 1e-9
	w := newTestWorld(t, cfg)

	for _, x := range []float64{100, 102} {
		p := fixedTraits(10, 0, 10)
		p.Sexual = 0.3
		mustSpawn(t, w, AgentSpec{X: x, Y: 100, Health: 1e6, fixed: p})
	}

	const ticks = 2000
	matings := 0
	for range ticks {
		rep := w.Tick(cfg.Physics.DT)
		matings += rep.Matings
	}

	// 4 standard deviations of Binomial(2000, 0.3)
	if math.Abs(float64(matings)-0.3*ticks) > 82 {
		t.Errorf("matings = %d, want about %v", matings, 0.3*ticks)
	}
	if w.Count() != 2 {
		t.Errorf("count = %d, want 2", w.Count())
	}
	if w.Discarded() != matings {
		t.Errorf("discarded = %d, want one per mating (%d)", w.Discarded(), matings)
	}
}

func TestReproductionConservesHealth(t *testing.T) {
	cfg := testConfig()
	cfg.World.Cap = 1000
	cfg.Metabolism.CostScale = 0
	cfg.Reproduction.Cooldown = 200
	w := newTestWorld(t, cfg)

	for i := range 10 {
		p := fixedTraits(10, 1, 30)
		p.Asexual = 0.5
		p.Sexual = 0.3
		mustSpawn(t, w, AgentSpec{X: 50 + float64(i%5)*4, Y: 50 + float64(i/5)*4, Health: 1000, fixed: p})
	}

	total := func() float64 {
		var sum float64
		for _, a := range w.Agents() {
			sum += a.Health
		}
		return sum
	}

	births := 0
	for range 600 {
		rep := w.Tick(cfg.Physics.DT)
		births += rep.Births
		if rep.Discarded != 0 || rep.Deaths != 0 {
			t.Fatalf("unexpected discard or death: %+v", rep)
		}
		if got := total(); math.Abs(got-10000) > 1e-6 {
			t.Fatalf("total health = %v, want 10000", got)
		}
	}
	if births == 0 {
		t.Error("expected some reproduction")
	}
}

func TestDeathExactness(t *testing.T) {
	cfg := testConfig()
	cfg.Food.CorpseFactor = 2
	w := newTestWorld(t, cfg)
	doomed := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 28, fixed: fixedTraits(10, 1, 50)})
	survivor := mustSpawn(t, w, AgentSpec{X: 100, Y: 300, Health: 29, fixed: fixedTraits(10, 1, 50)})

	rep := w.Tick(1000)

	if rep.Deaths != 1 || w.Count() != 1 {
		t.Fatalf("deaths=%d count=%d, want 1, 1", rep.Deaths, w.Count())
	}
	if _, ok := w.Agent(doomed); ok {
		t.Error("agent with exhausted health still live")
	}
	if a := mustAgent(t, w, survivor); math.Abs(a.Health-0.9) > 1e-9 {
		t.Errorf("survivor health = %v, want 0.9", a.Health)
	}

	food := w.Foods()
	if len(food) != 1 || food[0].Value != 20 {
		t.Errorf("corpse food = %+v, want one item of value 20", food)
	}
}

func TestPopulationInvariants(t *testing.T) {
	cfg := config.Default()
	cfg.World.Cap = 30
	cfg.World.InitialAgents = 25
	cfg.Spawn.Interval = 200
	w, err := NewWorld(cfg, WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}

	for range 1500 {
		w.Tick(cfg.Physics.DT)
		if w.Count() > cfg.World.Cap {
			t.Fatalf("count %d exceeds cap %d", w.Count(), cfg.World.Cap)
		}
		seen := make(map[uint32]bool)
		for _, a := range w.Agents() {
			if a.Health <= 0 {
				t.Fatalf("agent %d live with health %v", a.ID, a.Health)
			}
			if seen[a.ID] {
				t.Fatalf("duplicate id %d", a.ID)
			}
			seen[a.ID] = true
			if a.X < a.Size/2 || a.X > 640-a.Size/2 || a.Y < a.Size/2 || a.Y > 480-a.Size/2 {
				t.Fatalf("agent %d outside arena at (%v, %v)", a.ID, a.X, a.Y)
			}
			if a.Vision < a.Size {
				t.Fatalf("agent %d vision %v below size %v", a.ID, a.Vision, a.Size)
			}
		}
	}
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() []AgentView {
		w, err := NewWorld(config.Default(), WithSeed(11))
		if err != nil {
			t.Fatal(err)
		}
		for range 400 {
			w.Tick(16)
		}
		return w.Agents()
	}
	if a, b := run(), run(); !slices.Equal(a, b) {
		t.Error("identical seeds diverged")
	}
}

func TestFoodSpawnTimer(t *testing.T) {
	cfg := testConfig()
	cfg.Food.SpawnInterval = 100
	cfg.Food.Max = 4
	w := newTestWorld(t, cfg)

	if rep := w.Tick(250); rep.FoodSpawned != 2 || w.FoodCount() != 2 {
		t.Errorf("after 250ms: spawned=%d count=%d, want 2, 2", rep.FoodSpawned, w.FoodCount())
	}
	// 50ms carried over
	if rep := w.Tick(50); rep.FoodSpawned != 1 {
		t.Errorf("carry-over spawned %d, want 1", rep.FoodSpawned)
	}
	w.Tick(1000)
	if w.FoodCount() != 4 {
		t.Errorf("food count = %d, want capped at 4", w.FoodCount())
	}
}

func TestPatchyFoodStaysInArena(t *testing.T) {
	cfg := testConfig()
	cfg.Food.Patchiness = 1
	cfg.Food.Max = 0
	cfg.World.InitialFood = 300
	w := newTestWorld(t, cfg)

	for _, f := range w.Foods() {
		if f.X < f.Size/2 || f.X > 640-f.Size/2 || f.Y < f.Size/2 || f.Y > 480-f.Size/2 {
			t.Fatalf("food outside arena at (%v, %v)", f.X, f.Y)
		}
	}
	if w.FoodCount() != 300 {
		t.Errorf("food count = %d, want 300", w.FoodCount())
	}
}

func TestFoodDensity(t *testing.T) {
	noise := opensimplex.NewNormalized(3)
	fc := config.Default().Food

	fc.Patchiness = 0
	if d := FoodDensity(noise, fc, 10, 20); d != 1 {
		t.Errorf("uniform density = %v, want 1", d)
	}

	for _, p := range []float64{0.25, 0.5, 1} {
		fc.Patchiness = p
		for x := 0.0; x < 640; x += 37 {
			for y := 0.0; y < 480; y += 41 {
				d := FoodDensity(noise, fc, x, y)
				if d < 1-p-1e-12 || d > 1+1e-12 {
					t.Fatalf("patchiness %v: density %v at (%v, %v) outside [%v, 1]", p, d, x, y, 1-p)
				}
			}
		}
	}
}

func TestElitistSpawnPicksBestEater(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.Mode = config.SpawnElitist
	cfg.Spawn.Interval = 10
	cfg.Spawn.EliteCount = 1
	w := newTestWorld(t, cfg)

	ids := make([]uint32, 3)
	for i := range ids {
		ids[i] = mustSpawn(t, w, AgentSpec{X: 100 + float64(i)*100, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 10)})
	}
	w.AddFood(200, 100, 1)
	w.AddFood(300, 100, 1)
	w.AddFood(301, 100, 1)

	rep := w.Tick(10)

	if rep.Spawned != 1 || w.Count() != 4 {
		t.Fatalf("spawned=%d count=%d, want 1, 4", rep.Spawned, w.Count())
	}
	for i, want := range []int{0, 0, 1} {
		if got := mustAgent(t, w, ids[i]).Children; got != want {
			t.Errorf("agent %d children = %d, want %d", i, got, want)
		}
	}
}

func TestElitistSpawnIntoEmptyWorld(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.Mode = config.SpawnElitist
	cfg.Spawn.Interval = 10
	w := newTestWorld(t, cfg)

	if rep := w.Tick(10); rep.Spawned != 1 || w.Count() != 1 {
		t.Errorf("spawned=%d count=%d, want one random agent", rep.Spawned, w.Count())
	}
}

func TestDirectSteering(t *testing.T) {
	cfg := testConfig()
	cfg.Brain.Steering = config.SteerDirect
	w := newTestWorld(t, cfg)
	id := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Heading: math.Pi, Health: 1000, fixed: fixedTraits(10, 1, 50)})
	w.AddFood(130, 100, 5)

	w.Tick(100)

	a := mustAgent(t, w, id)
	if a.Heading != 0 || a.X != 110 {
		t.Errorf("heading=%v x=%v, want 0, 110", a.Heading, a.X)
	}
}

func TestFoodBeatsCloserAgent(t *testing.T) {
	cfg := testConfig()
	cfg.Brain.Steering = config.SteerDirect
	w := newTestWorld(t, cfg)
	id := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 50)})
	mustSpawn(t, w, AgentSpec{X: 120, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 5)})
	w.AddFood(60, 100, 5)

	w.Tick(10)

	if a := mustAgent(t, w, id); a.Heading != math.Pi {
		t.Errorf("heading = %v, want pi (toward the food, away from the closer rival)", a.Heading)
	}
}

func TestNewbornSitsOutBirthTick(t *testing.T) {
	cfg := testConfig()
	cfg.Brain.Steering = config.SteerDirect
	cfg.Mutation.Rate = 0
	cfg.Mutation.ResampleRate = 0
	w := newTestWorld(t, cfg)

	// The parent is small and blind; its body genome maps to the largest,
	// slowest body with vision equal to size, so only the child reaches
	// the food beside it.
	parent := fixedTraits(4, 0, 4)
	parent.Asexual = 1000
	body := genome.Genome{0.5, 0.5, 0.5, 0, 1, 0, 0}
	mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 1000, Body: body, fixed: parent})
	w.AddFood(109, 100, 30)

	rep := w.Tick(10)
	if rep.Births != 1 || w.Count() != 2 {
		t.Fatalf("births=%d count=%d, want 1, 2", rep.Births, w.Count())
	}
	child := mustAgent(t, w, 1)
	if child.Health != 500 {
		t.Errorf("child health = %v, want exactly the 500 donated", child.Health)
	}
	if child.FoodEaten != 0 || w.FoodCount() != 1 {
		t.Errorf("child ate %d, food left %d; want 0, 1", child.FoodEaten, w.FoodCount())
	}

	w.Tick(10)
	if child = mustAgent(t, w, 1); child.FoodEaten != 1 || w.FoodCount() != 0 {
		t.Errorf("next tick: child ate %d, food left %d; want 1, 0", child.FoodEaten, w.FoodCount())
	}
}

func TestAverageLifespan(t *testing.T) {
	w := newTestWorld(t, testConfig())
	if got := w.AverageLifespan(); got != 0 {
		t.Errorf("empty world lifespan = %v, want 0", got)
	}

	mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 10)})
	w.Tick(1000)
	mustSpawn(t, w, AgentSpec{X: 300, Y: 100, Health: 1000, fixed: fixedTraits(10, 0, 10)})
	w.Tick(1000)

	if got := w.AverageLifespan(); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("average lifespan = %v, want 1.5", got)
	}
}

func TestNewWorldRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.Mode = "tournament"
	if _, err := NewWorld(cfg); err == nil {
		t.Error("expected error for invalid config")
	}
	if _, err := NewWorld(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg = testConfig()
	cfg.World.Width = -200
	if _, err := NewWorld(cfg); err == nil {
		t.Error("expected error for negative arena width")
	}
}

func BenchmarkTick(b *testing.B) {
	cfg := config.Default()
	cfg.World.Cap = 300
	cfg.World.InitialAgents = 300
	cfg.World.InitialFood = 200
	w, err := NewWorld(cfg, WithSeed(1))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for b.Loop() {
		w.Tick(cfg.Physics.DT)
	}
}

func TestAgentAtPicksTopmost(t *testing.T) {
	w := newTestWorld(t, testConfig())
	under := mustSpawn(t, w, AgentSpec{X: 100, Y: 100, Health: 50, fixed: fixedTraits(10, 1, 20)})
	over := mustSpawn(t, w, AgentSpec{X: 105, Y: 100, Health: 50, fixed: fixedTraits(10, 1, 20)})

	tests := []struct {
		name   string
		x, y   float64
		want   uint32
		wantOK bool
	}{
		{"overlap", 104, 100, over, true},
		{"only first", 97, 100, under, true},
		{"edge", 110, 105, over, true},
		{"below bodies", 109, 109, 0, false},
		{"past edge", 110.5, 100, 0, false},
		{"miss", 300, 300, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := w.AgentAt(tt.x, tt.y)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("AgentAt(%v, %v) = %d, %v; want %d, %v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

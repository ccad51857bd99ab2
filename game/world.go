package game

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/systems"
	"github.com/pthm-cable/creatures/telemetry"
	"github.com/pthm-cable/creatures/traits"
)

// DefaultSeed seeds worlds built without WithSeed.
const DefaultSeed = 1

// TickReport summarizes one call to Tick.
type TickReport struct {
	telemetry.TickEvents
	Tick       int64
	Population int
}

// Option configures a World.
type Option func(*World)

// WithSeed sets the RNG seed.
func WithSeed(seed int64) Option {
	return func(w *World) { w.seed = seed }
}

// WithPerf records phase timings into pc.
func WithPerf(pc *telemetry.PerfCollector) Option {
	return func(w *World) { w.perf = pc }
}

// World owns the live agents and food of one simulation. It is not safe for
// concurrent use; independent worlds share no state.
type World struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand

	ecs *ecs.World

	agentMapper *ecs.Map6[
		components.Position,
		components.Motion,
		components.Body,
		components.Vitals,
		components.Organism,
		components.Genes,
	]
	foodMapper *ecs.Map2[components.Position, components.Food]

	posMap   *ecs.Map1[components.Position]
	bodyMap  *ecs.Map1[components.Body]
	vitMap   *ecs.Map1[components.Vitals]
	orgMap   *ecs.Map1[components.Organism]
	genesMap *ecs.Map1[components.Genes]
	foodMap  *ecs.Map1[components.Food]

	// Iteration order. ECS queries reorder on removal, these do not.
	agents []ecs.Entity
	food   []ecs.Entity
	byID   map[uint32]ecs.Entity

	// Brain storage (per agent by ID)
	brains map[uint32]*neural.FFNN

	agentGrid *systems.SpatialGrid
	foodGrid  *systems.SpatialGrid
	bounds    systems.Bounds
	ranges    traits.Ranges
	mutation  genome.Mutation
	noise     opensimplex.Noise

	tick       int64
	clock      float64 // ms
	nextID     uint32
	foodTimer  float64
	spawnTimer float64
	discarded  int

	perf *telemetry.PerfCollector

	// Per-tick scratch
	cmds       commands
	refs       []agentRef
	foodRefs   []foodRef
	candidates []int
}

// NewWorld builds a world and seeds it with the configured initial agents
// and food.
func NewWorld(cfg *config.Config, opts ...Option) (*World, error) {
	w, err := newEmptyWorld(cfg, opts...)
	if err != nil {
		return nil, err
	}
	for i := 0; i < cfg.World.InitialFood; i++ {
		w.spawnFood()
	}
	for i := 0; i < cfg.World.InitialAgents; i++ {
		w.SpawnRandom()
	}
	return w, nil
}

func newEmptyWorld(cfg *config.Config, opts ...Option) (*World, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.Clone()
	cfg.ComputeDerived()

	world := ecs.NewWorld()
	w := &World{
		cfg:  cfg,
		seed: DefaultSeed,
		ecs:  world,
		agentMapper: ecs.NewMap6[
			components.Position,
			components.Motion,
			components.Body,
			components.Vitals,
			components.Organism,
			components.Genes,
		](world),
		foodMapper: ecs.NewMap2[components.Position, components.Food](world),
		posMap:     ecs.NewMap1[components.Position](world),
		bodyMap:    ecs.NewMap1[components.Body](world),
		vitMap:     ecs.NewMap1[components.Vitals](world),
		orgMap:     ecs.NewMap1[components.Organism](world),
		genesMap:   ecs.NewMap1[components.Genes](world),
		foodMap:    ecs.NewMap1[components.Food](world),
		byID:       make(map[uint32]ecs.Entity),
		brains:     make(map[uint32]*neural.FFNN),
		bounds:     systems.Bounds{W: cfg.Derived.WorldW, H: cfg.Derived.WorldH},
		ranges:     rangesFromConfig(cfg.Body),
		mutation: genome.Mutation{
			Rate:         cfg.Mutation.Rate,
			Sigma:        cfg.Mutation.Sigma,
			ResampleRate: cfg.Mutation.ResampleRate,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.rng = rand.New(rand.NewSource(w.seed))
	w.noise = opensimplex.NewNormalized(w.seed)

	w.agentGrid = systems.NewSpatialGrid(w.bounds.W, w.bounds.H, cfg.Physics.GridCellSize)
	w.foodGrid = systems.NewSpatialGrid(w.bounds.W, w.bounds.H, cfg.Physics.GridCellSize)

	return w, nil
}

func rangesFromConfig(b config.BodyConfig) traits.Ranges {
	return traits.Ranges{
		SpeedMin:   b.SpeedMin,
		SpeedMax:   b.SpeedMax,
		SizeMin:    b.SizeMin,
		SizeMax:    b.SizeMax,
		VisionMax:  b.VisionMax,
		AsexualMin: b.AsexualMin,
		AsexualMax: b.AsexualMax,
		SexualMin:  b.SexualMin,
		SexualMax:  b.SexualMax,
	}
}

// Config returns the world's private copy of its configuration.
func (w *World) Config() *config.Config { return w.cfg }

// Count returns the number of live agents.
func (w *World) Count() int { return len(w.agents) }

// FoodCount returns the number of food items.
func (w *World) FoodCount() int { return len(w.food) }

// TickCount returns the number of completed ticks.
func (w *World) TickCount() int64 { return w.tick }

// Clock returns the simulated time in milliseconds.
func (w *World) Clock() float64 { return w.clock }

// Discarded returns the running total of additions dropped at the cap.
func (w *World) Discarded() int { return w.discarded }

// Seed returns the seed the world's RNG was built from.
func (w *World) Seed() int64 { return w.seed }

// Lifespan returns how long the agent has been alive, in seconds.
func (w *World) Lifespan(id uint32) (float64, bool) {
	e, ok := w.byID[id]
	if !ok {
		return 0, false
	}
	return w.lifespanSec(w.orgMap.Get(e)), true
}

// AverageLifespan returns the mean lifespan of live agents in seconds,
// or 0 when the population is empty.
func (w *World) AverageLifespan() float64 {
	if len(w.agents) == 0 {
		return 0
	}
	var sum float64
	for _, e := range w.agents {
		sum += w.lifespanSec(w.orgMap.Get(e))
	}
	return sum / float64(len(w.agents))
}

func (w *World) lifespanSec(org *components.Organism) float64 {
	return (w.clock - org.BornAt) / 1000
}

// Tick advances the simulation by dt milliseconds. Every agent runs its
// state machine against the state at the start of the sweep; matings, food
// removal, spawning, deaths and additions are applied afterwards in that
// order.
func (w *World) Tick(dt float64) TickReport {
	var ev telemetry.TickEvents

	w.perf.StartTick()

	w.perf.StartPhase(telemetry.PhaseSpatialGrid)
	w.prepareSweep(dt)

	w.perf.StartPhase(telemetry.PhaseAgents)
	for i := range w.refs {
		w.updateAgent(i, dt, &ev)
	}

	w.perf.StartPhase(telemetry.PhaseMatings)
	w.applyMatings(&ev)

	w.perf.StartPhase(telemetry.PhaseCleanup)
	w.removeEatenFood()

	w.perf.StartPhase(telemetry.PhaseSpawning)
	w.runSpawnTimers(dt, &ev)

	w.perf.StartPhase(telemetry.PhaseCleanup)
	w.removeDead(&ev)

	w.perf.StartPhase(telemetry.PhaseAdditions)
	w.applyAdditions(&ev)

	w.perf.EndTick()

	w.tick++
	w.clock += dt
	w.cmds.reset()

	return TickReport{TickEvents: ev, Tick: w.tick, Population: len(w.agents)}
}

// prepareSweep resolves component pointers for this tick and rebuilds both
// spatial grids. No entity is created or removed until the sweep ends, so
// the pointers stay valid.
func (w *World) prepareSweep(dt float64) {
	w.refs = w.refs[:0]
	w.agentGrid.Clear()
	var maxSpeed, maxSize float64
	for ord, e := range w.agents {
		pos, mot, body, vit, org, genes := w.agentMapper.Get(e)
		w.refs = append(w.refs, agentRef{
			entity: e,
			pos:    pos,
			mot:    mot,
			body:   body,
			vit:    vit,
			org:    org,
			genes:  genes,
			brain:  w.brains[org.ID],
		})
		w.agentGrid.Insert(ord, pos.X, pos.Y)
		maxSpeed = max(maxSpeed, body.Traits.Speed)
		maxSize = max(maxSize, body.Traits.Size)
	}
	// Agents earlier in the sweep have already moved when later ones look
	// at them, so grid lookups are widened by one tick of travel.
	w.cmds.pad = systems.Displacement(maxSpeed, w.cfg.Physics.SpeedScale, dt) + 1
	w.cmds.maxAgentSize = maxSize

	w.foodRefs = w.foodRefs[:0]
	w.foodGrid.Clear()
	var maxFood float64
	for ord, e := range w.food {
		pos, f := w.foodMapper.Get(e)
		w.foodRefs = append(w.foodRefs, foodRef{pos: pos, food: f})
		w.foodGrid.Insert(ord, pos.X, pos.Y)
		maxFood = max(maxFood, f.Size)
	}
	w.cmds.maxFoodSize = maxFood
}

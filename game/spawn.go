package game

import (
	"cmp"
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/telemetry"
	"github.com/pthm-cable/creatures/traits"
)

// Patchy food placement gives up after this many rejected samples.
const maxPlacementTries = 32

// AgentSpec describes an agent to add. Missing genomes are drawn at random.
type AgentSpec struct {
	X, Y    float64
	Heading float64
	Health  float64

	Body  genome.Genome
	Brain genome.Genome

	// fixed replaces the phenotype mapped from Body. Only tests set it.
	fixed *traits.Phenotype

	Generation int
}

// Spawn adds an agent immediately. It must not be called from inside Tick.
// At the population cap the agent is discarded and counted, and Spawn
// returns false.
func (w *World) Spawn(spec AgentSpec) (uint32, bool) {
	return w.admit(spec)
}

// SpawnRandom adds one agent with random genomes at a random position.
func (w *World) SpawnRandom() (uint32, bool) {
	return w.admit(w.randomSpec())
}

func (w *World) randomSpec() AgentSpec {
	body := genome.Random(w.rng, traits.NumGenes)
	size := traits.Map(body, w.ranges).Size
	x, y := w.uniformPosition(size)
	return AgentSpec{
		X:       x,
		Y:       y,
		Heading: w.rng.Float64() * 2 * math.Pi,
		Health:  w.cfg.Body.InitialHealth,
		Body:    body,
		Brain:   genome.Random(w.rng, neural.GenomeLen),
	}
}

// admit is the single point where agents enter the population, so the cap
// holds after every call.
func (w *World) admit(spec AgentSpec) (uint32, bool) {
	if len(w.agents) >= w.cfg.World.Cap {
		w.discarded++
		return 0, false
	}

	if spec.Body == nil {
		spec.Body = genome.Random(w.rng, traits.NumGenes)
	}
	if spec.Brain == nil {
		spec.Brain = genome.Random(w.rng, neural.GenomeLen)
	}
	var p traits.Phenotype
	if spec.fixed != nil {
		p = *spec.fixed
	} else {
		p = traits.Map(spec.Body, w.ranges)
	}

	x, y, _ := w.bounds.Clamp(spec.X, spec.Y, p.Size)
	id := w.nextID
	w.nextID++
	w.insertAgent(
		components.Position{X: x, Y: y},
		components.Motion{Heading: neural.NormalizeHeading(spec.Heading)},
		components.Body{Traits: p},
		components.Vitals{Health: spec.Health},
		components.Organism{ID: id, Generation: spec.Generation, BornAt: w.clock},
		components.Genes{Body: spec.Body, Brain: spec.Brain},
	)
	return id, true
}

func (w *World) insertAgent(
	pos components.Position,
	mot components.Motion,
	body components.Body,
	vit components.Vitals,
	org components.Organism,
	genes components.Genes,
) ecs.Entity {
	e := w.agentMapper.NewEntity(&pos, &mot, &body, &vit, &org, &genes)
	w.agents = append(w.agents, e)
	w.byID[org.ID] = e
	w.brains[org.ID] = neural.MustFromGenome(genes.Brain, w.cfg.Brain.WeightScale)
	return e
}

// AddFood places a food item of the configured size, clamped into the arena.
func (w *World) AddFood(x, y, value float64) {
	w.addFood(x, y, value, w.cfg.Food.Size)
}

func (w *World) addFood(x, y, value, size float64) {
	x, y, _ = w.bounds.Clamp(x, y, size)
	w.food = append(w.food, w.foodMapper.NewEntity(
		&components.Position{X: x, Y: y},
		&components.Food{Value: value, Size: size},
	))
}

// spawnFood places one regular food item unless the food limit is reached.
func (w *World) spawnFood() bool {
	fc := w.cfg.Food
	if fc.Max > 0 && len(w.food) >= fc.Max {
		return false
	}
	x, y := w.foodPosition(fc.Size)
	w.addFood(x, y, fc.Value, fc.Size)
	return true
}

// foodPosition samples a position, biased toward high noise values when
// patchiness is set.
func (w *World) foodPosition(size float64) (float64, float64) {
	x, y := w.uniformPosition(size)
	fc := w.cfg.Food
	if fc.Patchiness <= 0 {
		return x, y
	}
	for range maxPlacementTries {
		if w.rng.Float64() < FoodDensity(w.noise, fc, x, y) {
			break
		}
		x, y = w.uniformPosition(size)
	}
	return x, y
}

// FoodDensity is the acceptance probability of a food sample at (x, y). It
// blends a uniform floor with normalized noise by the patchiness weight.
func FoodDensity(noise opensimplex.Noise, fc config.FoodConfig, x, y float64) float64 {
	if fc.Patchiness <= 0 {
		return 1
	}
	return (1 - fc.Patchiness) + fc.Patchiness*noise.Eval2(x*fc.NoiseScale, y*fc.NoiseScale)
}

func (w *World) uniformPosition(size float64) (float64, float64) {
	x := size/2 + w.rng.Float64()*math.Max(0, w.bounds.W-size)
	y := size/2 + w.rng.Float64()*math.Max(0, w.bounds.H-size)
	return x, y
}

// runSpawnTimers advances the food and agent spawn counters. Spawned agents
// join the additions queue so the cap check sees them with everything else.
func (w *World) runSpawnTimers(dt float64, ev *telemetry.TickEvents) {
	if iv := w.cfg.Food.SpawnInterval; iv > 0 {
		w.foodTimer += dt
		for w.foodTimer >= iv {
			w.foodTimer -= iv
			if w.spawnFood() {
				ev.FoodSpawned++
			}
		}
	}

	if iv := w.cfg.Spawn.Interval; iv > 0 {
		w.spawnTimer += dt
		for w.spawnTimer >= iv {
			w.spawnTimer -= iv
			if w.cfg.Spawn.Mode == config.SpawnElitist {
				w.queueElites()
			} else {
				w.queueRandom()
			}
		}
	}
}

func (w *World) queueRandom() {
	w.cmds.children = append(w.cmds.children, pendingChild{spec: w.randomSpec(), spawned: true})
}

// queueElites has the top agents by food eaten each reproduce asexually,
// ignoring the reproduction gate. Ties keep iteration order.
func (w *World) queueElites() {
	var ranked []int
	for ord := range w.refs {
		if vit := w.refs[ord].vit; !vit.Dead && vit.Health > 0 {
			ranked = append(ranked, ord)
		}
	}
	if len(ranked) == 0 {
		w.queueRandom()
		return
	}
	slices.SortStableFunc(ranked, func(a, b int) int {
		return cmp.Compare(w.refs[b].org.FoodEaten, w.refs[a].org.FoodEaten)
	})

	k := min(w.cfg.Spawn.EliteCount, len(ranked))
	for _, ord := range ranked[:k] {
		w.queueAsexualChild(&w.refs[ord], w.cfg.Reproduction.AsexualShare)
		w.cmds.children[len(w.cmds.children)-1].spawned = true
	}
}

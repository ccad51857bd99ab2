package game

import (
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/systems"
	"github.com/pthm-cable/creatures/telemetry"
)

// agentRef caches one agent's component pointers for the duration of a sweep.
type agentRef struct {
	entity ecs.Entity
	pos    *components.Position
	mot    *components.Motion
	body   *components.Body
	vit    *components.Vitals
	org    *components.Organism
	genes  *components.Genes
	brain  *neural.FFNN
}

type foodRef struct {
	pos     *components.Position
	food    *components.Food
	claimed bool // eaten earlier in this sweep
}

// updateAgent runs one agent's state machine:
// sense, steer, move, feed, reproduce, age cooldowns, pay metabolism.
func (w *World) updateAgent(i int, dt float64, ev *telemetry.TickEvents) {
	a := &w.refs[i]
	if a.vit.Dead {
		return
	}
	p := a.body.Traits

	if a.vit.TurnCooldown <= 0 {
		if t, ok := w.sense(i); ok {
			a.mot.Heading = w.steer(a, t)
			a.vit.TurnCooldown = w.cfg.Body.TurnCooldown
		}
	}

	hit := systems.Step(a.pos, a.mot, p.Speed, w.cfg.Physics.SpeedScale, dt, p.Size, w.bounds)
	if hit && a.vit.TurnCooldown <= 0 {
		a.mot.Heading = w.rng.Float64() * 2 * math.Pi
		a.vit.TurnCooldown = w.cfg.Body.TurnCooldown
	}

	w.feed(a, ev)
	w.reproduce(i, dt)

	systems.UpdateCooldowns(a.vit, dt)
	systems.UpdateEnergy(a.vit, p, dt, w.cfg.Metabolism)
}

// sense finds the nearest visible food, or failing that the nearest other
// agent.
func (w *World) sense(i int) (systems.Target, bool) {
	a := &w.refs[i]
	x, y, vision := a.pos.X, a.pos.Y, a.body.Traits.Vision

	w.candidates = w.foodGrid.QueryInto(w.candidates[:0], x, y, vision)
	t := systems.Nearest(x, y, vision, w.candidates, w.locateFood)
	if t.Found {
		t.Food = true
		return t, true
	}

	w.candidates = w.agentGrid.QueryInto(w.candidates[:0], x, y, vision+w.cmds.pad)
	t = systems.Nearest(x, y, vision, w.candidates, func(ord int) (float64, float64, bool) {
		if ord == i {
			return 0, 0, false
		}
		return w.refs[ord].pos.X, w.refs[ord].pos.Y, true
	})
	return t, t.Found
}

func (w *World) locateFood(ord int) (float64, float64, bool) {
	f := &w.foodRefs[ord]
	if f.claimed {
		return 0, 0, false
	}
	return f.pos.X, f.pos.Y, true
}

// steer picks a heading toward a sensed target using the configured strategy.
func (w *World) steer(a *agentRef, t systems.Target) float64 {
	mateable := !t.Food && systems.CanReproduce(w.refs[t.Ord].vit, w.cfg.Reproduction)

	if w.cfg.Brain.Steering == config.SteerDirect || a.brain == nil {
		if t.Food || mateable {
			return neural.NormalizeHeading(math.Atan2(t.DY, t.DX))
		}
		return neural.NormalizeHeading(math.Atan2(-t.DY, -t.DX))
	}

	kind := neural.KindAgent
	if t.Food {
		kind = neural.KindFood
	}
	return a.brain.Decide(neural.Sense(t.DX, t.DY, a.body.Traits.Vision, kind, mateable))
}

// feed consumes every unclaimed food item overlapping the body.
func (w *World) feed(a *agentRef, ev *telemetry.TickEvents) {
	size := a.body.Traits.Size
	half := (size+w.cmds.maxFoodSize)/2 + 1
	w.candidates = w.foodGrid.QueryInto(w.candidates[:0], a.pos.X, a.pos.Y, half)
	slices.Sort(w.candidates)

	for _, ord := range w.candidates {
		f := &w.foodRefs[ord]
		if f.claimed || !systems.Overlaps(a.pos.X, a.pos.Y, size, f.pos.X, f.pos.Y, f.food.Size) {
			continue
		}
		f.claimed = true
		a.vit.Health += f.food.Value
		a.org.FoodEaten++
		w.cmds.eaten = append(w.cmds.eaten, ord)
		ev.FoodEaten++
	}
}

// reproduce runs both reproduction pathways. Asexual children are queued
// with their donation already taken; matings are queued and paid for after
// the sweep.
func (w *World) reproduce(i int, dt float64) {
	a := &w.refs[i]
	rc := w.cfg.Reproduction
	p := a.body.Traits

	if systems.CanReproduce(a.vit, rc) && systems.AsexualRoll(w.rng, p.Asexual, dt) {
		w.queueAsexualChild(a, rc.AsexualShare)
	}

	if !systems.CanReproduce(a.vit, rc) || p.Sexual <= 0 {
		return
	}
	half := (p.Size+w.cmds.maxAgentSize)/2 + w.cmds.pad
	w.candidates = w.agentGrid.QueryInto(w.candidates[:0], a.pos.X, a.pos.Y, half)
	slices.Sort(w.candidates)

	// Each unordered pair rolls once per tick, from its earlier member.
	for _, j := range w.candidates {
		if j <= i {
			continue
		}
		b := &w.refs[j]
		if !systems.Overlaps(a.pos.X, a.pos.Y, p.Size, b.pos.X, b.pos.Y, b.body.Traits.Size) {
			continue
		}
		if !systems.CanReproduce(b.vit, rc) {
			continue
		}
		if systems.MateRoll(w.rng, p.Sexual) {
			w.cmds.matings = append(w.cmds.matings, mating{a: i, b: j})
			break
		}
	}
}

package game

import (
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/systems"
	"github.com/pthm-cable/creatures/telemetry"
)

// commands collects the mutations requested during a sweep.
type commands struct {
	eaten    []int // food ordinals
	matings  []mating
	children []pendingChild

	// Lookup padding for this sweep
	pad          float64
	maxAgentSize float64
	maxFoodSize  float64
}

func (c *commands) reset() {
	c.eaten = c.eaten[:0]
	c.matings = c.matings[:0]
	clear(c.children)
	c.children = c.children[:0]
}

// mating pairs two agent ordinals; a initiated the roll.
type mating struct {
	a, b int
}

type donation struct {
	id     uint32
	amount float64
}

// pendingChild is an agent waiting for the capacity check. Health is the
// sum of the donations it received.
type pendingChild struct {
	spec    AgentSpec
	donors  []donation
	spawned bool // injected by the spawn timer rather than born
}

// queueAsexualChild takes the donation from the parent now and queues the
// child at the parent's position, facing away from it.
func (w *World) queueAsexualChild(a *agentRef, share float64) {
	d := systems.Donate(a.vit, share, w.cfg.Reproduction)
	a.org.Children++
	w.cmds.children = append(w.cmds.children, pendingChild{
		spec: AgentSpec{
			X:          a.pos.X,
			Y:          a.pos.Y,
			Heading:    a.mot.Heading + math.Pi,
			Health:     d,
			Body:       genome.Asexual(w.rng, a.genes.Body, w.mutation),
			Brain:      genome.Asexual(w.rng, a.genes.Brain, w.mutation),
			Generation: a.org.Generation + 1,
		},
		donors: []donation{{id: a.org.ID, amount: d}},
	})
}

// applyMatings pays for queued matings. Eligibility is checked again since
// either parent may have reproduced or died after the pair was rolled.
func (w *World) applyMatings(ev *telemetry.TickEvents) {
	rc := w.cfg.Reproduction
	for _, m := range w.cmds.matings {
		a, b := &w.refs[m.a], &w.refs[m.b]
		if !systems.CanReproduce(a.vit, rc) || !systems.CanReproduce(b.vit, rc) {
			continue
		}
		da := systems.Donate(a.vit, rc.SexualShare, rc)
		db := systems.Donate(b.vit, rc.SexualShare, rc)
		a.org.Children++
		b.org.Children++
		ev.Matings++

		w.cmds.children = append(w.cmds.children, pendingChild{
			spec: AgentSpec{
				X:          a.pos.X,
				Y:          a.pos.Y,
				Heading:    w.rng.Float64() * 2 * math.Pi,
				Health:     da + db,
				Body:       genome.Sexual(w.rng, a.genes.Body, b.genes.Body, w.mutation),
				Brain:      genome.Sexual(w.rng, a.genes.Brain, b.genes.Brain, w.mutation),
				Generation: max(a.org.Generation, b.org.Generation) + 1,
			},
			donors: []donation{{id: a.org.ID, amount: da}, {id: b.org.ID, amount: db}},
		})
	}
}

// removeEatenFood deletes claimed food, keeping the order of the rest.
func (w *World) removeEatenFood() {
	if len(w.cmds.eaten) == 0 {
		return
	}
	for _, ord := range w.cmds.eaten {
		w.ecs.RemoveEntity(w.food[ord])
		w.food[ord] = ecs.Entity{}
	}
	w.food = slices.DeleteFunc(w.food, func(e ecs.Entity) bool { return e.IsZero() })
}

// removeDead deletes every agent whose health is exhausted, leaving corpse
// food behind when enabled.
func (w *World) removeDead(ev *telemetry.TickEvents) {
	var dead []ecs.Entity
	for _, e := range w.agents {
		if vit := w.vitMap.Get(e); vit.Dead || vit.Health <= 0 {
			dead = append(dead, e)
		}
	}
	if len(dead) == 0 {
		return
	}

	factor := w.cfg.Food.CorpseFactor
	for _, e := range dead {
		pos := *w.posMap.Get(e)
		size := w.bodyMap.Get(e).Traits.Size
		id := w.orgMap.Get(e).ID

		w.ecs.RemoveEntity(e)
		delete(w.brains, id)
		delete(w.byID, id)
		ev.Deaths++

		if factor > 0 {
			w.addFood(pos.X, pos.Y, size*factor, w.cfg.Food.Size)
		}
	}
	w.agents = slices.DeleteFunc(w.agents, func(e ecs.Entity) bool { return !w.ecs.Alive(e) })
}

// applyAdditions admits queued children through the capacity check.
func (w *World) applyAdditions(ev *telemetry.TickEvents) {
	for i := range w.cmds.children {
		c := &w.cmds.children[i]
		if _, ok := w.admit(c.spec); ok {
			if c.spawned {
				ev.Spawned++
			} else {
				ev.Births++
			}
			continue
		}
		ev.Discarded++
		var wasted float64
		for _, d := range c.donors {
			wasted += d.amount
		}
		if w.cfg.Reproduction.RefundDiscarded {
			wasted -= w.refund(c.donors)
		}
		ev.WastedHealth += wasted
	}
}

// refund returns donations to parents that are still alive and reports
// how much went back.
func (w *World) refund(donors []donation) float64 {
	var total float64
	for _, d := range donors {
		if e, ok := w.byID[d.id]; ok {
			w.vitMap.Get(e).Health += d.amount
			total += d.amount
		}
	}
	return total
}

package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/creatures/systems"
	"github.com/pthm-cable/creatures/traits"
)

// AgentView is a read-only copy of one agent's drawable and inspectable state.
type AgentView struct {
	ID      uint32  `inspect:"skip"`
	X, Y    float64 `inspect:"skip"`
	Heading float64 `inspect:"label,fmt:%.2f"`

	Color  traits.Color `inspect:"skip"`
	Size   float64      `inspect:"label,fmt:%.1f"`
	Speed  float64      `inspect:"label,fmt:%.2f"`
	Vision float64      `inspect:"label,fmt:%.1f"`

	Health       float64 `inspect:"skip"`
	CanReproduce bool    `inspect:"bool,name:Fertile"`
	FoodEaten    int     `inspect:"label,name:Eaten"`
	Children     int
	Generation   int
	LifespanSec  float64 `inspect:"label,name:Lifespan,fmt:%.1fs"`
}

// FoodView is a read-only copy of one food item.
type FoodView struct {
	X, Y  float64
	Size  float64
	Value float64
}

// Agents returns every live agent in iteration order.
func (w *World) Agents() []AgentView {
	out := make([]AgentView, 0, len(w.agents))
	for _, e := range w.agents {
		out = append(out, w.view(e))
	}
	return out
}

// Agent returns the agent with the given id.
func (w *World) Agent(id uint32) (AgentView, bool) {
	e, ok := w.byID[id]
	if !ok {
		return AgentView{}, false
	}
	return w.view(e), true
}

func (w *World) view(e ecs.Entity) AgentView {
	pos, mot, body, vit, org, _ := w.agentMapper.Get(e)
	p := body.Traits
	return AgentView{
		ID:           org.ID,
		X:            pos.X,
		Y:            pos.Y,
		Heading:      mot.Heading,
		Color:        p.Color,
		Size:         p.Size,
		Speed:        p.Speed,
		Vision:       p.Vision,
		Health:       vit.Health,
		CanReproduce: systems.CanReproduce(vit, w.cfg.Reproduction),
		FoodEaten:    org.FoodEaten,
		Children:     org.Children,
		Generation:   org.Generation,
		LifespanSec:  w.lifespanSec(org),
	}
}

// Foods returns every food item in iteration order.
func (w *World) Foods() []FoodView {
	out := make([]FoodView, 0, len(w.food))
	for _, e := range w.food {
		pos, f := w.foodMapper.Get(e)
		out = append(out, FoodView{X: pos.X, Y: pos.Y, Size: f.Size, Value: f.Value})
	}
	return out
}

// Genomes returns a copy of every live agent's body genome, for diversity
// statistics.
func (w *World) Genomes() [][]float64 {
	out := make([][]float64, 0, len(w.agents))
	for _, e := range w.agents {
		out = append(out, w.genesMap.Get(e).Body.Copy())
	}
	return out
}

// AgentAt returns the id of the agent whose body square contains (x, y).
// When bodies overlap, the one drawn last wins.
func (w *World) AgentAt(x, y float64) (uint32, bool) {
	for i := len(w.agents) - 1; i >= 0; i-- {
		e := w.agents[i]
		pos, body := w.posMap.Get(e), w.bodyMap.Get(e)
		half := body.Traits.Size / 2
		if math.Abs(x-pos.X) <= half && math.Abs(y-pos.Y) <= half {
			return w.orgMap.Get(e).ID, true
		}
	}
	return 0, false
}

package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/telemetry"
	"github.com/pthm-cable/creatures/traits"
)

// Snapshot captures the complete simulation state. Creation times are
// stored as ages so a restored world keeps lifespans continuous.
func (w *World) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     w.seed,
		WorldWidth:  w.bounds.W,
		WorldHeight: w.bounds.H,
		Tick:        w.tick,
		ClockMS:     w.clock,
		NextID:      w.nextID,
		FoodTimer:   w.foodTimer,
		SpawnTimer:  w.spawnTimer,
		Discarded:   w.discarded,
		Agents:      make([]telemetry.AgentState, 0, len(w.agents)),
		Food:        make([]telemetry.FoodState, 0, len(w.food)),
	}

	for _, e := range w.agents {
		pos, mot, body, vit, org, genes := w.agentMapper.Get(e)
		p := body.Traits
		snap.Agents = append(snap.Agents, telemetry.AgentState{
			ID:            org.ID,
			X:             pos.X,
			Y:             pos.Y,
			Heading:       mot.Heading,
			RemX:          mot.RemX,
			RemY:          mot.RemY,
			Health:        vit.Health,
			TurnCooldown:  vit.TurnCooldown,
			ReproCooldown: vit.ReproCooldown,
			AgeMS:         w.clock - org.BornAt,
			FoodEaten:     org.FoodEaten,
			Children:      org.Children,
			Generation:    org.Generation,
			Traits: telemetry.TraitsState{
				R: p.Color.R, G: p.Color.G, B: p.Color.B,
				Speed:   p.Speed,
				Size:    p.Size,
				Vision:  p.Vision,
				Asexual: p.Asexual,
				Sexual:  p.Sexual,
			},
			Body:  genes.Body.Copy(),
			Brain: genes.Brain.Copy(),
		})
	}

	for _, e := range w.food {
		pos, f := w.foodMapper.Get(e)
		snap.Food = append(snap.Food, telemetry.FoodState{X: pos.X, Y: pos.Y, Value: f.Value, Size: f.Size})
	}
	return snap
}

// Restore builds a world from a snapshot. The snapshot is validated first;
// malformed data yields an error and no world. The RNG is reseeded from the
// stored seed and tick, so a restored run is reproducible but does not
// continue the original random stream.
func Restore(cfg *config.Config, snap *telemetry.Snapshot, opts ...Option) (*World, error) {
	if snap == nil {
		return nil, errors.New("restore: nil snapshot")
	}
	opts = append([]Option{WithSeed(snap.RNGSeed + snap.Tick)}, opts...)
	w, err := newEmptyWorld(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if err := w.validateSnapshot(snap); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	w.tick = snap.Tick
	w.clock = snap.ClockMS
	w.nextID = snap.NextID
	w.foodTimer = snap.FoodTimer
	w.spawnTimer = snap.SpawnTimer
	w.discarded = snap.Discarded

	for _, a := range snap.Agents {
		w.insertAgent(
			components.Position{X: a.X, Y: a.Y},
			components.Motion{Heading: neural.NormalizeHeading(a.Heading), RemX: a.RemX, RemY: a.RemY},
			components.Body{Traits: traits.Map(a.Body, w.ranges)},
			components.Vitals{Health: a.Health, TurnCooldown: a.TurnCooldown, ReproCooldown: a.ReproCooldown},
			components.Organism{
				ID:         a.ID,
				FoodEaten:  a.FoodEaten,
				Children:   a.Children,
				Generation: a.Generation,
				BornAt:     w.clock - a.AgeMS,
			},
			components.Genes{Body: genome.Genome(a.Body).Copy(), Brain: genome.Genome(a.Brain).Copy()},
		)
	}
	for _, f := range snap.Food {
		w.addFood(f.X, f.Y, f.Value, f.Size)
	}
	return w, nil
}

func (w *World) validateSnapshot(snap *telemetry.Snapshot) error {
	if snap.Version != telemetry.SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", snap.Version, telemetry.SnapshotVersion)
	}
	if snap.WorldWidth != w.bounds.W || snap.WorldHeight != w.bounds.H {
		return fmt.Errorf("snapshot arena %vx%v does not match config %vx%v",
			snap.WorldWidth, snap.WorldHeight, w.bounds.W, w.bounds.H)
	}
	if snap.Tick < 0 || !finite(snap.ClockMS, snap.FoodTimer, snap.SpawnTimer) || snap.ClockMS < 0 {
		return errors.New("snapshot clock or timers are invalid")
	}
	if len(snap.Agents) > w.cfg.World.Cap {
		return fmt.Errorf("snapshot holds %d agents, cap is %d", len(snap.Agents), w.cfg.World.Cap)
	}

	seen := make(map[uint32]bool, len(snap.Agents))
	for i, a := range snap.Agents {
		if err := w.validateAgentState(a, snap.NextID); err != nil {
			return fmt.Errorf("agent %d (id %d): %w", i, a.ID, err)
		}
		if seen[a.ID] {
			return fmt.Errorf("agent %d: duplicate id %d", i, a.ID)
		}
		seen[a.ID] = true
	}

	for i, f := range snap.Food {
		if !finite(f.X, f.Y, f.Value, f.Size) || f.Size <= 0 {
			return fmt.Errorf("food %d: invalid state", i)
		}
	}
	return nil
}

// validateAgentState checks one stored agent. Genomes are checked before the
// stored phenotype, which must equal the one mapped from the body genome.
func (w *World) validateAgentState(a telemetry.AgentState, nextID uint32) error {
	if a.ID >= nextID {
		return fmt.Errorf("id not below next_id %d", nextID)
	}
	if !finite(a.X, a.Y, a.Heading, a.RemX, a.RemY, a.Health, a.TurnCooldown, a.ReproCooldown, a.AgeMS) {
		return errors.New("non-finite value")
	}
	if a.Health <= 0 {
		return fmt.Errorf("health %v is not positive", a.Health)
	}
	if a.AgeMS < 0 || a.TurnCooldown < 0 || a.ReproCooldown < 0 {
		return errors.New("negative age or cooldown")
	}
	if err := genome.Genome(a.Body).Validate(traits.NumGenes); err != nil {
		return fmt.Errorf("body genome: %w", err)
	}
	if err := genome.Genome(a.Brain).Validate(neural.GenomeLen); err != nil {
		return fmt.Errorf("brain genome: %w", err)
	}

	p := traits.Map(a.Body, w.ranges)
	if !traitsMatch(a.Traits, p) {
		return errors.New("traits do not match body genome")
	}
	if cx, cy, clamped := w.bounds.Clamp(a.X, a.Y, p.Size); clamped || cx != a.X || cy != a.Y {
		return fmt.Errorf("position (%v, %v) outside arena", a.X, a.Y)
	}
	return nil
}

func traitsMatch(t telemetry.TraitsState, p traits.Phenotype) bool {
	const eps = 1e-9
	near := func(a, b float64) bool { return math.Abs(a-b) <= eps*max(1, math.Abs(b)) }
	return t.R == p.Color.R && t.G == p.Color.G && t.B == p.Color.B &&
		near(t.Speed, p.Speed) && near(t.Size, p.Size) && near(t.Vision, p.Vision) &&
		near(t.Asexual, p.Asexual) && near(t.Sexual, p.Sexual)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

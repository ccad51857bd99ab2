package systems

import (
	"math"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/traits"
)

// EffectiveSize is the size term of the metabolic cost.
func EffectiveSize(size float64, m config.MetabolismConfig) float64 {
	return math.Max(size-m.SizeOffset, m.MinEffectiveSize)
}

// MetabolicCost is the health drained over dt milliseconds:
// cubic in effective size, quadratic in speed, linear in vision.
func MetabolicCost(p traits.Phenotype, dt float64, m config.MetabolismConfig) float64 {
	eff := EffectiveSize(p.Size, m)
	return (eff*eff*eff*p.Speed*p.Speed + p.Vision) * dt * m.CostScale
}

// UpdateEnergy applies the metabolic cost and flags death at health <= 0.
// Returns true if the agent died this call.
func UpdateEnergy(vit *components.Vitals, p traits.Phenotype, dt float64, m config.MetabolismConfig) bool {
	if vit.Dead {
		return false
	}
	vit.Health -= MetabolicCost(p, dt, m)
	return CheckDeath(vit)
}

// CheckDeath flags an agent whose health is exhausted.
func CheckDeath(vit *components.Vitals) bool {
	if !vit.Dead && vit.Health <= 0 {
		vit.Dead = true
		return true
	}
	return false
}

// UpdateCooldowns ages both timers by dt, floored at 0.
func UpdateCooldowns(vit *components.Vitals, dt float64) {
	vit.TurnCooldown = math.Max(0, vit.TurnCooldown-dt)
	vit.ReproCooldown = math.Max(0, vit.ReproCooldown-dt)
}

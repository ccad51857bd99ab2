package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
)

// CanReproduce reports whether the reproduction gate is open.
func CanReproduce(vit *components.Vitals, r config.ReproductionConfig) bool {
	return !vit.Dead && vit.ReproCooldown <= 0 && vit.Health > r.MinHealth && vit.Health > 0
}

// Donation is the health a parent hands to a child: a share of current
// health with a flat floor, never more than the parent has.
func Donation(health, share, floor float64) float64 {
	if health <= 0 {
		return 0
	}
	return math.Min(math.Max(health*share, floor), health)
}

// Donate deducts a donation from the parent and restarts its reproduction
// cooldown. The returned amount is exactly what the parent lost.
func Donate(vit *components.Vitals, share float64, r config.ReproductionConfig) float64 {
	d := Donation(vit.Health, share, r.MinDonation)
	vit.Health -= d
	vit.ReproCooldown = r.Cooldown
	CheckDeath(vit)
	return d
}

// AsexualRoll decides whether an agent with the given per-second propensity
// splits during dt milliseconds.
func AsexualRoll(rng *rand.Rand, propensity, dt float64) bool {
	if propensity <= 0 {
		return false
	}
	return rng.Float64() < propensity*dt/1000
}

// MateRoll decides one per-encounter mating attempt.
func MateRoll(rng *rand.Rand, propensity float64) bool {
	if propensity <= 0 {
		return false
	}
	return rng.Float64() < propensity
}

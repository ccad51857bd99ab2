// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/traits"
)

// Position is a body center in arena pixels.
type Position struct {
	X, Y float64
}

// Motion holds heading and the sub-pixel remainder carried between ticks.
type Motion struct {
	Heading    float64 // radians, [0, 2*pi)
	RemX, RemY float64 // fractional displacement not yet applied
}

// Body holds the phenotype computed at construction. It never changes.
type Body struct {
	Traits traits.Phenotype
}

// Vitals holds health and the two countdown timers (milliseconds).
type Vitals struct {
	Health        float64
	TurnCooldown  float64
	ReproCooldown float64
	Dead          bool // set when health reaches 0; removal happens after the sweep
}

// Organism holds identity and lifetime counters.
type Organism struct {
	ID         uint32
	FoodEaten  int
	Children   int
	Generation int
	BornAt     float64 // simulation clock (ms) at creation
}

// Genes holds the genomes an agent was built from.
type Genes struct {
	Body  genome.Genome
	Brain genome.Genome
}

// Food is a consumable item. Paired with Position.
type Food struct {
	Value float64
	Size  float64
}

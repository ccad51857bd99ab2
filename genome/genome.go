// Package genome implements fixed-length real-valued genomes and the genetic
// operators shared by creature bodies and brains.
package genome

import (
	"fmt"
	"math/rand"
)

// Genome is an ordered vector of genes, each in [0, 1].
type Genome []float64

// Mutation controls per-gene perturbation of a freshly produced genome.
type Mutation struct {
	Rate         float64 // Probability of Gaussian jitter per gene
	Sigma        float64 // Standard deviation of the jitter
	ResampleRate float64 // Probability of replacing a gene with a uniform draw
}

// Random returns a genome of n uniform genes.
func Random(rng *rand.Rand, n int) Genome {
	g := make(Genome, n)
	for i := range g {
		g[i] = rng.Float64()
	}
	return g
}

// Copy returns a deep copy of g.
func (g Genome) Copy() Genome {
	if g == nil {
		return nil
	}
	out := make(Genome, len(g))
	copy(out, g)
	return out
}

// Crossover builds a child by taking each gene from exactly one parent.
// Values are never blended. Panics if the lengths differ.
func (g Genome) Crossover(rng *rand.Rand, other Genome) Genome {
	if len(g) != len(other) {
		panic(fmt.Sprintf("genome: crossover length mismatch %d != %d", len(g), len(other)))
	}
	child := make(Genome, len(g))
	for i := range g {
		if rng.Intn(2) == 0 {
			child[i] = g[i]
		} else {
			child[i] = other[i]
		}
	}
	return child
}

// Mutate perturbs g in place. Only call it on a genome that nobody else
// holds yet, such as the result of Copy or Crossover.
func (g Genome) Mutate(rng *rand.Rand, m Mutation) {
	for i := range g {
		v := g[i]
		if m.Rate > 0 && rng.Float64() < m.Rate {
			v += rng.NormFloat64() * m.Sigma
		}
		if m.ResampleRate > 0 && rng.Float64() < m.ResampleRate {
			v = rng.Float64()
		}
		g[i] = clamp01(v)
	}
}

// Asexual produces a mutated copy of parent.
func Asexual(rng *rand.Rand, parent Genome, m Mutation) Genome {
	child := parent.Copy()
	child.Mutate(rng, m)
	return child
}

// Sexual produces a mutated uniform crossover of a and b.
func Sexual(rng *rand.Rand, a, b Genome, m Mutation) Genome {
	child := a.Crossover(rng, b)
	child.Mutate(rng, m)
	return child
}

// Validate checks that g has length n and every gene lies in [0, 1].
func (g Genome) Validate(n int) error {
	if len(g) != n {
		return fmt.Errorf("genome length %d, want %d", len(g), n)
	}
	for i, v := range g {
		// NaN fails both comparisons
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("gene %d = %v outside [0, 1]", i, v)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

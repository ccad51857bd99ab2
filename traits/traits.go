// Package traits maps body genomes onto physical creature traits.
package traits

import (
	"fmt"

	"github.com/pthm-cable/creatures/genome"
)

// Body gene layout.
const (
	GeneRed = iota
	GeneGreen
	GeneBlue
	GeneSpeed
	GeneSize
	GeneVision
	GeneReproduction

	NumGenes
)

// Color is an RGB body color.
type Color struct {
	R, G, B uint8
}

// Phenotype holds the traits derived once from a body genome.
type Phenotype struct {
	Color   Color
	Speed   float64
	Size    float64
	Vision  float64 // Half-width of the square vision region, always >= Size
	Asexual float64 // Asexual reproduction probability per second
	Sexual  float64 // Mating probability per encounter per tick
}

// Ranges holds the [min, max] interval of every mapped trait.
type Ranges struct {
	SpeedMin, SpeedMax     float64
	SizeMin, SizeMax       float64
	VisionMax              float64
	AsexualMin, AsexualMax float64
	SexualMin, SexualMax   float64
}

// Map computes the phenotype of a body genome.
// Panics if the genome has the wrong length or a gene outside [0, 1];
// genomes only come from the genome operators, so either is a bug.
func Map(g genome.Genome, r Ranges) Phenotype {
	if err := g.Validate(NumGenes); err != nil {
		panic(fmt.Sprintf("traits: invalid body genome: %v", err))
	}

	size := Lerp(r.SizeMin, r.SizeMax, g[GeneSize])
	visionMax := r.VisionMax
	if visionMax < size {
		visionMax = size
	}

	repro := g[GeneReproduction]
	return Phenotype{
		Color: Color{
			R: channel(g[GeneRed]),
			G: channel(g[GeneGreen]),
			B: channel(g[GeneBlue]),
		},
		Speed:   Lerp(r.SpeedMin, r.SpeedMax, g[GeneSpeed]),
		Size:    size,
		Vision:  Lerp(size, visionMax, g[GeneVision]),
		Asexual: Lerp(r.AsexualMin, r.AsexualMax, repro),
		// Same gene, opposite direction: the gene is a trade-off.
		Sexual: r.SexualMax - repro*(r.SexualMax-r.SexualMin),
	}
}

// Lerp linearly interpolates between lo and hi.
func Lerp(lo, hi, t float64) float64 {
	return lo + (hi-lo)*t
}

func channel(v float64) uint8 {
	return uint8(Lerp(0, 255, v) + 0.5)
}

// Package neural provides the genome-encoded feedforward brain that turns a
// sensory vector into a heading.
package neural

import (
	"fmt"
	"math"

	"github.com/pthm-cable/creatures/genome"
)

// Network dimensions (compile-time constants for array sizing).
const (
	NumInputs  = 4 // dx/vision, dy/vision, target kind, target mateable
	NumHidden  = 6
	NumOutputs = 2 // heading vector x, y

	// GenomeLen is the number of genes that encode one brain.
	GenomeLen = NumHidden*NumInputs + NumHidden + NumOutputs*NumHidden + NumOutputs
)

// Input slots.
const (
	InDX = iota
	InDY
	InKind
	InMateable
)

// Target kind flags fed to InKind.
const (
	KindFood  = 1.0
	KindAgent = -1.0
)

// Inputs is the sensory vector. The zero value means nothing is visible.
type Inputs [NumInputs]float64

// FFNN is a two-layer feedforward network whose weights come from a genome.
// It keeps no state between calls.
type FFNN struct {
	W1 [NumHidden][NumInputs]float64  // input -> hidden weights
	B1 [NumHidden]float64             // hidden biases
	W2 [NumOutputs][NumHidden]float64 // hidden -> output weights
	B2 [NumOutputs]float64            // output biases
}

// FromGenome decodes a brain genome. Each gene g becomes the weight
// (2g - 1) * scale, in the order W1, B1, W2, B2.
func FromGenome(g genome.Genome, scale float64) (*FFNN, error) {
	if len(g) != GenomeLen {
		return nil, fmt.Errorf("brain genome length %d, want %d", len(g), GenomeLen)
	}
	nn := &FFNN{}
	k := 0
	next := func() float64 {
		w := (2*g[k] - 1) * scale
		k++
		return w
	}
	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = next()
		}
	}
	for i := range nn.B1 {
		nn.B1[i] = next()
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = next()
		}
	}
	for i := range nn.B2 {
		nn.B2[i] = next()
	}
	return nn, nil
}

// MustFromGenome is like FromGenome but panics on a malformed genome.
func MustFromGenome(g genome.Genome, scale float64) *FFNN {
	nn, err := FromGenome(g, scale)
	if err != nil {
		panic(err)
	}
	return nn
}

// Forward computes the raw network output.
func (nn *FFNN) Forward(in Inputs) [NumOutputs]float64 {
	var hidden [NumHidden]float64
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * in[j]
		}
		hidden[i] = tanh(sum)
	}

	var out [NumOutputs]float64
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		out[i] = sum
	}
	return out
}

// Decide returns a heading in [0, 2*pi) for the given sensory vector.
// The outputs are read as a direction vector, so any input (including the
// zero vector) yields a valid heading.
func (nn *FFNN) Decide(in Inputs) float64 {
	out := nn.Forward(in)
	return NormalizeHeading(math.Atan2(out[1], out[0]))
}

// Sense builds the sensory vector for a target at offset (dx, dy) seen with
// the given vision radius. Offsets are normalized by the radius and clamped.
func Sense(dx, dy, vision, kind float64, mateable bool) Inputs {
	var in Inputs
	if vision <= 0 {
		return in
	}
	in[InDX] = clampUnit(dx / vision)
	in[InDY] = clampUnit(dy / vision)
	in[InKind] = kind
	if mateable {
		in[InMateable] = 1
	}
	return in
}

// NormalizeHeading wraps an angle to [0, 2*pi).
func NormalizeHeading(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// Mod of a tiny negative can round up to exactly 2*pi
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}

// tanh is a rational approximation, accurate enough for steering.
func tanh(x float64) float64 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

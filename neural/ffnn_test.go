package neural

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/creatures/genome"
)

func randomBrain(seed int64) (*FFNN, genome.Genome) {
	rng := rand.New(rand.NewSource(seed))
	g := genome.Random(rng, GenomeLen)
	return MustFromGenome(g, 4), g
}

func TestGenomeLen(t *testing.T) {
	if GenomeLen != 44 {
		t.Errorf("GenomeLen = %d, want 44", GenomeLen)
	}
}

func TestFromGenomeDecoding(t *testing.T) {
	g := make(genome.Genome, GenomeLen)
	g[0] = 1                   // W1[0][0]
	g[NumHidden*NumInputs] = 0 // B1[0]
	g[GenomeLen-1] = 0.75      // B2[1]

	nn, err := FromGenome(g, 2)
	if err != nil {
		t.Fatalf("FromGenome: %v", err)
	}
	if nn.W1[0][0] != 2 {
		t.Errorf("W1[0][0] = %f, want 2", nn.W1[0][0])
	}
	if nn.B1[0] != -2 {
		t.Errorf("B1[0] = %f, want -2", nn.B1[0])
	}
	if nn.B2[1] != 1 {
		t.Errorf("B2[1] = %f, want 1", nn.B2[1])
	}
}

func TestFromGenomeWrongLength(t *testing.T) {
	if _, err := FromGenome(make(genome.Genome, GenomeLen-1), 1); err == nil {
		t.Error("expected error for short genome")
	}
}

func TestDecideRange(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		nn, _ := randomBrain(int64(i))
		in := Sense(rng.Float64()*200-100, rng.Float64()*200-100, 100, KindFood, rng.Intn(2) == 0)
		for _, v := range []Inputs{in, {}} {
			h := nn.Decide(v)
			if h < 0 || h >= 2*math.Pi || math.IsNaN(h) {
				t.Fatalf("heading %f outside [0, 2pi)", h)
			}
		}
	}
}

func TestDecideDeterministic(t *testing.T) {
	nn1, g := randomBrain(42)
	nn2 := MustFromGenome(g.Copy(), 4)
	in := Sense(30, -20, 50, KindAgent, true)

	first := nn1.Decide(in)
	for i := 0; i < 10; i++ {
		if got := nn1.Decide(in); got != first {
			t.Fatalf("call %d: got %f, want %f", i, got, first)
		}
	}
	if got := nn2.Decide(in); got != first {
		t.Errorf("same genome gave %f, want %f", got, first)
	}
}

func TestDecideZeroWeights(t *testing.T) {
	// All genes 0.5 decode to zero weights; atan2(0, 0) is 0.
	g := make(genome.Genome, GenomeLen)
	for i := range g {
		g[i] = 0.5
	}
	nn := MustFromGenome(g, 4)
	if h := nn.Decide(Inputs{}); h != 0 {
		t.Errorf("zero network heading = %f, want 0", h)
	}
}

func TestSense(t *testing.T) {
	tests := []struct {
		name           string
		dx, dy, vision float64
		kind           float64
		mateable       bool
		want           Inputs
	}{
		{"food right", 25, 0, 50, KindFood, false, Inputs{0.5, 0, 1, 0}},
		{"agent corner", -50, 50, 50, KindAgent, true, Inputs{-1, 1, -1, 1}},
		{"clamped", 200, -200, 50, KindAgent, false, Inputs{1, -1, -1, 0}},
		{"no vision", 10, 10, 0, KindFood, false, Inputs{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sense(tt.dx, tt.dy, tt.vision, tt.kind, tt.mateable)
			if got != tt.want {
				t.Errorf("Sense() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{-1e-18, 0},
	}
	for _, tt := range tests {
		got := NormalizeHeading(tt.in)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalizeHeading(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func BenchmarkDecide(b *testing.B) {
	nn, _ := randomBrain(42)
	in := Sense(12, -7, 60, KindFood, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = nn.Decide(in)
	}
}

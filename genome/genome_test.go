package genome

import (
	"math"
	"math/rand"
	"testing"
)

func TestMutateStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	heavy := Mutation{Rate: 1.0, Sigma: 5.0, ResampleRate: 0.1}

	for trial := 0; trial < 200; trial++ {
		g := Random(rng, 44)
		// Push some genes onto the edges to exercise clamping
		g[0], g[1] = 0, 1
		g.Mutate(rng, heavy)
		for i, v := range g {
			if v < 0 || v > 1 {
				t.Fatalf("trial %d gene %d = %f, want within [0,1]", trial, i, v)
			}
		}
	}
}

func TestMutateZeroRatesIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := Random(rng, 7)
	want := g.Copy()
	g.Mutate(rng, Mutation{})
	for i := range g {
		if g[i] != want[i] {
			t.Errorf("gene %d changed: got %f, want %f", i, g[i], want[i])
		}
	}
}

func TestCrossoverPicksParentGenes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := Random(rng, 44)
	b := Random(rng, 44)

	fromA, fromB := 0, 0
	for trial := 0; trial < 50; trial++ {
		child := a.Crossover(rng, b)
		if len(child) != len(a) {
			t.Fatalf("child length %d, want %d", len(child), len(a))
		}
		for i := range child {
			switch child[i] {
			case a[i]:
				fromA++
			case b[i]:
				fromB++
			default:
				t.Fatalf("gene %d = %f is neither parent's (%f, %f)", i, child[i], a[i], b[i])
			}
		}
	}
	// Uniform selection should use both parents
	if fromA == 0 || fromB == 0 {
		t.Errorf("crossover never used one parent: fromA=%d fromB=%d", fromA, fromB)
	}
}

func TestOperatorsDoNotTouchParents(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := Mutation{Rate: 1, Sigma: 0.5, ResampleRate: 0.5}
	a := Random(rng, 7)
	b := Random(rng, 7)
	aBefore, bBefore := a.Copy(), b.Copy()

	_ = Asexual(rng, a, m)
	_ = Sexual(rng, a, b, m)

	for i := range a {
		if a[i] != aBefore[i] || b[i] != bBefore[i] {
			t.Fatalf("parent gene %d modified", i)
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	g := Genome{0.1, 0.2, 0.3}
	c := g.Copy()
	c[0] = 0.9
	if g[0] != 0.1 {
		t.Errorf("copy shares storage with original")
	}
	if Genome(nil).Copy() != nil {
		t.Errorf("copy of nil genome should be nil")
	}
}

func TestCrossoverLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on length mismatch")
		}
	}()
	rng := rand.New(rand.NewSource(1))
	Genome{0.5}.Crossover(rng, Genome{0.5, 0.5})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Genome
		n       int
		wantErr bool
	}{
		{"valid", Genome{0, 0.5, 1}, 3, false},
		{"wrong length", Genome{0.5}, 3, true},
		{"negative", Genome{-0.1, 0.5, 0.5}, 3, true},
		{"above one", Genome{0.5, 1.01, 0.5}, 3, true},
		{"nan", Genome{0.5, math.NaN(), 0.5}, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate(tt.n)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func BenchmarkSexual(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	m := Mutation{Rate: 0.1, Sigma: 0.1, ResampleRate: 0.01}
	x := Random(rng, 44)
	y := Random(rng, 44)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Sexual(rng, x, y, m)
	}
}

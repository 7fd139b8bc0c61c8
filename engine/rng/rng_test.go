package rng

import "testing"

func TestRNG_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 20; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d: got %v and %v from same seed", i, x, y)
		}
	}
}

func TestRNG_Float64_Range(t *testing.T) {
	g := New(99)
	for i := 0; i < 1000; i++ {
		if f := g.Float64(); f < 0 || f >= 1 {
			t.Fatalf("draw out of range [0,1): %v", f)
		}
	}
}

func TestRNG_Chance_Extremes(t *testing.T) {
	g := New(7)
	for i := 0; i < 100; i++ {
		if g.Chance(0) {
			t.Fatal("Chance(0) fired")
		}
		if !g.Chance(1) {
			t.Fatal("Chance(1) did not fire")
		}
	}
}

func TestRNG_Chance_Distribution(t *testing.T) {
	g := New(12345)
	hits := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		if g.Chance(0.3) {
			hits++
		}
	}
	if hits < 2500 || hits > 3500 {
		t.Errorf("hits = %d, want ~3000", hits)
	}
}

func TestRNG_Chance_ConsumesDraw(t *testing.T) {
	a, b := New(42), New(42)
	a.Chance(0)
	a.Chance(1)
	b.Float64()
	b.Float64()
	if x, y := a.Float64(), b.Float64(); x != y {
		t.Errorf("third draw = %v, want %v", x, y)
	}
}

func TestSeedFor(t *testing.T) {
	a := SeedFor(0, "Alice", "2025-01-01")
	if a != SeedFor(0, "Alice", "2025-01-01") {
		t.Error("same inputs produced different seeds")
	}
	tests := []struct {
		name  string
		index int64
		parts []string
	}{
		{"other month", 1, []string{"Alice", "2025-01-01"}},
		{"other player", 0, []string{"Bob", "2025-01-01"}},
		{"shifted boundary", 0, []string{"Alice2025", "-01-01"}},
	}
	for _, tt := range tests {
		if SeedFor(tt.index, tt.parts...) == a {
			t.Errorf("%s: seed collided with base", tt.name)
		}
	}
}

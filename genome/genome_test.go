package genome

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestRandomGenomeWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := DefaultBounds()

	for i := 0; i < 1000; i++ {
		g := RandomGenome(rng, b)
		if err := g.Valid(b); err != nil {
			t.Fatalf("genome %d invalid: %v", i, err)
		}
	}
}

func TestRandomSegmentSignPattern(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	b := DefaultBounds()

	for i := 0; i < BodySegmentCount; i++ {
		sx, sy := Quadrant(i)
		for n := 0; n < 200; n++ {
			v := RandomSegment(rng, b, i)
			if sx == 0 && v.X != 0 {
				t.Fatalf("segment %d: x should be 0, got %v", i, v.X)
			}
			if sy == 0 && v.Y != 0 {
				t.Fatalf("segment %d: y should be 0, got %v", i, v.Y)
			}
			if sx != 0 && math.Signbit(v.X) != (sx < 0) {
				t.Fatalf("segment %d: x sign wrong: %v", i, v.X)
			}
			if sy != 0 && math.Signbit(v.Y) != (sy < 0) {
				t.Fatalf("segment %d: y sign wrong: %v", i, v.Y)
			}
		}
	}
}

func TestRandomWheelBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := DefaultBounds()
	seen := make(map[int]bool)

	for i := 0; i < 5000; i++ {
		w := RandomWheel(rng, b)
		if w.Density < 40 || w.Density > 100 {
			t.Fatalf("density out of range: %v", w.Density)
		}
		if w.Radius < 0.2 || w.Radius > 0.5 {
			t.Fatalf("radius out of range: %v", w.Radius)
		}
		if w.MountVertex < 0 || w.MountVertex > 7 {
			t.Fatalf("mount vertex out of range: %d", w.MountVertex)
		}
		seen[w.MountVertex] = true
	}

	if len(seen) != BodySegmentCount {
		t.Errorf("expected all %d mount vertices to appear, saw %d", BodySegmentCount, len(seen))
	}
}

func TestWheelMutateRateZeroIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	b := DefaultBounds()
	w := RandomWheel(rng, b)

	for i := 0; i < 100; i++ {
		if got := w.Mutate(rng, b, 0); got != w {
			t.Fatalf("Mutate(0) changed wheel: %+v -> %+v", w, got)
		}
	}
}

func TestWheelMutateRateOneStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	b := DefaultBounds()
	w := RandomWheel(rng, b)

	changedDensity := 0
	for i := 0; i < 1000; i++ {
		m := w.Mutate(rng, b, 1)
		if err := m.Valid(b); err != nil {
			t.Fatalf("mutated wheel invalid: %v", err)
		}
		if m.Density != w.Density {
			changedDensity++
		}
		w = m
	}

	if changedDensity < 990 {
		t.Errorf("rate 1 should resample density nearly every time, changed %d/1000", changedDensity)
	}
}

func TestValidRejects(t *testing.T) {
	b := DefaultBounds()
	base := RandomGenome(rand.New(rand.NewSource(6)), b)

	tests := []struct {
		name   string
		mutate func(g *Genome)
	}{
		{"zero axis set", func(g *Genome) { g.BodySegments[0].Y = 0.5 }},
		{"wrong sign", func(g *Genome) { g.BodySegments[1].X = -g.BodySegments[1].X }},
		{"axis too large", func(g *Genome) { g.BodySegments[2].Y = 5 }},
		{"density too small", func(g *Genome) { g.Wheels[0].Density = 1 }},
		{"radius too large", func(g *Genome) { g.Wheels[1].Radius = 2 }},
		{"vertex out of range", func(g *Genome) { g.Wheels[1].MountVertex = 8 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base
			tt.mutate(&g)
			err := g.Valid(b)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("Valid() = %v, want ErrOutOfBounds", err)
			}
		})
	}

	if err := base.Valid(b); err != nil {
		t.Errorf("base genome should stay valid (value copies): %v", err)
	}
}

func TestGeometry(t *testing.T) {
	var g Genome
	// Unit diamond on the axes, diagonals at (±1, ±1).
	for i := range g.BodySegments {
		sx, sy := Quadrant(i)
		g.BodySegments[i] = Vec2{X: sx, Y: sy}
	}
	g.Wheels[0].MountVertex = 3

	// Octagon with 4 axis points at distance 1 and 4 corners of the unit
	// square: each triangle has area 0.5.
	if got := g.Area(); math.Abs(got-4.0) > 1e-9 {
		t.Errorf("Area() = %v, want 4", got)
	}

	tris := g.Triangles()
	if tris[7][2] != g.BodySegments[0] {
		t.Errorf("last triangle should close back to segment 0")
	}

	if mp := g.MountPoint(0); mp != (Vec2{X: -1, Y: 1}) {
		t.Errorf("MountPoint(0) = %+v, want (-1, 1)", mp)
	}
}

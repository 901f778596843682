// Package genome defines the heritable description of a car.
// A Genome is pure data: it owns no physics state and copying it by value
// yields an independent deep copy.
package genome

import (
	"fmt"
	"math"
	"math/rand"
)

// Structural constants.
const (
	BodySegmentCount = 8
	WheelCount       = 2
)

// Vec2 is a 2D point in car-local coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Genome is the heritable attribute set for one car: an 8-vertex chassis
// outline (connected cyclically to the origin) and two wheel specs.
type Genome struct {
	BodySegments [BodySegmentCount]Vec2 `json:"body_segments"`
	Wheels       [WheelCount]Wheel      `json:"wheels"`
}

// quadrant is the fixed sign pattern of each body segment.
// A zero component means that axis is always 0 for that index.
var quadrant = [BodySegmentCount][2]float64{
	{+1, 0},
	{+1, +1},
	{0, +1},
	{-1, +1},
	{-1, 0},
	{-1, -1},
	{0, -1},
	{+1, -1},
}

// Quadrant returns the sign pattern (sx, sy) for segment i.
func Quadrant(i int) (sx, sy float64) {
	q := quadrant[i]
	return q[0], q[1]
}

// RandomGenome draws a genome with every attribute uniform in its bounds.
func RandomGenome(rng *rand.Rand, b Bounds) Genome {
	var g Genome
	for i := range g.BodySegments {
		g.BodySegments[i] = RandomSegment(rng, b, i)
	}
	for i := range g.Wheels {
		g.Wheels[i] = RandomWheel(rng, b)
	}
	return g
}

// RandomSegment draws body segment i. Each non-zero axis gets a magnitude
// in [AxisMin, AxisMin+AxisRange) with the sign fixed by the segment index.
func RandomSegment(rng *rand.Rand, b Bounds, i int) Vec2 {
	sx, sy := Quadrant(i)
	var v Vec2
	if sx != 0 {
		v.X = sx * b.axis(rng)
	}
	if sy != 0 {
		v.Y = sy * b.axis(rng)
	}
	return v
}

// Valid reports the first attribute outside its bounds, or nil.
func (g Genome) Valid(b Bounds) error {
	for i, seg := range g.BodySegments {
		sx, sy := Quadrant(i)
		if err := checkAxis(seg.X, sx, b); err != nil {
			return fmt.Errorf("segment %d x: %w", i, err)
		}
		if err := checkAxis(seg.Y, sy, b); err != nil {
			return fmt.Errorf("segment %d y: %w", i, err)
		}
	}
	for i, w := range g.Wheels {
		if err := w.Valid(b); err != nil {
			return fmt.Errorf("wheel %d: %w", i, err)
		}
	}
	return nil
}

func checkAxis(v, sign float64, b Bounds) error {
	if sign == 0 {
		if v != 0 {
			return fmt.Errorf("%w: %v on a fixed-zero axis", ErrOutOfBounds, v)
		}
		return nil
	}
	m := v * sign
	if m < b.AxisMin || m > b.AxisMin+b.AxisRange {
		return fmt.Errorf("%w: magnitude %v not in [%v, %v]", ErrOutOfBounds, m, b.AxisMin, b.AxisMin+b.AxisRange)
	}
	return nil
}

// Triangles returns the 8 chassis triangles (origin, vertex i, vertex i+1).
func (g Genome) Triangles() [BodySegmentCount][3]Vec2 {
	var tris [BodySegmentCount][3]Vec2
	for i := range g.BodySegments {
		next := g.BodySegments[(i+1)%BodySegmentCount]
		tris[i] = [3]Vec2{{}, g.BodySegments[i], next}
	}
	return tris
}

// Area is the total chassis area (sum of the triangle fan).
func (g Genome) Area() float64 {
	var area float64
	for _, t := range g.Triangles() {
		area += math.Abs(t[1].X*t[2].Y-t[2].X*t[1].Y) / 2
	}
	return area
}

// MountPoint returns the chassis vertex wheel w is attached to.
func (g Genome) MountPoint(w int) Vec2 {
	return g.BodySegments[g.Wheels[w].MountVertex]
}

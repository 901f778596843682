package genome

import (
	"fmt"
	"math/rand"
)

// AttributeCount is the number of independently inheritable attributes:
// 8 body segments (each a whole 2D point) plus density, radius and mount
// vertex for each of the 2 wheels.
const AttributeCount = BodySegmentCount + WheelCount*wheelFieldCount

// WheelField names one inheritable field of a wheel.
type WheelField uint8

const (
	FieldDensity WheelField = iota
	FieldRadius
	FieldMountVertex
	wheelFieldCount = 3
)

func (f WheelField) String() string {
	switch f {
	case FieldDensity:
		return "density"
	case FieldRadius:
		return "radius"
	case FieldMountVertex:
		return "mount_vertex"
	}
	return fmt.Sprintf("WheelField(%d)", f)
}

// Slot addresses one attribute in the crossover order:
// segments 0..7, then wheel0 density/radius/mount, wheel1 density/radius/mount.
type Slot int

// Slots returns every attribute slot in crossover order.
func Slots() [AttributeCount]Slot {
	var s [AttributeCount]Slot
	for i := range s {
		s[i] = Slot(i)
	}
	return s
}

// IsSegment reports whether the slot is a body segment.
func (s Slot) IsSegment() bool {
	return s >= 0 && s < BodySegmentCount
}

// Segment returns the body segment index of a segment slot.
func (s Slot) Segment() int {
	return int(s)
}

// Wheel returns the wheel index and field of a wheel slot.
func (s Slot) Wheel() (int, WheelField) {
	off := int(s) - BodySegmentCount
	return off / wheelFieldCount, WheelField(off % wheelFieldCount)
}

func (s Slot) String() string {
	if s.IsSegment() {
		return fmt.Sprintf("segment[%d]", s.Segment())
	}
	w, f := s.Wheel()
	return fmt.Sprintf("wheel[%d].%s", w, f)
}

// Copy sets slot s of dst to the value held by src.
func (s Slot) Copy(dst *Genome, src Genome) {
	if s.IsSegment() {
		dst.BodySegments[s.Segment()] = src.BodySegments[s.Segment()]
		return
	}
	w, f := s.Wheel()
	switch f {
	case FieldDensity:
		dst.Wheels[w].Density = src.Wheels[w].Density
	case FieldRadius:
		dst.Wheels[w].Radius = src.Wheels[w].Radius
	case FieldMountVertex:
		dst.Wheels[w].MountVertex = src.Wheels[w].MountVertex
	}
}

// Resample replaces slot s of g with a fresh draw from its construction
// distribution.
func (s Slot) Resample(g *Genome, rng *rand.Rand, b Bounds) {
	if s.IsSegment() {
		g.BodySegments[s.Segment()] = RandomSegment(rng, b, s.Segment())
		return
	}
	w, f := s.Wheel()
	switch f {
	case FieldDensity:
		g.Wheels[w].Density = b.density(rng)
	case FieldRadius:
		g.Wheels[w].Radius = b.radius(rng)
	case FieldMountVertex:
		g.Wheels[w].MountVertex = randomVertex(rng)
	}
}

// Equal reports whether slot s holds the same value in a and b.
func (s Slot) Equal(a, b Genome) bool {
	if s.IsSegment() {
		return a.BodySegments[s.Segment()] == b.BodySegments[s.Segment()]
	}
	w, f := s.Wheel()
	switch f {
	case FieldDensity:
		return a.Wheels[w].Density == b.Wheels[w].Density
	case FieldRadius:
		return a.Wheels[w].Radius == b.Wheels[w].Radius
	default:
		return a.Wheels[w].MountVertex == b.Wheels[w].MountVertex
	}
}

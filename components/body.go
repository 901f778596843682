package components

import (
	"math"

	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/genome"
)

const (
	// contactTolerance is how far above the lowest point a part may sit and
	// still touch the ground.
	contactTolerance = 0.05
	// maxWheelSpin caps wheel angular speed (rad/s), which sets top speed.
	maxWheelSpin = 30.0
)

// Car links an entity to the individual it embodies.
type Car struct {
	ID      int
	Stalled bool // tipped over or ran off the end; never moves again
}

// Body holds the physical properties derived from a genome.
type Body struct {
	Mass      float64
	Drive     float64 // total traction force the motors can deliver
	TopSpeed  float64
	TipAngle  float64 // steepest slope (radians) the car stands on; > 0 for any grounded car
	Scraping  bool    // chassis drags along the ground
	Traction  int     // number of wheels touching the ground
	Clearance float64 // height of the origin above the ground contact
}

// BodyFromGenome derives a car body from its genome.
func BodyFromGenome(g genome.Genome, cfg config.HostConfig) Body {
	mass := g.Area() * cfg.ChassisDensity
	for _, w := range g.Wheels {
		mass += math.Pi * w.Radius * w.Radius * w.Density
	}

	chassisBottom := math.Inf(1)
	for _, s := range g.BodySegments {
		chassisBottom = math.Min(chassisBottom, s.Y)
	}
	bottom := chassisBottom
	var wheelBottoms [genome.WheelCount]float64
	for i, w := range g.Wheels {
		wheelBottoms[i] = g.MountPoint(i).Y - w.Radius
		bottom = math.Min(bottom, wheelBottoms[i])
	}

	b := Body{Mass: mass, Clearance: -bottom}

	// Horizontal span of everything touching the ground.
	minX, maxX := math.Inf(1), math.Inf(-1)
	touch := func(x float64) {
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
	}

	var radiusSum float64
	for i, w := range g.Wheels {
		if wheelBottoms[i]-bottom > contactTolerance {
			continue
		}
		b.Traction++
		b.Drive += cfg.MotorTorque / w.Radius
		radiusSum += w.Radius
		// A wheel supports the car across its whole width.
		x := g.MountPoint(i).X
		touch(x - w.Radius)
		touch(x + w.Radius)
	}
	if b.Traction > 0 {
		b.TopSpeed = maxWheelSpin * radiusSum / float64(b.Traction)
	}

	if chassisBottom-bottom <= contactTolerance {
		b.Scraping = true
		for _, s := range g.BodySegments {
			if s.Y-bottom <= contactTolerance {
				touch(s.X)
			}
		}
	}

	b.TipAngle = math.Atan2((maxX-minX)/2, b.Clearance)
	return b
}

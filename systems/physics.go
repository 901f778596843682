// Package systems contains ECS systems for the car host.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/genecars/components"
	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/terrain"
)

const (
	rollingResistance = 0.02
	// scrapeFactor scales ground friction when the chassis drags.
	scrapeFactor = 0.5
)

// DriveSystem moves cars along the terrain profile.
type DriveSystem struct {
	filter  ecs.Filter4[components.Position, components.Velocity, components.Body, components.Car]
	terrain *terrain.Terrain
	cfg     config.HostConfig
}

// NewDriveSystem creates a new drive system.
func NewDriveSystem(w *ecs.World, tr *terrain.Terrain, cfg config.HostConfig) *DriveSystem {
	return &DriveSystem{
		filter:  *ecs.NewFilter4[components.Position, components.Velocity, components.Body, components.Car](w),
		terrain: tr,
		cfg:     cfg,
	}
}

// Update advances every car by one step and records each car's forward
// position in positions, keyed by individual ID.
func (s *DriveSystem) Update(positions map[int]float64) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body, car := query.Get()
		UpdateDrive(pos, vel, body, car, s.terrain, s.cfg)
		positions[car.ID] = pos.X
	}
}

// Freeze stalls every car.
func (s *DriveSystem) Freeze() {
	query := s.filter.Query()
	for query.Next() {
		_, vel, _, car := query.Get()
		vel.Speed = 0
		car.Stalled = true
	}
}

// UpdateDrive integrates one car along the ground for one step. Motors push
// up to the grip limit, gravity pulls back on slopes and drag slows the car
// without reversing it. A slope steeper than the car's tip angle or the end
// of the track stalls the car for good.
func UpdateDrive(pos *components.Position, vel *components.Velocity, body *components.Body, car *components.Car, tr *terrain.Terrain, cfg config.HostConfig) {
	if car.Stalled {
		vel.Speed = 0
		return
	}

	slope := tr.SlopeAt(pos.X)
	if math.Abs(slope) > body.TipAngle {
		car.Stalled = true
		vel.Speed = 0
		return
	}

	normal := body.Mass * cfg.Gravity * math.Cos(slope)
	force := math.Min(body.Drive, tr.Friction*normal)
	force -= body.Mass * cfg.Gravity * math.Sin(slope)
	vel.Speed += force / body.Mass * cfg.DT

	drag := rollingResistance * normal
	if body.Scraping {
		drag += scrapeFactor * tr.Friction * normal
	}
	if dv := drag / body.Mass * cfg.DT; math.Abs(vel.Speed) <= dv {
		vel.Speed = 0
	} else {
		vel.Speed -= math.Copysign(dv, vel.Speed)
	}
	vel.Speed = math.Max(-body.TopSpeed, math.Min(body.TopSpeed, vel.Speed))

	pos.X += vel.Speed * math.Cos(slope) * cfg.DT
	switch {
	case pos.X >= tr.End():
		// Off the end of the track.
		pos.X = tr.End()
		vel.Speed = 0
		car.Stalled = true
	case pos.X <= tr.Start():
		pos.X = tr.Start()
		vel.Speed = 0
	}
	pos.Y = tr.HeightAt(pos.X)
}

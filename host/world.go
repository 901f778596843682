// Package host drives the evolution controller with a headless car
// simulation: cars are ark ECS entities moving over generated terrain.
package host

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/genecars/components"
	"github.com/pthm-cable/genecars/config"
	"github.com/pthm-cable/genecars/evolution"
	"github.com/pthm-cable/genecars/systems"
	"github.com/pthm-cable/genecars/terrain"
)

// World holds the car entities of the running generation.
type World struct {
	world   *ecs.World
	terrain *terrain.Terrain
	cfg     config.HostConfig

	carMapper *ecs.Map4[
		components.Position,
		components.Velocity,
		components.Body,
		components.Car,
	]
	drive *systems.DriveSystem

	entities map[int]ecs.Entity
}

// NewWorld creates an empty world over the given terrain.
func NewWorld(cfg config.HostConfig, tr *terrain.Terrain) *World {
	world := ecs.NewWorld()
	return &World{
		world:   world,
		terrain: tr,
		cfg:     cfg,
		carMapper: ecs.NewMap4[
			components.Position,
			components.Velocity,
			components.Body,
			components.Car,
		](world),
		drive:    systems.NewDriveSystem(world, tr, cfg),
		entities: make(map[int]ecs.Entity),
	}
}

// Instantiate replaces every car in the world with bodies built from the
// given individuals. Cars start at terrain.SpawnX on the ground.
func (w *World) Instantiate(individuals []*evolution.Individual) {
	for id := range w.entities {
		w.Remove(id)
	}

	y := w.terrain.HeightAt(terrain.SpawnX)
	for _, ind := range individuals {
		pos := components.Position{X: terrain.SpawnX, Y: y}
		vel := components.Velocity{}
		body := components.BodyFromGenome(ind.Genome, w.cfg)
		car := components.Car{ID: ind.ID}
		w.entities[ind.ID] = w.carMapper.NewEntity(&pos, &vel, &body, &car)
	}
}

// Remove deletes the car for an individual, if present.
func (w *World) Remove(id int) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	if w.world.Alive(e) {
		w.carMapper.Remove(e)
	}
	delete(w.entities, id)
}

// Len returns the number of cars in the world.
func (w *World) Len() int {
	return len(w.entities)
}

// IDs returns the individual IDs of the cars in the world.
func (w *World) IDs() []int {
	ids := make([]int, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	return ids
}

// Step advances every car by one physics step and returns each car's
// forward position keyed by individual ID.
func (w *World) Step() map[int]float64 {
	positions := make(map[int]float64, len(w.entities))
	w.drive.Update(positions)
	return positions
}

// Freeze stalls every car so the generation times out.
func (w *World) Freeze() {
	w.drive.Freeze()
}

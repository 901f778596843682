// Package components defines ECS components for the car host.
package components

// Position is a car's location on the track. Y follows the ground.
type Position struct {
	X, Y float64
}

// Velocity is a car's signed speed along the ground surface.
type Velocity struct {
	Speed float64
}

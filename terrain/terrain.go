// Package terrain generates the ground track cars drive along: a chain of
// flat tiles whose tilt grows with distance from the start.
package terrain

import (
	"math"
	"sort"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/genecars/config"
)

// maxTilt keeps every tile facing forward so the surface stays a function of x.
// Anything this steep is a wall for every car anyway.
const maxTilt = 1.4

// SpawnX is where cars are placed at the start of each generation. Every
// tile that begins at or before it is flat.
const SpawnX = 0.0

// Tile is one straight piece of ground from (X0, Y0) to (X1, Y1).
type Tile struct {
	X0, Y0 float64
	X1, Y1 float64
	Angle  float64 // radians, positive climbs
}

// Terrain is the generated track.
type Terrain struct {
	Tiles       []Tile
	PieceHeight float64
	Friction    float64
}

// Generate builds the track. Tile i is tilted by simplex noise scaled by
// roughness*i/pieces, so the start is nearly flat and the far end rough.
// The lead-in up to and including the tile under SpawnX is level.
// The same seed always yields the same track.
func Generate(cfg config.TerrainConfig, seed int64) *Terrain {
	noise := opensimplex.New(seed)

	t := &Terrain{
		Tiles:       make([]Tile, 0, cfg.Pieces),
		PieceHeight: cfg.PieceHeight,
		Friction:    cfg.Friction,
	}

	x, y := cfg.StartX, cfg.StartY
	for i := 0; i < cfg.Pieces; i++ {
		var angle float64
		if i > 0 && x > SpawnX {
			angle = noise.Eval2(float64(i)*cfg.NoiseScale, 0) * cfg.Roughness * float64(i) / float64(cfg.Pieces)
			angle = math.Max(-maxTilt, math.Min(maxTilt, angle))
		}

		nx := x + math.Cos(angle)*cfg.PieceWidth
		ny := y + math.Sin(angle)*cfg.PieceWidth
		t.Tiles = append(t.Tiles, Tile{X0: x, Y0: y, X1: nx, Y1: ny, Angle: angle})
		x, y = nx, ny
	}

	return t
}

// Start returns the x coordinate where the track begins.
func (t *Terrain) Start() float64 {
	return t.Tiles[0].X0
}

// End returns the x coordinate where the track ends.
func (t *Terrain) End() float64 {
	return t.Tiles[len(t.Tiles)-1].X1
}

// tileAt returns the index of the tile under x, clamped to the track.
func (t *Terrain) tileAt(x float64) int {
	i := sort.Search(len(t.Tiles), func(i int) bool { return t.Tiles[i].X1 >= x })
	if i >= len(t.Tiles) {
		i = len(t.Tiles) - 1
	}
	return i
}

// HeightAt returns the ground surface height at x. Beyond either end the
// surface continues flat.
func (t *Terrain) HeightAt(x float64) float64 {
	if x <= t.Start() {
		return t.Tiles[0].Y0
	}
	if x >= t.End() {
		return t.Tiles[len(t.Tiles)-1].Y1
	}
	tile := t.Tiles[t.tileAt(x)]
	frac := (x - tile.X0) / (tile.X1 - tile.X0)
	return tile.Y0 + (tile.Y1-tile.Y0)*frac
}

// SlopeAt returns the tilt of the ground at x in radians.
func (t *Terrain) SlopeAt(x float64) float64 {
	if x < t.Start() || x > t.End() {
		return 0
	}
	return t.Tiles[t.tileAt(x)].Angle
}

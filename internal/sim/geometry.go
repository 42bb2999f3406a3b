// Package sim implements the contingency-planning core of the drone-swarm
// display simulator: the branching frame tree, the upstream game-state
// generator, the per-edge formation planner, and the tick-driven simulator
// that ties them together.
package sim

import (
	"math"

	"github.com/golang/geo/r3"
)

// Epsilon is the absolute tolerance used for floating point equality
// throughout the core, matching the original's util/math.h EPSILON.
const Epsilon = 1e-6

// Pos3D is a 3-D point with componentwise equality up to Epsilon. It is
// backed by r3.Vector for distance and translation arithmetic rather than
// three bare float64s.
type Pos3D struct {
	r3.Vector
}

// NewPos3D builds a Pos3D from its three coordinates.
func NewPos3D(x, y, z float64) Pos3D {
	return Pos3D{r3.Vector{X: x, Y: y, Z: z}}
}

// Translated returns a new Pos3D shifted by (dx, dy, dz).
func (p Pos3D) Translated(dx, dy, dz float64) Pos3D {
	return Pos3D{r3.Vector{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}}
}

// Distance returns the Euclidean distance between p and q.
func (p Pos3D) Distance(q Pos3D) float64 {
	return p.Sub(q.Vector).Norm()
}

// Equal reports whether p and q are equal within Epsilon on every axis.
func (p Pos3D) Equal(q Pos3D) bool {
	return math.Abs(p.X-q.X) <= Epsilon &&
		math.Abs(p.Y-q.Y) <= Epsilon &&
		math.Abs(p.Z-q.Z) <= Epsilon
}

// Color is an (r, g, b) triple with exact equality.
type Color struct {
	R, G, B uint8
}

// The color palette the gun/bullet frames are drawn from.
var (
	ColorGreen     = Color{0, 200, 0}
	ColorRed       = Color{200, 0, 0}
	ColorOrangeRed = Color{255, 69, 0}
	// ColorHidden marks a drone that should not be rendered; equal to a
	// mid grey, matching the original's COLOR_HIDDEN == COLOR_GREY alias.
	ColorHidden = Color{100, 100, 100}
)

// Pixel is one colored point target a drone should embody.
type Pixel struct {
	Pos   Pos3D
	Color Color
}

// Translated returns a copy of the pixel shifted by (dx, dy, dz).
func (p Pixel) Translated(dx, dy, dz float64) Pixel {
	return Pixel{Pos: p.Pos.Translated(dx, dy, dz), Color: p.Color}
}

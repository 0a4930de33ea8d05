package node

import (
	"github.com/cogentcore/webgpu/wgpu"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axis indicator colors.
var (
	ColorRed   = wgpu.Color{R: 1, G: 0, B: 0, A: 1}
	ColorGreen = wgpu.Color{R: 0, G: 1, B: 0, A: 1}
	ColorBlue  = wgpu.Color{R: 0, G: 0, B: 1, A: 1}
)

// Arrow is a directional line primitive anchored at an origin.
type Arrow struct {
	// Direction is the unit direction of the arrow in the owning node's local frame.
	Direction r3.Vec
	// Origin is the start point of the arrow in the owning node's parent frame.
	Origin r3.Vec
	// Length is the distance from the origin to the arrow tip.
	Length float64
	// Color is the draw color of the arrow.
	Color wgpu.Color
}

// NewArrow creates an arrow node. The direction is normalized; a zero direction is kept as is.
// The node is positioned at the arrow's origin.
//
// Parameters:
//   - direction: the arrow direction
//   - origin: the arrow start point
//   - length: the arrow length
//   - color: the draw color
//
// Returns:
//   - Node: the arrow node
func NewArrow(direction, origin r3.Vec, length float64, color wgpu.Color) Node {
	if r3.Norm(direction) > 0 {
		direction = r3.Unit(direction)
	}
	return NewNode(
		WithName("arrow"),
		WithArrow(&Arrow{
			Direction: direction,
			Origin:    origin,
			Length:    length,
			Color:     color,
		}),
		WithPosition(float32(origin.X), float32(origin.Y), float32(origin.Z)),
	)
}

// Tip returns the arrow's end point in the frame its origin is expressed in.
//
// Returns:
//   - r3.Vec: origin + direction * length
func (a *Arrow) Tip() r3.Vec {
	return r3.Add(a.Origin, r3.Scale(a.Length, a.Direction))
}

package node

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeBuilderOption is a functional option for configuring a Node during construction.
type NodeBuilderOption func(*node)

// WithName sets the name of the Node.
//
// Parameters:
//   - name: the node identifier
//
// Returns:
//   - NodeBuilderOption: functional option to set the name
func WithName(name string) NodeBuilderOption {
	return func(n *node) {
		n.name = name
	}
}

// WithModel attaches a Model to the Node, making it a mesh node.
//
// Parameters:
//   - m: the Model to carry
//
// Returns:
//   - NodeBuilderOption: functional option to set the Model
func WithModel(m model.Model) NodeBuilderOption {
	return func(n *node) {
		n.mdl = m
		n.kind = KindMesh
	}
}

// WithArrow attaches an Arrow primitive to the Node, making it an arrow node.
//
// Parameters:
//   - a: the Arrow to carry
//
// Returns:
//   - NodeBuilderOption: functional option to set the Arrow
func WithArrow(a *Arrow) NodeBuilderOption {
	return func(n *node) {
		n.arrow = a
		n.kind = KindArrow
	}
}

// WithPosition sets the initial position of the Node relative to its parent.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - NodeBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.position = mgl32.Vec3{x, y, z}
	}
}

// WithRotation sets the initial Euler rotation of the Node. Panics if order is not a Tait-Bryan order.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//   - order: the axis order the angles compose in
//
// Returns:
//   - NodeBuilderOption: functional option to set the initial rotation
func WithRotation(rx, ry, rz float32, order mgl32.RotationOrder) NodeBuilderOption {
	if !common.ValidEulerOrder(order) {
		panic(fmt.Sprintf("node: unsupported rotation order %d", order))
	}
	return func(n *node) {
		n.rotation = Euler{X: rx, Y: ry, Z: rz, Order: order}
	}
}

// WithChildren adds children to the Node in the given order.
//
// Parameters:
//   - children: the nodes to add
//
// Returns:
//   - NodeBuilderOption: functional option to add the children
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		for _, c := range children {
			n.Add(c)
		}
	}
}

package node

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind identifies what a Node carries besides its transform.
type Kind int

const (
	// KindGroup is a pure transform container.
	KindGroup Kind = iota
	// KindMesh carries a Model.
	KindMesh
	// KindArrow carries an Arrow primitive.
	KindArrow
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindArrow:
		return "arrow"
	default:
		return "group"
	}
}

// Euler is a rotation expressed as per-axis angles in radians plus the order they compose in.
type Euler struct {
	X, Y, Z float32
	Order   mgl32.RotationOrder
}

// node is the implementation of the Node interface.
type node struct {
	mu sync.RWMutex

	name     string
	kind     Kind
	mdl      model.Model
	arrow    *Arrow
	position mgl32.Vec3
	rotation Euler

	parent   *node
	children []*node
}

// Node defines the interface for an element of the scene graph. A Node holds a local
// transform (position plus Euler rotation) relative to its parent, an optional Model or
// Arrow payload, and an ordered list of children. A Node has at most one parent; adding
// it to another parent detaches it from the previous one.
type Node interface {
	// Name returns the node's identifier.
	//
	// Returns:
	//   - string: the node name
	Name() string

	// SetName sets the node's identifier.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Kind returns what the node carries.
	//
	// Returns:
	//   - Kind: group, mesh or arrow
	Kind() Kind

	// Model returns the Model carried by a mesh node, or nil.
	//
	// Returns:
	//   - model.Model: the model or nil
	Model() model.Model

	// Arrow returns the Arrow carried by an arrow node, or nil.
	//
	// Returns:
	//   - *Arrow: the arrow or nil
	Arrow() *Arrow

	// Position returns the node's position relative to its parent.
	//
	// Returns:
	//   - mgl32.Vec3: the local position
	Position() mgl32.Vec3

	// SetPosition sets the node's position relative to its parent.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// Rotation returns the node's Euler rotation relative to its parent.
	//
	// Returns:
	//   - Euler: the local rotation
	Rotation() Euler

	// SetRotation sets the node's Euler rotation. Panics if order is not a Tait-Bryan order.
	//
	// Parameters:
	//   - x, y, z: rotation angles in radians about each axis
	//   - order: the axis order the angles compose in
	SetRotation(x, y, z float32, order mgl32.RotationOrder)

	// Parent returns the node's parent, or nil for a root.
	//
	// Returns:
	//   - Node: the parent or nil
	Parent() Node

	// Children returns a copy of the node's children in insertion order.
	//
	// Returns:
	//   - []Node: the children
	Children() []Node

	// Add appends child to this node, detaching it from any previous parent.
	// Adding nil or the node itself is a no-op. Panics if child is an ancestor of this node.
	//
	// Parameters:
	//   - child: the node to add
	Add(child Node)

	// Remove detaches child from this node.
	//
	// Parameters:
	//   - child: the node to remove
	//
	// Returns:
	//   - bool: true if child was a child of this node
	Remove(child Node) bool

	// Clear detaches every child of this node.
	Clear()

	// LocalMatrix returns the transform from this node's frame to its parent's frame.
	//
	// Returns:
	//   - mgl32.Mat4: translation * rotation
	LocalMatrix() mgl32.Mat4

	// WorldMatrix returns the transform from this node's frame to the root's frame.
	//
	// Returns:
	//   - mgl32.Mat4: the product of every ancestor's local matrix and this node's
	WorldMatrix() mgl32.Mat4

	// Traverse visits this node and its descendants depth first, parents before children.
	// Returning false from fn skips the visited node's children.
	//
	// Parameters:
	//   - fn: the visitor, receiving the node and its depth relative to this node
	Traverse(fn func(n Node, depth int) bool)

	// Bounds returns the axis-aligned bounding box, in this node's parent frame, of every
	// mesh in the subtree rooted at this node.
	//
	// Returns:
	//   - r3.Box: the bounding box
	//   - bool: false if the subtree holds no mesh
	Bounds() (r3.Box, bool)
}

var _ Node = &node{}

// NewNode creates a new Node configured with the given options. The default node is an
// empty group at the origin with XYZ rotation order.
//
// Parameters:
//   - options: functional options to configure the node
//
// Returns:
//   - Node: the newly created node
func NewNode(options ...NodeBuilderOption) Node {
	n := &node{
		rotation: Euler{Order: mgl32.XYZ},
	}
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

func (n *node) SetName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = name
}

func (n *node) Kind() Kind {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.kind
}

func (n *node) Model() model.Model {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.mdl
}

func (n *node) Arrow() *Arrow {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.arrow
}

func (n *node) Position() mgl32.Vec3 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.position
}

func (n *node) SetPosition(x, y, z float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.position = mgl32.Vec3{x, y, z}
}

func (n *node) Rotation() Euler {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rotation
}

func (n *node) SetRotation(x, y, z float32, order mgl32.RotationOrder) {
	if !common.ValidEulerOrder(order) {
		panic(fmt.Sprintf("node: unsupported rotation order %d", order))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rotation = Euler{X: x, Y: y, Z: z, Order: order}
}

func (n *node) Parent() Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Children() []Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *node) Add(child Node) {
	c, ok := child.(*node)
	if !ok || c == nil || c == n {
		return
	}
	for p := n.parentNode(); p != nil; p = p.parentNode() {
		if p == c {
			panic("node: cannot add an ancestor as a child")
		}
	}

	if old := c.parentNode(); old != nil {
		old.Remove(c)
	}

	n.mu.Lock()
	n.children = append(n.children, c)
	n.mu.Unlock()

	c.mu.Lock()
	c.parent = n
	c.mu.Unlock()
}

func (n *node) Remove(child Node) bool {
	c, ok := child.(*node)
	if !ok || c == nil {
		return false
	}

	n.mu.Lock()
	idx := -1
	for i, existing := range n.children {
		if existing == c {
			idx = i
			break
		}
	}
	if idx >= 0 {
		n.children = append(n.children[:idx], n.children[idx+1:]...)
	}
	n.mu.Unlock()

	if idx < 0 {
		return false
	}
	c.mu.Lock()
	c.parent = nil
	c.mu.Unlock()
	return true
}

func (n *node) Clear() {
	n.mu.Lock()
	removed := n.children
	n.children = nil
	n.mu.Unlock()

	for _, c := range removed {
		c.mu.Lock()
		c.parent = nil
		c.mu.Unlock()
	}
}

func (n *node) LocalMatrix() mgl32.Mat4 {
	n.mu.RLock()
	pos, rot := n.position, n.rotation
	n.mu.RUnlock()

	rotation, err := common.EulerMatrix(rot.X, rot.Y, rot.Z, rot.Order)
	if err != nil {
		// unreachable: SetRotation and WithRotation reject invalid orders
		rotation = mgl32.Ident4()
	}
	return common.ComposeMatrix(pos, rotation)
}

func (n *node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parentNode(); p != nil; p = p.parentNode() {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

func (n *node) Traverse(fn func(n Node, depth int) bool) {
	n.traverse(fn, 0)
}

func (n *node) traverse(fn func(n Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	n.mu.RLock()
	children := append([]*node(nil), n.children...)
	n.mu.RUnlock()
	for _, c := range children {
		c.traverse(fn, depth+1)
	}
}

func (n *node) Bounds() (r3.Box, bool) {
	return n.bounds(n.LocalMatrix())
}

// bounds accumulates the mesh bounding boxes of the subtree rooted at n, where toFrame
// maps n's local frame to the frame the result is expressed in.
func (n *node) bounds(toFrame mgl32.Mat4) (r3.Box, bool) {
	box := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	found := false

	if mdl := n.Model(); mdl != nil && mdl.VertexCount() > 0 {
		lo, hi := mdl.Bounds()
		for i := 0; i < 8; i++ {
			corner := mgl32.Vec4{lo[0], lo[1], lo[2], 1}
			if i&1 != 0 {
				corner[0] = hi[0]
			}
			if i&2 != 0 {
				corner[1] = hi[1]
			}
			if i&4 != 0 {
				corner[2] = hi[2]
			}
			p := toFrame.Mul4x1(corner)
			box = extend(box, r3.Vec{X: float64(p.X()), Y: float64(p.Y()), Z: float64(p.Z())})
		}
		found = true
	}

	n.mu.RLock()
	children := append([]*node(nil), n.children...)
	n.mu.RUnlock()
	for _, c := range children {
		childBox, ok := c.bounds(toFrame.Mul4(c.LocalMatrix()))
		if !ok {
			continue
		}
		box = extend(extend(box, childBox.Min), childBox.Max)
		found = true
	}

	if !found {
		return r3.Box{}, false
	}
	return box, true
}

func (n *node) parentNode() *node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

func extend(box r3.Box, p r3.Vec) r3.Box {
	box.Min = r3.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y), Z: math.Min(box.Min.Z, p.Z)}
	box.Max = r3.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y), Z: math.Max(box.Max.Z, p.Z)}
	return box
}

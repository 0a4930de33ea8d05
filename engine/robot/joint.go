package robot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-robot/engine/loader"
	"github.com/Carmen-Shannon/oxy-robot/engine/node"
	"github.com/Carmen-Shannon/oxy-robot/engine/progress"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultTerminalJointIndex is the joint that carries the axis indicator arrows.
	DefaultTerminalJointIndex = 6
	// DefaultArrowLength is the length of each axis indicator arrow.
	DefaultArrowLength = 50.0
	// CacheBusterParam is the query parameter carrying the request timestamp.
	CacheBusterParam = "t"
)

// jointLoader loads a single joint's material and geometry and places the result.
type jointLoader struct {
	loader        loader.Loader
	clock         func() time.Time
	terminalIndex int
	arrowLength   float64
	logger        golog.Logger
}

// load fetches the joint's .mtl then .obj (both stamped with the same cache-defeating
// timestamp), positions and rotates the resulting node by pose, and attaches the axis
// arrows when ref is the terminal joint.
//
// Parameters:
//   - ctx: the request context
//   - ref: the joint to load
//   - pose: the placement relative to the parent joint
//   - tracker: receives per-fetch progress, may be nil
//
// Returns:
//   - node.Node: the joint node
//   - error: error if any fetch or decode fails
func (j *jointLoader) load(ctx context.Context, ref JointRef, pose Pose, tracker progress.Tracker) (node.Node, error) {
	query := url.Values{}
	query.Set(CacheBusterParam, strconv.FormatInt(j.clock().UnixMilli(), 10))

	mdl, err := j.loader.Load(ctx, loader.Request{
		Name:         ref.ID,
		MaterialPath: ref.ID + ".mtl",
		GeometryPath: ref.ID + ".obj",
		Query:        query,
	}, tracker)
	if err != nil {
		return nil, fmt.Errorf("robot: joint %d (%s): %w", ref.Index, ref.ID, err)
	}

	pos, rot := pose.Position(), pose.Rotation()
	n := node.NewNode(
		node.WithName(ref.ID),
		node.WithModel(mdl),
		node.WithPosition(pos.X(), pos.Y(), pos.Z()),
		node.WithRotation(rot.X(), rot.Y(), rot.Z(), RotationOrder(ref.Index)),
	)

	if ref.Index == j.terminalIndex {
		for _, arrow := range AxisArrows(j.arrowLength) {
			n.Add(arrow)
		}
	}

	j.logger.Debugw("joint loaded", "joint", ref.ID, "index", ref.Index, "vertices", mdl.VertexCount())
	return n, nil
}

// RotationOrder returns the Euler order used for the joint at index. The base joint rotates
// in the world frame (ZYX); every other joint rotates in its own frame (XYZ).
//
// Parameters:
//   - index: the joint's schema index
//
// Returns:
//   - mgl32.RotationOrder: the Euler order
func RotationOrder(index int) mgl32.RotationOrder {
	if index == 0 {
		return mgl32.ZYX
	}
	return mgl32.XYZ
}

// AxisArrows builds the +Z (blue), +Y (green) and +X (red) indicator arrows, in that order,
// anchored at the local origin.
//
// Parameters:
//   - length: the arrow length
//
// Returns:
//   - []node.Node: the three arrow nodes
func AxisArrows(length float64) []node.Node {
	var origin r3.Vec
	return []node.Node{
		node.NewArrow(r3.Vec{Z: 1}, origin, length, node.ColorBlue),
		node.NewArrow(r3.Vec{Y: 1}, origin, length, node.ColorGreen),
		node.NewArrow(r3.Vec{X: 1}, origin, length, node.ColorRed),
	}
}

package common

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// eulerAxes maps the Tait-Bryan rotation orders to the axis sequence they compose.
// Axis 0 is X, 1 is Y and 2 is Z. mgl32.AnglesToQuat takes its angles in this sequence.
var eulerAxes = map[mgl32.RotationOrder][3]int{
	mgl32.XYZ: {0, 1, 2},
	mgl32.XZY: {0, 2, 1},
	mgl32.YXZ: {1, 0, 2},
	mgl32.YZX: {1, 2, 0},
	mgl32.ZXY: {2, 0, 1},
	mgl32.ZYX: {2, 1, 0},
}

// EulerOrderName returns the axis sequence of a Tait-Bryan order, e.g. "XYZ", or "" for other orders.
func EulerOrderName(order mgl32.RotationOrder) string {
	axes, ok := eulerAxes[order]
	if !ok {
		return ""
	}
	name := make([]byte, 3)
	for i, axis := range axes {
		name[i] = "XYZ"[axis]
	}
	return string(name)
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// ValidEulerOrder reports whether order is one of the six Tait-Bryan orders accepted by EulerMatrix.
//
// Parameters:
//   - order: the rotation order to check
//
// Returns:
//   - bool: true if the order is supported
func ValidEulerOrder(order mgl32.RotationOrder) bool {
	_, ok := eulerAxes[order]
	return ok
}

// EulerMatrix builds a rotation matrix from per-axis angles applied in the given order.
// The angles always belong to their axis (rx about X, ry about Y, rz about Z); the order
// only decides the multiplication sequence. For XYZ the result is Rx * Ry * Rz, meaning the
// rotation is applied about the object's own (intrinsic) axes X then Y then Z. For ZYX the
// result is Rz * Ry * Rx, the same rotation expressed about fixed world axes X then Y then Z.
//
// Parameters:
//   - rx, ry, rz: rotation angles in radians around each axis
//   - order: one of the Tait-Bryan orders (XYZ, XZY, YXZ, YZX, ZXY, ZYX)
//
// Returns:
//   - mgl32.Mat4: the rotation matrix (column-major)
//   - error: error if the order is not a Tait-Bryan order
func EulerMatrix(rx, ry, rz float32, order mgl32.RotationOrder) (mgl32.Mat4, error) {
	axes, ok := eulerAxes[order]
	if !ok {
		return mgl32.Ident4(), fmt.Errorf("unsupported rotation order %d", order)
	}

	angles := [3]float32{rx, ry, rz}
	q := mgl32.AnglesToQuat(angles[axes[0]], angles[axes[1]], angles[axes[2]], order)
	return q.Mat4(), nil
}

// ComposeMatrix builds a local transform from a translation and a rotation matrix: T * R.
//
// Parameters:
//   - position: translation in parent space
//   - rotation: rotation matrix (column-major)
//
// Returns:
//   - mgl32.Mat4: the composed transform
func ComposeMatrix(position mgl32.Vec3, rotation mgl32.Mat4) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), position.Z()).Mul4(rotation)
}

// RoundTo rounds v to the given number of decimal places.
//
// Parameters:
//   - v: the value to round
//   - places: the number of decimal places to keep
//
// Returns:
//   - float64: the rounded value
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

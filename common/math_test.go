package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// vec3Near compares component-wise against an absolute tolerance.
func vec3Near(a, b mgl32.Vec3, eps float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func mat4Near(a, b mgl32.Mat4, eps float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestEulerMatrixOrder(t *testing.T) {
	half := float32(math.Pi / 2)
	v := mgl32.Vec4{0, 0, 1, 0}

	xyz, err := EulerMatrix(half, half, 0, mgl32.XYZ)
	if err != nil {
		t.Fatalf("EulerMatrix(XYZ) error = %v", err)
	}
	if got := xyz.Mul4x1(v).Vec3(); !vec3Near(got, mgl32.Vec3{1, 0, 0}, 1e-6) {
		t.Errorf("XYZ rotates +Z to %v, want (1, 0, 0)", got)
	}

	zyx, err := EulerMatrix(half, half, 0, mgl32.ZYX)
	if err != nil {
		t.Fatalf("EulerMatrix(ZYX) error = %v", err)
	}
	if got := zyx.Mul4x1(v).Vec3(); !vec3Near(got, mgl32.Vec3{0, -1, 0}, 1e-6) {
		t.Errorf("ZYX rotates +Z to %v, want (0, -1, 0)", got)
	}

	if _, err := EulerMatrix(0, 0, 0, mgl32.XYX); err == nil {
		t.Error("EulerMatrix accepted a proper Euler order")
	}
}

func TestEulerMatrixSingleAxisMatchesMathgl(t *testing.T) {
	angle := float32(0.7)
	for _, order := range []mgl32.RotationOrder{mgl32.XYZ, mgl32.XZY, mgl32.YXZ, mgl32.YZX, mgl32.ZXY, mgl32.ZYX} {
		m, err := EulerMatrix(0, 0, angle, order)
		if err != nil {
			t.Fatalf("EulerMatrix(%s) error = %v", EulerOrderName(order), err)
		}
		if !mat4Near(m, mgl32.HomogRotate3DZ(angle), 1e-6) {
			t.Errorf("order %s: rotation about Z differs from HomogRotate3DZ", EulerOrderName(order))
		}
	}
}

func TestEulerMatrixComposesAxisRotations(t *testing.T) {
	rx, ry, rz := float32(0.3), float32(-1.1), float32(2.4)
	rot := map[byte]mgl32.Mat3{
		'X': mgl32.Rotate3DX(rx),
		'Y': mgl32.Rotate3DY(ry),
		'Z': mgl32.Rotate3DZ(rz),
	}
	for _, order := range []mgl32.RotationOrder{mgl32.XYZ, mgl32.XZY, mgl32.YXZ, mgl32.YZX, mgl32.ZXY, mgl32.ZYX} {
		name := EulerOrderName(order)
		want := rot[name[0]].Mul3(rot[name[1]]).Mul3(rot[name[2]]).Mat4()

		got, err := EulerMatrix(rx, ry, rz, order)
		if err != nil {
			t.Fatalf("EulerMatrix(%s) error = %v", name, err)
		}
		if !mat4Near(got, want, 1e-5) {
			t.Errorf("EulerMatrix(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestEulerOrderName(t *testing.T) {
	tests := map[mgl32.RotationOrder]string{
		mgl32.XYZ: "XYZ",
		mgl32.ZYX: "ZYX",
		mgl32.YZX: "YZX",
		mgl32.XYX: "",
	}
	for order, want := range tests {
		if got := EulerOrderName(order); got != want {
			t.Errorf("EulerOrderName(%d) = %q, want %q", order, got, want)
		}
		if got := ValidEulerOrder(order); got != (want != "") {
			t.Errorf("ValidEulerOrder(%d) = %v", order, got)
		}
	}
}

func TestComposeMatrix(t *testing.T) {
	rot, _ := EulerMatrix(0, 0, float32(math.Pi/2), mgl32.XYZ)
	m := ComposeMatrix(mgl32.Vec3{10, 0, 0}, rot)
	got := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	if !vec3Near(got, mgl32.Vec3{10, 1, 0}, 1e-5) {
		t.Errorf("ComposeMatrix maps (1,0,0) to %v, want (10, 1, 0)", got)
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{33.33333, 2, 33.33},
		{66.666, 2, 66.67},
		{99.999, 2, 100},
		{12.5, 0, 13},
	}
	for _, tt := range tests {
		if got := RoundTo(tt.v, tt.places); got != tt.want {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestSliceToBytes(t *testing.T) {
	if SliceToBytes([]uint32{}) != nil {
		t.Error("SliceToBytes(empty) != nil")
	}
	if got := len(SliceToBytes([]uint32{1, 2, 3})); got != 12 {
		t.Errorf("len(SliceToBytes) = %d, want 12", got)
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "a", "b"); got != "a" {
		t.Errorf("Coalesce = %q, want a", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("Coalesce = %d, want 0", got)
	}
}

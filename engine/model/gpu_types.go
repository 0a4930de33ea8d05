package model

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUVertexSize is the size in bytes of a marshalled GPUVertex.
const GPUVertexSize = 64

// GPUVertex is the GPU-aligned representation of a single mesh vertex for static models.
// Size: 64 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	fields := [16]float32{
		g.Position[0], g.Position[1], g.Position[2],
		g.Normal[0], g.Normal[1], g.Normal[2],
		g.TexCoord[0], g.TexCoord[1],
		g.Color[0], g.Color[1], g.Color[2], g.Color[3],
		g.Tangent[0], g.Tangent[1], g.Tangent[2], g.Tangent[3],
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(f))
	}
	return buf
}

// GPUVertexLayout describes GPUVertex to a wgpu render pipeline. Shader locations are
// 0 position, 1 normal, 2 uv, 3 color, 4 tangent.
//
// Returns:
//   - wgpu.VertexBufferLayout: the vertex buffer layout matching GPUVertex
func GPUVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUVertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 4},
		},
	}
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of
// GPUVertex positions. The radius is the maximum distance from the origin
// across all vertices in the slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// ComputeBounds calculates the axis-aligned bounding box of a slice of GPUVertex positions.
// Both corners are zero for an empty slice.
//
// Parameters:
//   - vertices: the vertex data
//
// Returns:
//   - minimum: the minimum corner
//   - maximum: the maximum corner
func ComputeBounds(vertices []GPUVertex) (minimum, maximum [3]float32) {
	if len(vertices) == 0 {
		return
	}
	minimum, maximum = vertices[0].Position, vertices[0].Position
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			minimum[i] = min(minimum[i], v.Position[i])
			maximum[i] = max(maximum[i], v.Position[i])
		}
	}
	return
}

package model

import (
	"github.com/Carmen-Shannon/oxy-robot/common"

	"github.com/cogentcore/webgpu/wgpu"
)

// model is the implementation of the Model interface.
type model struct {
	name                  string
	meshes                []ImportedMesh
	importedMaterials     []common.ImportedMaterial
	boundingRadius        float32
	boundingMin           [3]float32
	boundingMax           [3]float32
	vertexData, indexData []byte
	indexCount            int
}

// Model defines the interface for a loaded 3D model.
// A Model is a renderer-agnostic container holding combined vertex/index data ready for GPU
// upload, the per-mesh CPU data it was built from, and material properties.
// It is produced by the Loader after importing and processing a model file.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Meshes retrieves the CPU-side meshes the combined buffers were built from.
	//
	// Returns:
	//   - []ImportedMesh: the meshes
	Meshes() []ImportedMesh

	// ImportedMaterials retrieves the raw material properties imported from the material library.
	//
	// Returns:
	//   - []common.ImportedMaterial: the imported materials
	ImportedMaterials() []common.ImportedMaterial

	// VertexData returns the raw vertex data for this model's mesh.
	//
	// Returns:
	//   - []byte: the vertex data, GPUVertexSize bytes per vertex
	VertexData() []byte

	// IndexData returns the raw index data for this model's mesh.
	//
	// Returns:
	//   - []byte: the index data, little-endian uint32 per index
	IndexData() []byte

	// IndexCount returns the number of indices in the model's mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexCount returns the number of vertices across all meshes.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// VertexBufferLayout describes VertexData to a wgpu render pipeline.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the vertex layout
	VertexBufferLayout() wgpu.VertexBufferLayout

	// BoundingRadius returns the bounding sphere radius for this model, measured as
	// the maximum vertex distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Bounds returns the model-space axis-aligned bounding box across all meshes.
	//
	// Returns:
	//   - minimum: the minimum corner
	//   - maximum: the maximum corner
	Bounds() (minimum, maximum [3]float32)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Meshes() []ImportedMesh {
	return m.meshes
}

func (m *model) ImportedMaterials() []common.ImportedMaterial {
	return m.importedMaterials
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) VertexCount() int {
	return len(m.vertexData) / GPUVertexSize
}

func (m *model) VertexBufferLayout() wgpu.VertexBufferLayout {
	return GPUVertexLayout()
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Bounds() (minimum, maximum [3]float32) {
	return m.boundingMin, m.boundingMax
}

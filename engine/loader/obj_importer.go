package loader

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/engine/model"

	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// defaultBaseColor is applied to faces whose material is missing from the material library.
var defaultBaseColor = [4]float32{1, 1, 1, 1}

// objImporterImpl is the implementation of the objImporter interface.
type objImporterImpl struct{}

// objImporter defines the interface for turning Wavefront OBJ/MTL streams into an ImportedModel.
type objImporter interface {
	// ImportMaterials decodes a material library on its own.
	//
	// Parameters:
	//   - mtl: the reader providing the .mtl document
	//
	// Returns:
	//   - []common.ImportedMaterial: the materials, sorted by name
	//   - error: error if the library cannot be decoded
	ImportMaterials(mtl io.Reader) ([]common.ImportedMaterial, error)

	// Import decodes geometry and its material library into an ImportedModel. Faces are
	// triangulated as fans and grouped into one mesh per object and material.
	//
	// Parameters:
	//   - name: the model name
	//   - objR: the reader providing the .obj document
	//   - mtlR: the reader providing the .mtl document
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if decoding fails
	Import(name string, objR, mtlR io.Reader) (*model.ImportedModel, error)
}

var _ objImporter = &objImporterImpl{}

// newOBJImporter creates a new OBJ importer.
//
// Returns:
//   - objImporter: the importer
func newOBJImporter() objImporter {
	return &objImporterImpl{}
}

func (imp *objImporterImpl) ImportMaterials(mtl io.Reader) ([]common.ImportedMaterial, error) {
	dec, err := obj.DecodeReader(strings.NewReader(""), mtl)
	if err != nil {
		return nil, fmt.Errorf("failed to decode material library: %w", err)
	}
	materials, _ := convertMaterials(dec)
	return materials, nil
}

func (imp *objImporterImpl) Import(name string, objR, mtlR io.Reader) (*model.ImportedModel, error) {
	dec, err := obj.DecodeReader(objR, mtlR)
	if err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}

	materials, materialIndex := convertMaterials(dec)
	imported := &model.ImportedModel{
		Name:      name,
		Materials: materials,
	}

	for _, object := range dec.Objects {
		// Group faces by material, keeping first-use order for deterministic mesh output.
		groups := make(map[string][]obj.Face)
		var order []string
		for _, face := range object.Faces {
			if _, seen := groups[face.Material]; !seen {
				order = append(order, face.Material)
			}
			groups[face.Material] = append(groups[face.Material], face)
		}

		for _, matName := range order {
			idx, ok := materialIndex[matName]
			if !ok {
				idx = -1
			}
			color := defaultBaseColor
			if idx >= 0 {
				color = materials[idx].BaseColor
			}

			mesh := buildMesh(dec, groups[matName], color)
			if len(mesh.Vertices) == 0 {
				continue
			}
			mesh.Name = object.Name
			if len(order) > 1 && matName != "" {
				mesh.Name = object.Name + ":" + matName
			}
			mesh.MaterialIndex = idx
			imported.Meshes = append(imported.Meshes, mesh)
		}
	}

	return imported, nil
}

// convertMaterials maps the decoder's material library to ImportedMaterials sorted by name,
// returning the name → index lookup alongside.
func convertMaterials(dec *obj.Decoder) ([]common.ImportedMaterial, map[string]int) {
	names := make([]string, 0, len(dec.Materials))
	for matName := range dec.Materials {
		names = append(names, matName)
	}
	sort.Strings(names)

	materials := make([]common.ImportedMaterial, len(names))
	index := make(map[string]int, len(names))
	for i, matName := range names {
		m := dec.Materials[matName]
		opacity := m.Opacity
		if opacity <= 0 {
			opacity = 1
		}
		materials[i] = common.ImportedMaterial{
			Name:               matName,
			BaseColor:          [4]float32{m.Diffuse.R, m.Diffuse.G, m.Diffuse.B, opacity},
			Ambient:            [3]float32{m.Ambient.R, m.Ambient.G, m.Ambient.B},
			Specular:           [3]float32{m.Specular.R, m.Specular.G, m.Specular.B},
			Emissive:           [3]float32{m.Emissive.R, m.Emissive.G, m.Emissive.B},
			Shininess:          m.Shininess,
			DiffuseTexturePath: m.MapKd,
		}
		index[matName] = i
	}
	return materials, index
}

// buildMesh de-indexes a set of faces into triangle-list vertices. Corners referencing
// missing positions are dropped with their triangle; missing normals fall back to the
// flat face normal and missing texture coordinates to zero.
func buildMesh(dec *obj.Decoder, faces []obj.Face, color [4]float32) model.ImportedMesh {
	var mesh model.ImportedMesh

	for _, face := range faces {
		for k := 1; k+1 < len(face.Vertices); k++ {
			corners := [3]int{0, k, k + 1}

			var positions [3]mgl32.Vec3
			valid := true
			for c, fi := range corners {
				p, ok := vec3At(dec.Vertices, face.Vertices[fi])
				if !ok {
					valid = false
					break
				}
				positions[c] = p
			}
			if !valid {
				continue
			}

			flat := positions[1].Sub(positions[0]).Cross(positions[2].Sub(positions[0]))
			if flat.Len() > 0 {
				flat = flat.Normalize()
			}

			for c, fi := range corners {
				normal := flat
				if fi < len(face.Normals) {
					if n, ok := vec3At(dec.Normals, face.Normals[fi]); ok {
						normal = n
					}
				}
				var uv [2]float32
				if fi < len(face.Uvs) {
					if i := face.Uvs[fi]; i >= 0 && 2*i+1 < len(dec.Uvs) {
						uv = [2]float32{dec.Uvs[2*i], dec.Uvs[2*i+1]}
					}
				}

				mesh.Indices = append(mesh.Indices, uint32(len(mesh.Vertices)))
				mesh.Vertices = append(mesh.Vertices, model.GPUVertex{
					Position: positions[c],
					Normal:   normal,
					TexCoord: uv,
					Color:    color,
					Tangent:  [4]float32{1, 0, 0, 1},
				})
			}
		}
	}

	mesh.BoundingMin, mesh.BoundingMax = model.ComputeBounds(mesh.Vertices)
	return mesh
}

// vec3At reads the i-th 3-component vector of a flat float array.
func vec3At(data []float32, i int) (mgl32.Vec3, bool) {
	if i < 0 || 3*i+2 >= len(data) {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{data[3*i], data[3*i+1], data[3*i+2]}, true
}

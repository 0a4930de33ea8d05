package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/engine/model"
)

// loaderBackend defines the generic interface for decoding models from streams.
// Concrete implementations (e.g., objLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// LoadMaterials decodes a material library on its own so material errors surface
	// before the geometry is requested.
	//
	// Parameters:
	//   - r: the reader providing the material library
	//
	// Returns:
	//   - []common.ImportedMaterial: the decoded materials
	//   - error: error if decoding fails
	LoadMaterials(r io.Reader) ([]common.ImportedMaterial, error)

	// LoadReader decodes a model from its geometry stream and material library stream.
	//
	// Parameters:
	//   - name: the model name
	//   - geometry: the reader providing the geometry document
	//   - materials: the reader providing the material library
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if decoding fails
	LoadReader(name string, geometry, materials io.Reader) (*model.ImportedModel, error)
}

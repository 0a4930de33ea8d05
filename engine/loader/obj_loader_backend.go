package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/engine/model"
)

// objLoaderBackendImpl is the implementation of objLoaderBackend.
type objLoaderBackendImpl struct {
	importer objImporter
}

// objLoaderBackend is a loaderBackend implementation for Wavefront OBJ/MTL files.
// It delegates to the objImporter for parsing and conversion.
type objLoaderBackend interface {
	loaderBackend
}

var _ objLoaderBackend = &objLoaderBackendImpl{}

// newOBJLoaderBackend creates a new OBJ loader backend.
//
// Returns:
//   - objLoaderBackend: the loader backend for OBJ/MTL files
func newOBJLoaderBackend() objLoaderBackend {
	return &objLoaderBackendImpl{
		importer: newOBJImporter(),
	}
}

func (b *objLoaderBackendImpl) LoadMaterials(r io.Reader) ([]common.ImportedMaterial, error) {
	return b.importer.ImportMaterials(r)
}

func (b *objLoaderBackendImpl) LoadReader(name string, geometry, materials io.Reader) (*model.ImportedModel, error) {
	return b.importer.Import(name, geometry, materials)
}

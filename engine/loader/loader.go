package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/engine/model"
	"github.com/Carmen-Shannon/oxy-robot/engine/progress"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeOBJ selects the Wavefront OBJ/MTL loader backend.
	BackendTypeOBJ LoaderBackendType = iota
)

// Request names the files that make up one model. Paths are resolved against the
// Loader's base URL; Query is appended to every request issued for the model,
// including the textures its materials reference.
type Request struct {
	Name         string
	MaterialPath string
	GeometryPath string
	Query        url.Values
}

// loader is the implementation of the Loader interface.
type loader struct {
	baseURL        string
	fetcher        Fetcher
	backend        loaderBackend
	maxTextureSize int
	logger         golog.Logger
}

// Loader defines the public-facing interface for fetching and decoding 3D models.
// It abstracts the file format behind a backend and the transport behind a Fetcher.
// Every Load issues fresh requests; nothing is cached between calls.
type Loader interface {
	// BaseURL returns the URL that request paths are resolved against.
	//
	// Returns:
	//   - string: the base URL
	BaseURL() string

	// Resolve turns a path relative to the base URL into an absolute URL carrying query.
	//
	// Parameters:
	//   - p: the relative path
	//   - query: query parameters to set on the result, may be nil
	//
	// Returns:
	//   - string: the absolute URL
	//   - error: error if the base URL is invalid
	Resolve(p string, query url.Values) (string, error)

	// Load fetches and decodes the material library, then the textures it references,
	// then the geometry, reporting every fetch to tracker. Fetch failures are returned
	// as *AssetFetchError. Texture failures are logged and leave the texture unset.
	//
	// Parameters:
	//   - ctx: the request context
	//   - req: the files to load
	//   - tracker: receives per-fetch progress, may be nil
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if any fetch or decode fails
	Load(ctx context.Context, req Request, tracker progress.Tracker) (model.Model, error)

	// LoadReader decodes a model from already available streams.
	//
	// Parameters:
	//   - name: the model name
	//   - geometry: the reader providing geometry data
	//   - materials: the reader providing the material library
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if decoding fails
	LoadReader(name string, geometry, materials io.Reader) (model.Model, error)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeOBJ)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{}

	switch backendType {
	case BackendTypeOBJ:
		l.backend = newOBJLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	if l.fetcher == nil {
		l.fetcher = NewHTTPFetcher(nil)
	}
	if l.logger == nil {
		l.logger = zap.NewNop().Sugar()
	}
	return l
}

func (l *loader) BaseURL() string {
	return l.baseURL
}

func (l *loader) Resolve(p string, query url.Values) (string, error) {
	base := l.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return resolveAgainst(base, p, query)
}

func (l *loader) Load(ctx context.Context, req Request, tracker progress.Tracker) (model.Model, error) {
	if err := l.resolveBackend(req.GeometryPath); err != nil {
		return nil, err
	}

	mtlURL, err := l.Resolve(req.MaterialPath, req.Query)
	if err != nil {
		return nil, err
	}
	mtlData, err := l.fetcher.Fetch(ctx, mtlURL, tracker)
	if err != nil {
		return nil, err
	}
	materials, err := l.backend.LoadMaterials(bytes.NewReader(mtlData))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", mtlURL, err)
	}
	textures := l.fetchTextures(ctx, mtlURL, materials, req.Query, tracker)

	objURL, err := l.Resolve(req.GeometryPath, req.Query)
	if err != nil {
		return nil, err
	}
	objData, err := l.fetcher.Fetch(ctx, objURL, tracker)
	if err != nil {
		return nil, err
	}
	imported, err := l.backend.LoadReader(req.Name, bytes.NewReader(objData), bytes.NewReader(mtlData))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", objURL, err)
	}

	for i := range imported.Materials {
		if tex, ok := textures[imported.Materials[i].DiffuseTexturePath]; ok {
			imported.Materials[i].DiffuseTexture = tex
		}
	}

	l.logger.Debugw("model loaded",
		"name", req.Name,
		"meshes", len(imported.Meshes),
		"materials", len(imported.Materials),
		"textures", len(textures),
	)
	return l.importedToModel(imported), nil
}

func (l *loader) LoadReader(name string, geometry, materials io.Reader) (model.Model, error) {
	imported, err := l.backend.LoadReader(name, geometry, materials)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.importedToModel(imported), nil
}

// resolveBackend checks that the geometry path has an extension the configured backend decodes.
// Currently only Wavefront OBJ is supported.
func (l *loader) resolveBackend(p string) error {
	if l.backend == nil {
		return fmt.Errorf("loader: no backend configured")
	}
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".obj":
		return nil
	default:
		return fmt.Errorf("unsupported model format: %s", ext)
	}
}

// fetchTextures fetches and decodes every distinct diffuse texture referenced by materials,
// resolving texture paths against the material library URL. Failures are logged and skipped.
func (l *loader) fetchTextures(ctx context.Context, mtlURL string, materials []common.ImportedMaterial, query url.Values, tracker progress.Tracker) map[string]*common.ImportedTexture {
	textures := make(map[string]*common.ImportedTexture)
	for _, mat := range materials {
		texPath := mat.DiffuseTexturePath
		if texPath == "" {
			continue
		}
		if _, done := textures[texPath]; done {
			continue
		}

		texURL, err := resolveAgainst(mtlURL, texPath, query)
		if err != nil {
			l.logger.Warnw("texture skipped", "material", mat.Name, "path", texPath, "error", err)
			continue
		}
		data, err := l.fetcher.Fetch(ctx, texURL, tracker)
		if err != nil {
			l.logger.Warnw("texture skipped", "material", mat.Name, "url", texURL, "error", err)
			continue
		}

		tex := &common.ImportedTexture{Name: "diffuse", Path: texURL, Data: data}
		if _, err := tex.Decode(l.maxTextureSize); err != nil {
			l.logger.Warnw("texture skipped", "material", mat.Name, "url", texURL, "error", err)
			continue
		}
		textures[texPath] = tex
	}
	return textures
}

// importedToModel converts an ImportedModel (per-mesh CPU data) into a Model.
// It combines all mesh vertex and index data into single buffers, offsetting each mesh's
// indices by the running vertex count, and computes the combined bounds.
//
// Parameters:
//   - imported: the CPU-side ImportedModel containing mesh and material data
//
// Returns:
//   - model.Model: the Model with combined buffers
func (l *loader) importedToModel(imported *model.ImportedModel) model.Model {
	var allVertexBytes []byte
	var allIndexBytes []byte
	var allVertices []model.GPUVertex
	totalIndices := 0
	indexOffset := uint32(0)

	for _, mesh := range imported.Meshes {
		for i := range mesh.Vertices {
			allVertexBytes = append(allVertexBytes, mesh.Vertices[i].Marshal()...)
		}
		allVertices = append(allVertices, mesh.Vertices...)

		// Reindex: offset each index by the running vertex count across meshes
		adjusted := make([]uint32, len(mesh.Indices))
		for i, idx := range mesh.Indices {
			adjusted[i] = idx + indexOffset
		}
		allIndexBytes = append(allIndexBytes, common.SliceToBytes(adjusted)...)

		totalIndices += len(mesh.Indices)
		indexOffset += uint32(len(mesh.Vertices))
	}

	minimum, maximum := model.ComputeBounds(allVertices)
	return model.NewModel(
		model.WithName(imported.Name),
		model.WithMeshes(imported.Meshes),
		model.WithImportedMaterials(imported.Materials),
		model.WithVertexData(allVertexBytes),
		model.WithIndexData(allIndexBytes),
		model.WithIndexCount(totalIndices),
		model.WithBounds(minimum, maximum),
		model.WithBoundingRadius(model.ComputeBoundingRadius(allVertices)),
	)
}

// resolveAgainst resolves the relative path p against base and replaces the query with query.
func resolveAgainst(base, p string, query url.Values) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("loader: invalid base url %q: %w", base, err)
	}
	resolved := baseURL.ResolveReference(&url.URL{Path: strings.ReplaceAll(p, "\\", "/")})
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	}
	return resolved.String(), nil
}

package robot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-robot/engine/loader"

	"github.com/go-gl/mathgl/mgl32"
)

// ManifestFile is the name of the manifest document inside a robot directory.
const ManifestFile = "manifest.json"

// Pose is a joint placement relative to its parent: x, y, z followed by the rotation
// about x, y and z in radians.
type Pose [6]float64

// Position returns the translation part of the pose.
func (p Pose) Position() mgl32.Vec3 {
	return mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}
}

// Rotation returns the rotation part of the pose.
func (p Pose) Rotation() mgl32.Vec3 {
	return mgl32.Vec3{float32(p[3]), float32(p[4]), float32(p[5])}
}

// JointRef identifies a joint by its schema identifier and its index within the schema.
type JointRef struct {
	ID    string
	Index int
}

// Manifest describes the joints of a robot in chain order. Geometry[i] is the pose of Schema[i].
type Manifest struct {
	Schema   []string
	Geometry []Pose
}

// manifestDocument is the JSON shape of a manifest before validation.
type manifestDocument struct {
	Schema   []string    `json:"schema"`
	Geometry [][]float64 `json:"geometry"`
}

// Len returns the number of joints in the manifest.
func (m *Manifest) Len() int {
	return len(m.Schema)
}

// Joint returns the reference for the joint at index.
//
// Parameters:
//   - index: the schema index
//
// Returns:
//   - JointRef: the joint reference
//   - error: *JointIndexError if index is out of range
func (m *Manifest) Joint(index int) (JointRef, error) {
	if index < 0 || index >= len(m.Schema) {
		return JointRef{}, &JointIndexError{Index: index, Count: len(m.Schema)}
	}
	return JointRef{ID: m.Schema[index], Index: index}, nil
}

// Joints returns references for every joint in chain order.
func (m *Manifest) Joints() []JointRef {
	refs := make([]JointRef, len(m.Schema))
	for i, id := range m.Schema {
		refs[i] = JointRef{ID: id, Index: i}
	}
	return refs
}

// ParseManifest decodes and validates a manifest document. The schema must be non-empty,
// identifiers non-empty and unique, and every schema entry must have a geometry entry of
// exactly six numbers.
//
// Parameters:
//   - data: the JSON document
//
// Returns:
//   - *Manifest: the validated manifest
//   - error: *ManifestSchemaError if the document is malformed
func ParseManifest(data []byte) (*Manifest, error) {
	var doc manifestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ManifestSchemaError{Reason: "malformed json", Err: err}
	}

	if len(doc.Schema) == 0 {
		return nil, &ManifestSchemaError{Reason: "schema is empty"}
	}
	if len(doc.Geometry) != len(doc.Schema) {
		return nil, &ManifestSchemaError{
			Reason: fmt.Sprintf("schema has %d joints but geometry has %d entries", len(doc.Schema), len(doc.Geometry)),
		}
	}

	seen := make(map[string]int, len(doc.Schema))
	for i, id := range doc.Schema {
		if id == "" {
			return nil, &ManifestSchemaError{Reason: fmt.Sprintf("joint %d has an empty identifier", i)}
		}
		if prev, dup := seen[id]; dup {
			return nil, &ManifestSchemaError{Reason: fmt.Sprintf("joint %q listed at %d and %d", id, prev, i)}
		}
		seen[id] = i
	}

	m := &Manifest{
		Schema:   doc.Schema,
		Geometry: make([]Pose, len(doc.Geometry)),
	}
	for i, g := range doc.Geometry {
		if len(g) != len(Pose{}) {
			return nil, &ManifestSchemaError{Reason: fmt.Sprintf("geometry %d has %d values, want 6", i, len(g))}
		}
		copy(m.Geometry[i][:], g)
	}
	return m, nil
}

// FetchManifest retrieves and parses the manifest at manifestURL with a single request.
//
// Parameters:
//   - ctx: the request context
//   - fetcher: the transport to use
//   - manifestURL: the absolute manifest URL
//
// Returns:
//   - *Manifest: the validated manifest
//   - error: *ManifestFetchError on a non-success status, *ManifestSchemaError on bad content
func FetchManifest(ctx context.Context, fetcher loader.Fetcher, manifestURL string) (*Manifest, error) {
	data, err := fetcher.Fetch(ctx, manifestURL, nil)
	if err != nil {
		var fetchErr *loader.AssetFetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			return nil, &ManifestFetchError{URL: manifestURL, StatusCode: fetchErr.StatusCode, Status: fetchErr.Status}
		}
		return nil, fmt.Errorf("robot: failed to fetch manifest: %w", err)
	}
	return ParseManifest(data)
}

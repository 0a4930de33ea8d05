// package common contains common types that are used throughout the loader. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload by a consumer renderer.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// ImportedMaterial represents material properties from an imported material library (.mtl).
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the diffuse color (RGBA). Alpha carries the material opacity.
	BaseColor [4]float32

	// Ambient is the ambient reflectivity (RGB).
	Ambient [3]float32

	// Specular is the specular reflectivity (RGB).
	Specular [3]float32

	// Emissive is the emitted color (RGB).
	Emissive [3]float32

	// Shininess is the specular exponent.
	Shininess float32

	// DiffuseTexturePath is the path of the diffuse texture as written in the material library.
	DiffuseTexturePath string

	// DiffuseTexture holds the fetched diffuse texture (if present).
	DiffuseTexture *ImportedTexture
}

// ImportedTexture represents texture data fetched for a material.
// The Data field contains the raw encoded image bytes as received.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "diffuse").
	Name string

	// Path is the location the texture was fetched from.
	Path string

	// Data contains raw encoded image bytes (PNG/JPEG/GIF/TGA/BMP/WebP).
	Data []byte

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	// Staging holds the decoded RGBA pixels (populated after Decode).
	Staging *TextureStagingData
}

// Decode decodes the texture to raw RGBA pixel data. When maxSize is positive and either
// edge of the source image exceeds it, the image is downscaled preserving aspect ratio.
// Reference: https://pkg.go.dev/golang.org/x/image/draw
//
// Parameters:
//   - maxSize: the maximum edge length in pixels, or 0 for no limit
//
// Returns:
//   - TextureStagingData: RGBA pixels (4 bytes per pixel, row-major order) and dimensions
//   - error: error if decoding fails
func (t *ImportedTexture) Decode(maxSize int) (TextureStagingData, error) {
	if t == nil {
		return TextureStagingData{}, fmt.Errorf("texture is nil")
	}
	if len(t.Data) == 0 {
		return TextureStagingData{}, fmt.Errorf("texture %s has no data", t.Path)
	}

	img, err := decodeImage(t.Path, t.Data)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode texture %s: %w", t.Path, err)
	}

	src := img.Bounds()
	width, height := FitWithin(src.Dx(), src.Dy(), maxSize)

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == src.Dx() && height == src.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, src, draw.Src, nil)
	}

	staging := TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(width),
		Height: uint32(height),
	}
	t.Width = width
	t.Height = height
	t.Staging = &staging

	return staging, nil
}

// decodeImage picks the decoder from the extension of p, ignoring any query string.
// TGA has no magic number, so it is only tried for ".tga" paths or when no registered
// format recognises the data.
func decodeImage(p string, data []byte) (image.Image, error) {
	p, _, _ = strings.Cut(p, "?")
	if strings.EqualFold(path.Ext(p), ".tga") {
		return tga.Decode(bytes.NewReader(data))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		if img, tgaErr := tga.Decode(bytes.NewReader(data)); tgaErr == nil {
			return img, nil
		}
	}
	return img, err
}

// FitWithin returns the dimensions of a width x height rectangle scaled down so that neither
// edge exceeds maxSize. Dimensions are returned unchanged when maxSize <= 0 or already fit.
// Scaled edges never drop below one pixel.
//
// Parameters:
//   - width: source width
//   - height: source height
//   - maxSize: maximum edge length
//
// Returns:
//   - int: the fitted width
//   - int: the fitted height
func FitWithin(width, height, maxSize int) (int, int) {
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return width, height
	}
	if width >= height {
		return maxSize, max(height*maxSize/width, 1)
	}
	return max(width*maxSize/height, 1), maxSize
}

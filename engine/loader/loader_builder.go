package loader

import (
	"github.com/edaniels/golog"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithBaseURL is an option builder that sets the URL request paths are resolved against.
// A trailing slash is implied.
//
// Parameters:
//   - baseURL: the base URL, e.g. "http://localhost:10010/GBT-C12A/"
//
// Returns:
//   - LoaderBuilderOption: a function that applies the base URL option to a loader
func WithBaseURL(baseURL string) LoaderBuilderOption {
	return func(l *loader) {
		l.baseURL = baseURL
	}
}

// WithFetcher is an option builder that sets the Fetcher used for every request.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - LoaderBuilderOption: a function that applies the fetcher option to a loader
func WithFetcher(f Fetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.fetcher = f
	}
}

// WithMaxTextureSize is an option builder that sets the maximum texture edge length in pixels.
// Larger textures are downscaled when decoded. Zero disables the limit.
//
// Parameters:
//   - size: the maximum edge length
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture size option to a loader
func WithMaxTextureSize(size int) LoaderBuilderOption {
	return func(l *loader) {
		l.maxTextureSize = size
	}
}

// WithLogger is an option builder that sets the logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger golog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

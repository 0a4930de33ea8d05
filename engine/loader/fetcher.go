package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Carmen-Shannon/oxy-robot/engine/progress"
)

// fetchChunkSize is the read granularity at which progress is reported.
const fetchChunkSize = 32 * 1024

// AssetFetchError reports a failed asset request: either a transport failure (Err set)
// or a response with a non-success status (StatusCode set).
type AssetFetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *AssetFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loader: fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("loader: fetch %s: %s", e.URL, e.Status)
}

func (e *AssetFetchError) Unwrap() error {
	return e.Err
}

// httpFetcher is the implementation of the Fetcher interface over net/http.
type httpFetcher struct {
	client *http.Client
}

// Fetcher retrieves the full body of a URL, reporting progress as bytes arrive.
type Fetcher interface {
	// Fetch performs a single GET request for rawURL. Non-success statuses and transport
	// failures are returned as *AssetFetchError. Progress is reported to tracker, which may be nil.
	//
	// Parameters:
	//   - ctx: the request context
	//   - rawURL: the absolute URL to fetch
	//   - tracker: receives ItemStart/ItemProgress/ItemEnd/ItemError for rawURL
	//
	// Returns:
	//   - []byte: the response body
	//   - error: error if the request fails
	Fetch(ctx context.Context, rawURL string, tracker progress.Tracker) ([]byte, error)
}

var _ Fetcher = &httpFetcher{}

// NewHTTPFetcher creates a Fetcher backed by the given client. A nil client uses http.DefaultClient.
//
// Parameters:
//   - client: the HTTP client to issue requests with
//
// Returns:
//   - Fetcher: the fetcher
func NewHTTPFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFetcher{client: client}
}

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string, tracker progress.Tracker) ([]byte, error) {
	if tracker != nil {
		tracker.ItemStart(rawURL)
	}

	data, err := f.fetch(ctx, rawURL, tracker)
	if tracker != nil {
		if err != nil {
			tracker.ItemError(rawURL)
		} else {
			tracker.ItemEnd(rawURL)
		}
	}
	return data, err
}

func (f *httpFetcher) fetch(ctx context.Context, rawURL string, tracker progress.Tracker) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &AssetFetchError{URL: rawURL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &AssetFetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AssetFetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	total := resp.ContentLength
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	chunk := make([]byte, fetchChunkSize)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if tracker != nil {
				tracker.ItemProgress(rawURL, int64(buf.Len()), total)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, &AssetFetchError{URL: rawURL, Err: readErr}
		}
	}
	return buf.Bytes(), nil
}

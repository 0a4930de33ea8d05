package robot

import (
	"errors"
	"fmt"
)

// FallbackFailReason is recorded when a failed load carries no error message.
const FallbackFailReason = "failed to load robot model"

// ErrManifestEmpty is returned when joints are requested before a manifest is available.
var ErrManifestEmpty = errors.New("robot: manifest is empty")

// ErrLoaderClosed is returned by loads issued after Close.
var ErrLoaderClosed = errors.New("robot: loader is closed")

// ManifestFetchError reports a manifest request answered with a non-success status.
type ManifestFetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *ManifestFetchError) Error() string {
	return fmt.Sprintf("robot: failed to fetch manifest: %s", e.Status)
}

// ManifestSchemaError reports a manifest whose content does not have the expected shape.
type ManifestSchemaError struct {
	Reason string
	Err    error
}

func (e *ManifestSchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("robot: invalid manifest: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("robot: invalid manifest: %s", e.Reason)
}

func (e *ManifestSchemaError) Unwrap() error {
	return e.Err
}

// JointIndexError reports a joint index outside the manifest schema.
type JointIndexError struct {
	Index int
	Count int
}

func (e *JointIndexError) Error() string {
	return fmt.Sprintf("robot: joint index %d out of range [0, %d)", e.Index, e.Count)
}

// LoadError is returned by the RobotLoader when a load fails. Reason is the message
// recorded as the loader's fail reason.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	return e.Reason
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// newLoadError builds the LoadError for err, falling back to FallbackFailReason when err has no message.
func newLoadError(err error) *LoadError {
	reason := FallbackFailReason
	if err != nil && err.Error() != "" {
		reason = err.Error()
	}
	return &LoadError{Reason: reason, Err: err}
}

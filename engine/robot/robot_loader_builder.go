package robot

import (
	"time"

	"github.com/Carmen-Shannon/oxy-robot/engine/loader"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/edaniels/golog"
)

// RobotLoaderBuilderOption is a functional option for configuring a RobotLoader via NewRobotLoader.
type RobotLoaderBuilderOption func(*robotLoader)

// WithRobotPath is an option builder that sets the directory URL holding the manifest and joint assets.
// It is ignored when WithLoader is also supplied; the loader's base URL is used instead.
//
// Parameters:
//   - robotPath: the robot directory URL
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the robot path option to a robotLoader
func WithRobotPath(robotPath string) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.robotPath = robotPath
	}
}

// WithLoader is an option builder that sets the model loader used for joint assets.
//
// Parameters:
//   - l: the model loader
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the loader option to a robotLoader
func WithLoader(l loader.Loader) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.ldr = l
		r.robotPath = l.BaseURL()
	}
}

// WithFetcher is an option builder that sets the transport used for the manifest and,
// unless WithLoader is supplied, for joint assets.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the fetcher option to a robotLoader
func WithFetcher(f loader.Fetcher) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.fetcher = f
	}
}

// WithWorkers is an option builder that sets the number of workers loading joints concurrently.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the worker count option to a robotLoader
func WithWorkers(n int) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithWorkerPool is an option builder that sets the pool joint loads run on, so several
// loaders can share one. A supplied pool is not stopped by Close; WithWorkers is ignored.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the worker pool option to a robotLoader
func WithWorkerPool(pool worker.DynamicWorkerPool) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.pool = pool
	}
}

// WithClock is an option builder that sets the time source for cache-defeating query parameters.
//
// Parameters:
//   - clock: the time source
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the clock option to a robotLoader
func WithClock(clock func() time.Time) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.clock = clock
	}
}

// WithTerminalJointIndex is an option builder that sets which joint carries the axis arrows.
//
// Parameters:
//   - index: the schema index of the terminal joint
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the terminal index option to a robotLoader
func WithTerminalJointIndex(index int) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.terminalIndex = index
	}
}

// WithArrowLength is an option builder that sets the length of the axis arrows.
//
// Parameters:
//   - length: the arrow length
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the arrow length option to a robotLoader
func WithArrowLength(length float64) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.arrowLength = length
	}
}

// WithLayoutSpacing is an option builder that sets the distance between individually loaded joints.
//
// Parameters:
//   - spacing: the distance along +X
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the spacing option to a robotLoader
func WithLayoutSpacing(spacing float64) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.spacing = spacing
	}
}

// WithMaxTextureSize is an option builder that sets the maximum texture edge length.
// It has no effect when WithLoader is supplied.
//
// Parameters:
//   - size: the maximum edge length in pixels, 0 for no limit
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the texture size option to a robotLoader
func WithMaxTextureSize(size int) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.maxTextureSize = size
	}
}

// WithLogger is an option builder that sets the logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the logger option to a robotLoader
func WithLogger(logger golog.Logger) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.logger = logger
	}
}

// WithOnStateChange is an option builder that sets a callback invoked after every change
// of status, progress or fail reason. The callback runs on the goroutine making the change.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - RobotLoaderBuilderOption: a function that applies the callback option to a robotLoader
func WithOnStateChange(fn func(State)) RobotLoaderBuilderOption {
	return func(r *robotLoader) {
		r.onStateChange = fn
	}
}

package robot

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-robot/engine/loader"
	"github.com/Carmen-Shannon/oxy-robot/engine/node"
	"github.com/Carmen-Shannon/oxy-robot/engine/profiler"
	"github.com/Carmen-Shannon/oxy-robot/engine/progress"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/edaniels/golog"
	"go.uber.org/zap"
)

const (
	// DefaultRobotPath is the directory the manifest and joint assets are fetched from.
	DefaultRobotPath = "http://localhost:10010/GBT-C12A/"
	// DefaultLayoutSpacing is the distance between joints loaded individually.
	DefaultLayoutSpacing = 100.0
	// DefaultMaxTextureSize is the maximum texture edge length in pixels.
	DefaultMaxTextureSize = 2048
)

// Status is the lifecycle state of a RobotLoader.
type Status int

const (
	StatusPending Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of a RobotLoader's observable properties.
type State struct {
	Status     Status
	Progress   float64
	FailReason string
}

// robotLoader is the implementation of the RobotLoader interface.
type robotLoader struct {
	mu sync.RWMutex

	robotPath      string
	ldr            loader.Loader
	fetcher        loader.Fetcher
	workers        int
	clock          func() time.Time
	terminalIndex  int
	arrowLength    float64
	spacing        float64
	maxTextureSize int
	logger         golog.Logger
	onStateChange  func(State)

	pool      worker.DynamicWorkerPool
	ownsPool  bool
	asm       *assembler
	profiler  *profiler.Profiler
	container node.Node

	closed   bool
	inFlight sync.WaitGroup

	manifest   *Manifest
	status     Status
	progress   float64
	failReason string
}

// RobotLoader loads a robot described by a manifest into a container node and exposes
// the loading status and progress. Accessors are safe for concurrent use. Concurrent
// loads on one RobotLoader are not coordinated; the last write to the state wins.
type RobotLoader interface {
	// Load fetches the manifest, loads every joint and nests joint i under joint i-1.
	// On success the container holds exactly the chain root; anything previously added to it
	// is replaced. On failure the status becomes StatusFailed, the container is left unchanged
	// and a *LoadError is returned.
	//
	// Parameters:
	//   - ctx: the request context
	//
	// Returns:
	//   - error: *LoadError if any step fails
	Load(ctx context.Context) error

	// LoadIndividualJoints loads the joints at the given schema indices without nesting them.
	// The manifest is fetched only when none is cached. On success the container holds the
	// joints side by side, result k at (k*spacing, 0, 0).
	//
	// Parameters:
	//   - ctx: the request context
	//   - indices: the schema indices to load
	//
	// Returns:
	//   - error: *LoadError if any step fails
	LoadIndividualJoints(ctx context.Context, indices []int) error

	// ProgressPercentage returns the progress of the current or last load, 0 to 100.
	ProgressPercentage() float64

	// Status returns the lifecycle state.
	Status() Status

	// FailReason returns the reason of the last failure, or "" when the last load did not fail.
	FailReason() string

	// State returns a consistent snapshot of status, progress and fail reason.
	State() State

	// Manifest returns the cached manifest, or nil if none was fetched yet.
	Manifest() *Manifest

	// Container returns the node that loaded joints are added to.
	Container() node.Node

	// Close waits for in-flight loads and stops the worker pool, unless it was supplied
	// with WithWorkerPool. Later loads fail with ErrLoaderClosed. Close is idempotent.
	//
	// Returns:
	//   - error: always nil
	Close() error
}

var _ RobotLoader = &robotLoader{}

// NewRobotLoader creates a new RobotLoader with the provided options applied.
//
// Parameters:
//   - options: a variadic list of RobotLoaderBuilderOption functions to configure the loader
//
// Returns:
//   - RobotLoader: the newly created loader, in StatusPending
func NewRobotLoader(options ...RobotLoaderBuilderOption) RobotLoader {
	r := &robotLoader{
		robotPath:      DefaultRobotPath,
		workers:        max(runtime.NumCPU()-1, 1),
		clock:          time.Now,
		terminalIndex:  DefaultTerminalJointIndex,
		arrowLength:    DefaultArrowLength,
		spacing:        DefaultLayoutSpacing,
		maxTextureSize: DefaultMaxTextureSize,
		logger:         zap.NewNop().Sugar(),
		status:         StatusPending,
		container:      node.NewNode(node.WithName("robot")),
	}

	for _, option := range options {
		option(r)
	}

	if r.fetcher == nil {
		r.fetcher = loader.NewHTTPFetcher(nil)
	}
	if r.ldr == nil {
		r.ldr = loader.NewLoader(loader.BackendTypeOBJ,
			loader.WithBaseURL(r.robotPath),
			loader.WithFetcher(r.fetcher),
			loader.WithMaxTextureSize(r.maxTextureSize),
			loader.WithLogger(r.logger),
		)
	}

	if r.pool == nil {
		r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
		r.ownsPool = true
	}

	r.profiler = profiler.NewProfiler(r.logger)
	r.asm = &assembler{
		joints: &jointLoader{
			loader:        r.ldr,
			clock:         r.clock,
			terminalIndex: r.terminalIndex,
			arrowLength:   r.arrowLength,
			logger:        r.logger,
		},
		pool:   r.pool,
		logger: r.logger,
	}
	return r
}

func (r *robotLoader) Load(ctx context.Context) error {
	if err := r.acquire(); err != nil {
		return err
	}
	defer r.inFlight.Done()

	r.begin()
	session := r.profiler.Begin("load")

	manifest, err := r.fetchManifest(ctx)
	if err != nil {
		return r.fail(session, err)
	}

	joints, err := r.asm.loadJoints(ctx, manifest, manifest.Joints(), true, r.newTracker())
	if err != nil {
		return r.fail(session, err)
	}

	for i := 1; i < len(joints); i++ {
		joints[i-1].Add(joints[i])
	}
	r.container.Clear()
	r.container.Add(joints[0])

	r.succeed(session, len(joints))
	return nil
}

func (r *robotLoader) LoadIndividualJoints(ctx context.Context, indices []int) error {
	if err := r.acquire(); err != nil {
		return err
	}
	defer r.inFlight.Done()

	r.begin()
	session := r.profiler.Begin("load_individual_joints")

	manifest := r.Manifest()
	if manifest == nil {
		var err error
		if manifest, err = r.fetchManifest(ctx); err != nil {
			return r.fail(session, err)
		}
	}

	refs := make([]JointRef, len(indices))
	for k, index := range indices {
		ref, err := manifest.Joint(index)
		if err != nil {
			return r.fail(session, err)
		}
		refs[k] = ref
	}

	joints, err := r.asm.loadJoints(ctx, manifest, refs, false, r.newTracker())
	if err != nil {
		return r.fail(session, err)
	}

	r.container.Clear()
	for k, joint := range joints {
		joint.SetPosition(float32(float64(k)*r.spacing), 0, 0)
		r.container.Add(joint)
	}

	r.succeed(session, len(joints))
	return nil
}

func (r *robotLoader) ProgressPercentage() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress
}

func (r *robotLoader) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *robotLoader) FailReason() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failReason
}

func (r *robotLoader) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state()
}

func (r *robotLoader) Manifest() *Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manifest
}

func (r *robotLoader) Container() node.Node {
	return r.container
}

func (r *robotLoader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.inFlight.Wait()
	if r.ownsPool {
		r.pool.Stop()
	}
	r.logger.Debugw("robot loader closed", "path", r.robotPath)
	return nil
}

// acquire registers a load with the in-flight group. Loads on a closed loader are
// rejected without touching the observable state.
func (r *robotLoader) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return newLoadError(ErrLoaderClosed)
	}
	r.inFlight.Add(1)
	return nil
}

// fetchManifest fetches the manifest and replaces the cached one on success.
func (r *robotLoader) fetchManifest(ctx context.Context) (*Manifest, error) {
	manifestURL, err := r.ldr.Resolve(ManifestFile, nil)
	if err != nil {
		return nil, err
	}
	manifest, err := FetchManifest(ctx, r.fetcher, manifestURL)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.manifest = manifest
	r.mu.Unlock()

	r.logger.Debugw("manifest fetched", "url", manifestURL, "joints", manifest.Len())
	return manifest, nil
}

// newTracker creates the progress aggregator for one batch.
func (r *robotLoader) newTracker() progress.Tracker {
	return progress.NewAggregator(progress.WithOnProgress(r.setProgress))
}

func (r *robotLoader) begin() {
	r.update(func() {
		r.status = StatusLoading
		r.progress = 0
		r.failReason = ""
	})
}

func (r *robotLoader) setProgress(percentage float64) {
	r.update(func() {
		r.progress = percentage
	})
}

func (r *robotLoader) succeed(session *profiler.Session, joints int) {
	r.update(func() {
		r.status = StatusLoaded
	})
	session.End("joints", joints, "status", StatusLoaded.String())
}

func (r *robotLoader) fail(session *profiler.Session, err error) error {
	loadErr := newLoadError(err)
	r.update(func() {
		r.status = StatusFailed
		r.failReason = loadErr.Reason
	})
	session.End("status", StatusFailed.String())
	r.logger.Errorw("robot load failed", "path", r.robotPath, "error", err)
	return loadErr
}

// update applies fn under the write lock and notifies the state change callback outside of it.
func (r *robotLoader) update(fn func()) {
	r.mu.Lock()
	fn()
	state := r.state()
	cb := r.onStateChange
	r.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

func (r *robotLoader) state() State {
	return State{
		Status:     r.status,
		Progress:   r.progress,
		FailReason: r.failReason,
	}
}

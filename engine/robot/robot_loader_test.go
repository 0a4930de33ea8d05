package robot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-robot/engine/loader"
	"github.com/Carmen-Shannon/oxy-robot/engine/node"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestRobotLoader(t *testing.T, srv *assetServer, options ...RobotLoaderBuilderOption) RobotLoader {
	t.Helper()
	base := []RobotLoaderBuilderOption{
		WithRobotPath(srv.robotPath()),
		WithLogger(golog.NewTestLogger(t)),
		WithClock(fixedClock()),
		WithWorkers(4),
	}
	rl := NewRobotLoader(append(base, options...)...)
	t.Cleanup(func() { rl.Close() })
	return rl
}

// meshChildren returns the children of n that carry a model.
func meshChildren(n node.Node) []node.Node {
	var out []node.Node
	for _, c := range n.Children() {
		if c.Kind() == node.KindMesh {
			out = append(out, c)
		}
	}
	return out
}

// arrowChildren returns the children of n that carry an arrow.
func arrowChildren(n node.Node) []node.Node {
	var out []node.Node
	for _, c := range n.Children() {
		if c.Kind() == node.KindArrow {
			out = append(out, c)
		}
	}
	return out
}

// chain walks the joint chain below the container, root first.
func chain(t *testing.T, container node.Node) []node.Node {
	t.Helper()
	roots := container.Children()
	if len(roots) != 1 {
		t.Fatalf("container has %d children, want 1", len(roots))
	}
	joints := []node.Node{roots[0]}
	for {
		next := meshChildren(joints[len(joints)-1])
		if len(next) == 0 {
			return joints
		}
		if len(next) > 1 {
			t.Fatalf("joint %s has %d joint children, want 1", joints[len(joints)-1].Name(), len(next))
		}
		joints = append(joints, next[0])
	}
}

func TestLoadAssemblesChain(t *testing.T) {
	for _, n := range []int{1, 2, 7, 9} {
		t.Run(fmt.Sprintf("joints=%d", n), func(t *testing.T) {
			srv := newAssetServer(t, robotFiles(t, n))
			rl := newTestRobotLoader(t, srv)

			if rl.Status() != StatusPending {
				t.Fatalf("initial status = %v, want pending", rl.Status())
			}
			if err := rl.Load(context.Background()); err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			joints := chain(t, rl.Container())
			if len(joints) != n {
				t.Fatalf("chain depth = %d, want %d", len(joints), n)
			}
			for i, j := range joints {
				if want := fmt.Sprintf("J%d", i); j.Name() != want {
					t.Errorf("chain[%d] = %s, want %s", i, j.Name(), want)
				}
				if j.Model() == nil || j.Model().VertexCount() != 3 {
					t.Errorf("chain[%d] model not loaded", i)
				}
			}
			if joints[0].Parent() != rl.Container() {
				t.Error("chain root is not parented to the container")
			}

			if rl.Status() != StatusLoaded {
				t.Errorf("status = %v, want loaded", rl.Status())
			}
			if rl.FailReason() != "" {
				t.Errorf("fail reason = %q, want empty", rl.FailReason())
			}
			if p := rl.ProgressPercentage(); math.Abs(p-100) > 0.01 {
				t.Errorf("progress = %v, want 100", p)
			}
		})
	}
}

// The assembled chain offsets joint i by the geometry entry of joint i-1, with the base at
// the zero pose. This mirrors how the manifest has always been consumed; the manifest format
// describes geometry[i] as the pose of joint i, so a change here changes the robot's shape.
func TestLoadPoseFollowsPredecessorGeometry(t *testing.T) {
	const n = 7
	srv := newAssetServer(t, robotFiles(t, n))
	rl := newTestRobotLoader(t, srv)
	if err := rl.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	joints := chain(t, rl.Container())
	if got := joints[0].Position(); got != (mgl32.Vec3{}) {
		t.Errorf("base position = %v, want zero", got)
	}
	if r := joints[0].Rotation(); r.X != 0 || r.Y != 0 || r.Z != 0 {
		t.Errorf("base rotation = %+v, want zero", r)
	}
	for i := 1; i < n; i++ {
		want := testGeometry(i - 1)
		if got := joints[i].Position(); !got.ApproxEqual(want.Position()) {
			t.Errorf("joint %d position = %v, want %v", i, got, want.Position())
		}
		r := joints[i].Rotation()
		if got := (mgl32.Vec3{r.X, r.Y, r.Z}); !got.ApproxEqual(want.Rotation()) {
			t.Errorf("joint %d rotation = %v, want %v", i, got, want.Rotation())
		}
	}
}

func TestLoadRotationOrder(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 7))
	rl := newTestRobotLoader(t, srv)
	if err := rl.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	joints := chain(t, rl.Container())
	if got := joints[0].Rotation().Order; got != mgl32.ZYX {
		t.Errorf("joint 0 order = %v, want ZYX", got)
	}
	for i := 1; i < len(joints); i++ {
		if got := joints[i].Rotation().Order; got != mgl32.XYZ {
			t.Errorf("joint %d order = %v, want XYZ", i, got)
		}
	}
}

func TestLoadTerminalJointArrows(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 8))
	rl := newTestRobotLoader(t, srv)
	if err := rl.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	joints := chain(t, rl.Container())
	wantDirs := []r3.Vec{{Z: 1}, {Y: 1}, {X: 1}}
	for i, j := range joints {
		arrows := arrowChildren(j)
		if i != DefaultTerminalJointIndex {
			if len(arrows) != 0 {
				t.Errorf("joint %d has %d arrows, want 0", i, len(arrows))
			}
			continue
		}
		if len(arrows) != 3 {
			t.Fatalf("joint %d has %d arrows, want 3", i, len(arrows))
		}
		for k, a := range arrows {
			arrow := a.Arrow()
			if arrow.Direction != wantDirs[k] {
				t.Errorf("arrow %d direction = %v, want %v", k, arrow.Direction, wantDirs[k])
			}
			if arrow.Length != DefaultArrowLength {
				t.Errorf("arrow %d length = %v, want %v", k, arrow.Length, DefaultArrowLength)
			}
			if arrow.Origin != (r3.Vec{}) {
				t.Errorf("arrow %d origin = %v, want zero", k, arrow.Origin)
			}
		}
		if arrows[0].Arrow().Color != node.ColorBlue || arrows[1].Arrow().Color != node.ColorGreen || arrows[2].Arrow().Color != node.ColorRed {
			t.Error("arrow colors are not blue, green, red")
		}
	}
}

func TestLoadIndividualJoints(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 7))
	rl := newTestRobotLoader(t, srv)

	indices := []int{4, 0, 6}
	if err := rl.LoadIndividualJoints(context.Background(), indices); err != nil {
		t.Fatalf("LoadIndividualJoints() error = %v", err)
	}

	children := rl.Container().Children()
	if len(children) != len(indices) {
		t.Fatalf("container has %d children, want %d", len(children), len(indices))
	}
	for k, c := range children {
		if want := fmt.Sprintf("J%d", indices[k]); c.Name() != want {
			t.Errorf("child %d = %s, want %s", k, c.Name(), want)
		}
		if want := (mgl32.Vec3{float32(k) * 100, 0, 0}); c.Position() != want {
			t.Errorf("child %d position = %v, want %v", k, c.Position(), want)
		}
		if r := c.Rotation(); r.X != 0 || r.Y != 0 || r.Z != 0 {
			t.Errorf("child %d rotation = %+v, want zero", k, r)
		}
		if len(meshChildren(c)) != 0 {
			t.Errorf("child %d has nested joints", k)
		}
	}
	if got := children[1].Rotation().Order; got != mgl32.ZYX {
		t.Errorf("joint 0 order = %v, want ZYX", got)
	}
	if got := len(arrowChildren(children[2])); got != 3 {
		t.Errorf("terminal joint has %d arrows, want 3", got)
	}

	// a second call replaces the previous layout
	if err := rl.LoadIndividualJoints(context.Background(), []int{1}); err != nil {
		t.Fatalf("second LoadIndividualJoints() error = %v", err)
	}
	if got := len(rl.Container().Children()); got != 1 {
		t.Errorf("container has %d children after reload, want 1", got)
	}
}

func TestManifestCaching(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 3))
	rl := newTestRobotLoader(t, srv)
	ctx := context.Background()

	for range 2 {
		if err := rl.LoadIndividualJoints(ctx, []int{0}); err != nil {
			t.Fatalf("LoadIndividualJoints() error = %v", err)
		}
	}
	if got := srv.count(ManifestFile); got != 1 {
		t.Errorf("manifest fetched %d times by LoadIndividualJoints, want 1", got)
	}

	for range 2 {
		if err := rl.Load(ctx); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if got := srv.count(ManifestFile); got != 3 {
		t.Errorf("manifest fetched %d times in total, want 3", got)
	}
	if rl.Manifest() == nil || rl.Manifest().Len() != 3 {
		t.Errorf("cached manifest = %+v", rl.Manifest())
	}
}

func TestLoadCacheBuster(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 3))
	rl := newTestRobotLoader(t, srv)
	if err := rl.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	assets := 0
	for _, uri := range srv.requestURIs() {
		if strings.HasSuffix(uri, ManifestFile) {
			continue
		}
		assets++
		if !strings.HasSuffix(uri, "?t=1700000000123") {
			t.Errorf("request %s lacks the cache-defeating parameter", uri)
		}
	}
	if assets != 6 {
		t.Errorf("asset requests = %d, want 6", assets)
	}
}

func TestLoadManifestNotFound(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 3))
	rl := newTestRobotLoader(t, srv)
	ctx := context.Background()

	if err := rl.LoadIndividualJoints(ctx, []int{0, 1}); err != nil {
		t.Fatalf("LoadIndividualJoints() error = %v", err)
	}
	before := rl.Container().Children()

	srv.setStatus(ManifestFile, http.StatusNotFound)
	err := rl.Load(ctx)
	if err == nil {
		t.Fatal("Load() succeeded with a missing manifest")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error %T is not a *LoadError", err)
	}
	var fetchErr *ManifestFetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("error %v does not carry a 404 ManifestFetchError", err)
	}
	if !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("error %q does not contain the status text", err)
	}

	if rl.Status() != StatusFailed {
		t.Errorf("status = %v, want failed", rl.Status())
	}
	if rl.FailReason() == "" || rl.FailReason() != loadErr.Reason {
		t.Errorf("fail reason = %q, error reason = %q", rl.FailReason(), loadErr.Reason)
	}

	after := rl.Container().Children()
	if len(after) != len(before) {
		t.Fatalf("container changed from %d to %d children", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("container child %d replaced", i)
		}
	}
}

func TestLoadAssetFailure(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 5))
	srv.setStatus("J3.obj", http.StatusInternalServerError)
	rl := newTestRobotLoader(t, srv)

	err := rl.Load(context.Background())
	var fetchErr *loader.AssetFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Load() error = %v, want an AssetFetchError", err)
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", fetchErr.StatusCode)
	}
	if !strings.Contains(fetchErr.URL, "J3.obj") {
		t.Errorf("failed url = %s, want J3.obj", fetchErr.URL)
	}
	if rl.Status() != StatusFailed {
		t.Errorf("status = %v, want failed", rl.Status())
	}
	if got := len(rl.Container().Children()); got != 0 {
		t.Errorf("container has %d children after failure, want 0", got)
	}
}

func TestLoadIndividualJointsIndexOutOfRange(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 3))
	rl := newTestRobotLoader(t, srv)

	err := rl.LoadIndividualJoints(context.Background(), []int{0, 3})
	var indexErr *JointIndexError
	if !errors.As(err, &indexErr) {
		t.Fatalf("error = %v, want a JointIndexError", err)
	}
	if indexErr.Index != 3 || indexErr.Count != 3 {
		t.Errorf("JointIndexError = %+v", indexErr)
	}
	if rl.Status() != StatusFailed {
		t.Errorf("status = %v, want failed", rl.Status())
	}
	if got := srv.count("J0.obj"); got != 0 {
		t.Errorf("J0.obj fetched %d times before validation finished", got)
	}
}

func TestLoadReentryResetsState(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 4))
	srv.setStatus(ManifestFile, http.StatusServiceUnavailable)

	var mu sync.Mutex
	var states []State
	rl := newTestRobotLoader(t, srv, WithOnStateChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))
	ctx := context.Background()

	if err := rl.Load(ctx); err == nil {
		t.Fatal("first Load() succeeded")
	}
	if rl.Status() != StatusFailed {
		t.Fatalf("status = %v, want failed", rl.Status())
	}

	mu.Lock()
	states = nil
	mu.Unlock()

	srv.setStatus(ManifestFile, 0)
	if err := rl.Load(ctx); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 {
		t.Fatalf("observed %d state changes, want at least 2", len(states))
	}
	if first := states[0]; first != (State{Status: StatusLoading}) {
		t.Errorf("first state of reload = %+v, want loading/0/empty", first)
	}
	for i, s := range states {
		if s.Progress < 0 || s.Progress > 100 {
			t.Errorf("state %d progress %v out of range", i, s.Progress)
		}
		if s.FailReason != "" {
			t.Errorf("state %d carries stale fail reason %q", i, s.FailReason)
		}
	}
	last := states[len(states)-1]
	if last.Status != StatusLoaded || math.Abs(last.Progress-100) > 0.01 {
		t.Errorf("final state = %+v, want loaded at 100", last)
	}
	if rl.State() != last {
		t.Errorf("State() = %+v, want %+v", rl.State(), last)
	}
}

func TestLoadErrorFallbackReason(t *testing.T) {
	err := newLoadError(errors.New(""))
	if err.Reason != FallbackFailReason {
		t.Errorf("reason = %q, want %q", err.Reason, FallbackFailReason)
	}
	cause := errors.New("boom")
	if err := newLoadError(cause); err.Reason != "boom" || !errors.Is(err, cause) {
		t.Errorf("newLoadError(boom) = %+v", err)
	}
}

func TestLoadReplacesContainerContent(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 2))
	rl := newTestRobotLoader(t, srv)
	stale := node.NewNode(node.WithName("stale"))
	rl.Container().Add(stale)

	for i := range 2 {
		if err := rl.Load(context.Background()); err != nil {
			t.Fatalf("Load() #%d error = %v", i+1, err)
		}
	}

	roots := rl.Container().Children()
	if len(roots) != 1 {
		t.Fatalf("container has %d children, want 1", len(roots))
	}
	if roots[0] == stale {
		t.Error("container still holds the node added before Load")
	}
	if got := len(chain(t, rl.Container())); got != 2 {
		t.Errorf("chain length = %d, want 2", got)
	}
}

func TestCloseRejectsLoads(t *testing.T) {
	srv := newAssetServer(t, robotFiles(t, 3))
	rl := newTestRobotLoader(t, srv)

	if err := rl.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	requests := srv.count(ManifestFile)
	err := rl.Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, ErrLoaderClosed) {
		t.Fatalf("Load() after Close error = %v, want *LoadError wrapping ErrLoaderClosed", err)
	}
	if err := rl.LoadIndividualJoints(context.Background(), []int{0}); !errors.Is(err, ErrLoaderClosed) {
		t.Fatalf("LoadIndividualJoints() after Close error = %v, want ErrLoaderClosed", err)
	}
	if got := srv.count(ManifestFile); got != requests {
		t.Errorf("manifest requested %d times after Close, want %d", got, requests)
	}
	if rl.Status() != StatusLoaded {
		t.Errorf("Status() = %v, want loaded state kept", rl.Status())
	}
	if got := len(chain(t, rl.Container())); got != 3 {
		t.Errorf("chain length = %d, want 3", got)
	}
}

func TestSharedWorkerPool(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(2, 16, time.Second)
	t.Cleanup(pool.Stop)

	srv := newAssetServer(t, robotFiles(t, 4))
	first := newTestRobotLoader(t, srv, WithWorkerPool(pool))
	second := newTestRobotLoader(t, srv, WithWorkerPool(pool))

	if err := first.Load(context.Background()); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The shared pool keeps serving the loaders that were not closed.
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if got := len(chain(t, second.Container())); got != 4 {
		t.Errorf("chain length = %d, want 4", got)
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusPending: "pending",
		StatusLoading: "loading",
		StatusLoaded:  "loaded",
		StatusFailed:  "failed",
		Status(42):    "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

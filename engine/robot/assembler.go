package robot

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/oxy-robot/engine/node"
	"github.com/Carmen-Shannon/oxy-robot/engine/progress"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/edaniels/golog"
)

// assembler loads batches of joints concurrently on a shared worker pool.
type assembler struct {
	joints *jointLoader
	pool   worker.DynamicWorkerPool
	logger golog.Logger
}

// loadJoints loads every joint in refs concurrently and returns the nodes in the order of refs.
// With assemble set, the first joint sits at the zero pose and joint i uses the geometry
// declared for joint i-1 of the batch; otherwise every joint sits at the zero pose.
// All loads run to completion before the first error, if any, is returned.
//
// Parameters:
//   - ctx: the request context
//   - manifest: the manifest the refs belong to
//   - refs: the joints to load, in output order
//   - assemble: whether poses are taken from the manifest
//   - tracker: receives per-fetch progress for the whole batch
//
// Returns:
//   - []node.Node: the joint nodes, index aligned with refs
//   - error: ErrManifestEmpty, *JointIndexError or the first joint load failure
func (a *assembler) loadJoints(ctx context.Context, manifest *Manifest, refs []JointRef, assemble bool, tracker progress.Tracker) ([]node.Node, error) {
	if manifest == nil || manifest.Len() == 0 {
		return nil, ErrManifestEmpty
	}
	for _, ref := range refs {
		if ref.Index < 0 || ref.Index >= manifest.Len() {
			return nil, &JointIndexError{Index: ref.Index, Count: manifest.Len()}
		}
	}

	poses := jointPoses(manifest, refs, assemble)
	results := make([]node.Node, len(refs))

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	for i, ref := range refs {
		wg.Add(1)
		a.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()

				n, err := a.joints.load(ctx, ref, poses[i], tracker)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					a.logger.Errorw("joint load failed", "joint", ref.ID, "index", ref.Index, "error", err)
					return nil, nil
				}
				results[i] = n
				return nil, nil
			},
		})
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// jointPoses selects the pose of each joint in a batch.
func jointPoses(manifest *Manifest, refs []JointRef, assemble bool) []Pose {
	poses := make([]Pose, len(refs))
	if !assemble {
		return poses
	}
	for i := 1; i < len(refs); i++ {
		poses[i] = manifest.Geometry[refs[i-1].Index]
	}
	return poses
}

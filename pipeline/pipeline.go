// Package pipeline wires the per-frame driver: edge construction,
// association, and tracking update, run once per video frame while
// carrying the previous frame's tracked 3D skeletons forward, mirroring
// main.cpp's per-frame loop (component C12).
package pipeline

import (
	"runtime"
	"sync"

	"github.com/cpmech/assoc4d/assoc"
	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/config"
	"github.com/cpmech/assoc4d/detect"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/fit"
	"github.com/cpmech/assoc4d/skel"
	"github.com/cpmech/assoc4d/track"
)

// Frame is the per-frame driver: it owns the associater and updater state
// that must persist across frames (identity bookkeeping, tracked
// skeletons, shape locks) and exposes a single Step call per video frame.
type Frame struct {
	Type skel.Type
	Cams []cam.Camera

	associater *assoc.Associater
	updater    track.Updater
}

// New builds a driver from a loaded parameter set, a camera set (already
// in view order) and a skeleton model. It wires every weight/threshold
// named in SPEC_FULL.md's config section into the associater and the
// fitting updater, mirroring the original's SetXxx calls in main.cpp,
// except WRegularShape and WTemporalShape: the fitting updater has no
// fields for them, so they are not passed on.
func New(p *config.Params, cams []cam.Camera, model drive.Model) *Frame {
	t, _ := skel.ParseType(p.SkelType)

	a := assoc.NewAssociater(t, cams)
	a.MaxEpiDist = p.MaxEpiDist
	a.MaxTempDist = p.MaxTempDist
	a.MinAsgnCnt = p.MinAsgnCnt
	a.NormalizeEdges = p.NormalizeEdges
	a.WEpi = p.WEpi
	a.WTemp = p.WTemp
	a.WPaf = p.WPaf
	a.WView = p.WView
	a.WHier = p.WHier
	a.CViewCnt = p.CViewCnt
	a.MinCheckCnt = p.MinCheckCnt

	driveDef := drive.NewDef(t, model)
	solver := fit.NewDef(driveDef)

	u := track.NewFittingUpdater(t, solver)
	u.TriangulateThresh = p.TriangulateThresh
	u.MinTrackJCnt = p.MinTrackJCnt
	u.MinTriangulateJCnt = p.MinTriangulateJCnt
	u.BoneCapacity = p.BoneCapacity
	u.WBone3d = p.WBone3d
	u.WSquareShape = p.WSquareShape
	u.ShapeMaxIter = p.ShapeMaxIter
	u.WRegularPose = p.WRegularPose
	u.WTemporalTrans = p.WTemporalTrans
	u.WTemporalPose = p.WTemporalPose
	u.WJ2d = p.WJ2d
	u.WJ3d = p.WJ3d
	u.PoseMaxIter = p.PoseMaxIter
	u.InitActive = p.InitActive
	u.ActiveRate = p.ActiveRate

	return &Frame{Type: t, Cams: cams, associater: a, updater: u}
}

// Step runs the full per-frame pipeline on one frame's per-view detections
// (frames[view] is that view's joint candidates/PAFs for this time step):
// rebuild the joint/PAF edges against the previous frame's tracked
// skeletons, run the greedy associater, then update the tracker, returning
// the resulting tracked 3D skeletons for this frame.
func (f *Frame) Step(frames []detect.Frame) drive.FrameSkels {
	a := f.associater
	a.Frames = frames
	a.SkelsPrev = f.updater.Skels()
	a.PrevOrder = sortedSkelKeys(a.SkelsPrev)

	a.Associate()

	f.updater.Update(a.Skels2D, f.Cams)
	return f.updater.Skels()
}

func sortedSkelKeys(m drive.FrameSkels) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// LoadStreams reads every view's detection stream concurrently, one
// worker goroutine per CPU pulling view indices off a channel, mirroring
// main.cpp's "#pragma omp parallel for" camera/video/detection loading
// loop. The returned slice is in camera order, so LoadStreams(names,...)[i]
// corresponds to cams[i] built from the same ordered name list.
func LoadStreams(dir string, names []string) ([]detect.Detection, error) {
	n := len(names)
	out := make([]detect.Detection, n)
	errs := make([]error, n)

	procs := runtime.NumCPU()
	if procs > n {
		procs = n
	}
	if procs < 1 {
		procs = 1
	}

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(procs)
	for w := 0; w < procs; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				det, err := detect.ParseFile(dir, names[i])
				out[i] = det
				errs[i] = err
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

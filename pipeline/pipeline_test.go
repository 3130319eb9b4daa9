package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/config"
	"github.com/cpmech/assoc4d/detect"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/skel"
)

func identityCamAt(pos cam.Vec3) cam.Camera {
	var c cam.Camera
	k := cam.Mat3{{1000, 0, 500}, {0, 1000, 500}, {0, 0, 1}}
	r := cam.Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	t := r.MulVec(pos).Scale(-1)
	c.SetExtrinsics(k, r, t)
	return c
}

func emptyFrame(def skel.Def) detect.Frame {
	return detect.Frame{Joints: make([]detect.JointCandidates, def.JointSize), Pafs: make([]detect.PafMatrix, def.PafSize)}
}

// twoViewFrames builds one frame's detections across two views, with
// exactly one strong PAF candidate linking joints 0 and 1 of
// Skel15's dictionary, projected from two 3D targets.
func twoViewFrames(cams []cam.Camera, def skel.Def) []detect.Frame {
	frames := []detect.Frame{emptyFrame(def), emptyFrame(def)}
	pafIdx := 0
	ja, jb := def.PafDict[pafIdx][0], def.PafDict[pafIdx][1]

	targetA := cam.Vec3{0, 0, 5}
	targetB := cam.Vec3{0, 1, 5}
	for view := range frames {
		abcA := cams[view].Project(targetA)
		abcB := cams[view].Project(targetB)
		frames[view].Joints[ja] = detect.JointCandidates{U: []float64{abcA[0] / abcA[2]}, V: []float64{abcA[1] / abcA[2]}, Conf: []float64{1}}
		frames[view].Joints[jb] = detect.JointCandidates{U: []float64{abcB[0] / abcB[2]}, V: []float64{abcB[1] / abcB[2]}, Conf: []float64{1}}
		for pi := range frames[view].Pafs {
			endp := def.PafDict[pi]
			rows := frames[view].Joints[endp[0]].Len()
			cols := frames[view].Joints[endp[1]].Len()
			m := detect.PafMatrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
			if pi == pafIdx {
				m.Data[0] = 1
			}
			frames[view].Pafs[pi] = m
		}
	}
	return frames
}

func flatModel(t skel.Type) drive.Model {
	def := skel.GetDef(t)
	joints := make([]cam.Vec3, def.JointSize)
	blend := make([][]float64, 3*def.JointSize)
	for i := range blend {
		blend[i] = make([]float64, def.ShapeSize)
	}
	return drive.Model{Type: t, Joints: joints, ShapeBlend: blend}
}

func TestFrameStepTracksAnIdentityAcrossFrames(t *testing.T) {
	skelType := skel.Skel15
	def := skel.GetDef(skelType)
	cams := []cam.Camera{identityCamAt(cam.Vec3{-1, 0, 0}), identityCamAt(cam.Vec3{1, 0, 0})}

	var p config.Params
	p.SetDefault()
	p.MinAsgnCnt = 0
	p.MinTrackJCnt = 0
	p.MinTriangulateJCnt = 0
	p.SkelType = "skel15"

	f := New(&p, cams, flatModel(skelType))

	frames := twoViewFrames(cams, def)
	skels := f.Step(frames)
	if len(skels) == 0 {
		t.Fatalf("expected at least one tracked skeleton after the first frame")
	}

	skels = f.Step(frames)
	if len(skels) == 0 {
		t.Fatalf("expected the tracked identity to survive a second, identical frame")
	}
}

func TestLoadStreamsReadsEveryViewInOrder(t *testing.T) {
	dir := t.TempDir()

	skelType := skel.Shelf15
	def := skel.GetDef(skelType)
	names := []string{"cam0", "cam1", "cam2"}

	for _, name := range names {
		writeEmptyDetectionFile(t, dir, name, skelType, def)
	}

	dets, err := LoadStreams(dir, names)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dets) != len(names) {
		t.Fatalf("expected %d streams, got %d", len(names), len(dets))
	}
	for i, det := range dets {
		if det.Type != skelType {
			t.Fatalf("stream %d: expected type %v, got %v", i, skelType, det.Type)
		}
		if len(det.Frames) != 1 {
			t.Fatalf("stream %d: expected 1 frame, got %d", i, len(det.Frames))
		}
	}
}

// writeEmptyDetectionFile writes a single frame with zero candidates at
// every joint, which also makes every PAF matrix 0x0 (no values to write).
func writeEmptyDetectionFile(t *testing.T, dir, name string, skelType skel.Type, def skel.Def) {
	t.Helper()
	path := filepath.Join(dir, name+".txt")
	s := fmt.Sprintf("%d 1", int(skelType))
	for j := 0; j < def.JointSize; j++ {
		s += " 0"
	}
	if err := os.WriteFile(path, []byte(s), 0644); err != nil {
		t.Fatalf("failed to write fixture %q: %v", path, err)
	}
}

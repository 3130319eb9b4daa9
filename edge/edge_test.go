package edge

import (
	"math"
	"testing"

	"github.com/cpmech/assoc4d/cam"
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
	f := detect.Frame{Joints: make([]detect.JointCandidates, def.JointSize), Pafs: make([]detect.PafMatrix, def.PafSize)}
	return f
}

func TestPoint2LineDistZeroOnLine(t *testing.T) {
	d := Point2LineDist(cam.Vec3{2, 0, 0}, cam.Vec3{0, 0, 0}, cam.Vec3{1, 0, 0})
	if math.Abs(d) > 1e-9 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestLine2LineDistParallelFallsBackToPointLine(t *testing.T) {
	d := Line2LineDist(cam.Vec3{0, 1, 0}, cam.Vec3{1, 0, 0}, cam.Vec3{0, 0, 0}, cam.Vec3{1, 0, 0})
	if math.Abs(d-1) > 1e-6 {
		t.Fatalf("expected distance 1 between parallel lines, got %v", d)
	}
}

func TestLine2LineDistIntersecting(t *testing.T) {
	d := Line2LineDist(cam.Vec3{0, 0, 0}, cam.Vec3{1, 0, 0}, cam.Vec3{0, 0, 0}, cam.Vec3{0, 1, 0})
	if math.Abs(d) > 1e-9 {
		t.Fatalf("expected intersecting lines at distance 0, got %v", d)
	}
}

func TestCalcEpiEdgesSymmetricTranspose(t *testing.T) {
	def := skel.GetDef(skel.Shelf15)
	cams := []cam.Camera{identityCamAt(cam.Vec3{-1, 0, 0}), identityCamAt(cam.Vec3{1, 0, 0})}

	frames := []detect.Frame{emptyFrame(def), emptyFrame(def)}
	target := cam.Vec3{0, 0, 5}
	for view := range frames {
		abc := cams[view].Project(target)
		frames[view].Joints[0] = detect.JointCandidates{
			U:    []float64{abc[0] / abc[2]},
			V:    []float64{abc[1] / abc[2]},
			Conf: []float64{1},
		}
	}

	rays := CalcJointRays(cams, frames, skel.Shelf15)
	epi := CalcEpiEdges(cams, frames, rays, skel.Shelf15, 0.2, false)

	if epi[0][0][1] == nil || epi[0][1][0] == nil {
		t.Fatal("expected joint-0 epi matrices to be populated between the two views")
	}
	if epi[0][0][1].At(0, 0) < 0.9 {
		t.Fatalf("expected strong epipolar agreement for a true correspondence, got %v", epi[0][0][1].At(0, 0))
	}
	if math.Abs(epi[0][0][1].At(0, 0)-epi[0][1][0].At(0, 0)) > 1e-9 {
		t.Fatalf("expected transpose symmetry, got %v vs %v", epi[0][0][1].At(0, 0), epi[0][1][0].At(0, 0))
	}
}

func TestCalcTempEdgesMatchesPriorSkeleton(t *testing.T) {
	def := skel.GetDef(skel.Shelf15)
	cams := []cam.Camera{identityCamAt(cam.Vec3{0, 0, -3})}
	frames := []detect.Frame{emptyFrame(def)}

	target := cam.Vec3{0, 0, 5}
	abc := cams[0].Project(target)
	frames[0].Joints[0] = detect.JointCandidates{
		U:    []float64{abc[0] / abc[2]},
		V:    []float64{abc[1] / abc[2]},
		Conf: []float64{1},
	}

	prev := drive.FrameSkels{
		7: drive.Skeleton3D{Pos: make([]cam.Vec3, def.JointSize), Conf: make([]float64, def.JointSize)},
	}
	p := prev[7]
	p.Pos[0] = target
	p.Conf[0] = 1
	prev[7] = p

	rays := CalcJointRays(cams, frames, skel.Shelf15)
	temp := CalcTempEdges(cams, rays, prev, []int{7}, skel.Shelf15, 0.2, false)

	if temp[0][0] == nil {
		t.Fatal("expected joint-0 temporal matrix to be populated")
	}
	if temp[0][0].At(0, 0) < 0.9 {
		t.Fatalf("expected strong temporal agreement, got %v", temp[0][0].At(0, 0))
	}
}

func TestNormalizeRowsColsCapsAtOne(t *testing.T) {
	def := skel.GetDef(skel.Shelf15)
	frames := []detect.Frame{emptyFrame(def)}
	frames[0].Pafs[0] = detect.PafMatrix{Rows: 1, Cols: 2, Data: []float64{0.6, 0.6}}
	NormalizePafs(frames, skel.Shelf15, true)
	if frames[0].Pafs[0].Data[0] != 0.5 {
		t.Fatalf("expected row normalized to 0.5, got %v", frames[0].Pafs[0].Data[0])
	}
}

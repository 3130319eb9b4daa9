package fit

import (
	"math"
	"testing"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/skel"
)

// newTestParam builds a zeroed Param sized for a custom (non-registry)
// topology fixture; drive.NewParam can't be used here since it sizes from
// the real skel.GetDef(t) registry, not these tests' ad hoc Def values.
func newTestParam(jointSize, shapeSize int) drive.Param {
	return drive.Param{
		Type:  skel.Skel15,
		Pose:  make([]cam.Vec3, jointSize),
		Shape: make([]float64, shapeSize),
	}
}

func twoJointDef() Def {
	model := drive.Model{
		Type:       skel.Skel15,
		Joints:     []cam.Vec3{{0, 0, 0}, {1, 0, 0}},
		ShapeBlend: [][]float64{{0}, {0}, {0}, {0}, {0}, {0}},
	}
	d := drive.Def{
		Def:   skel.Def{JointSize: 2, ShapeSize: 1, Parent: []int{-1, 0}, HierarchyMap: []int{0, 0}},
		Model: model,
	}
	return NewDef(d)
}

func TestSolvePoseRotatesChildToTarget(t *testing.T) {
	d := twoJointDef()
	param := newTestParam(2, 1)

	term := Term{
		WJ3d:      1,
		J3dTarget: []cam.Vec3{{0, 0, 0}, {0, 1, 0}},
		J3dConf:   []float64{1, 1},
	}

	d.SolvePose(term, &param, 20, false, 1e-8)

	jFinal := d.CalcJFinalFromParam(param, 0)
	if math.Abs(jFinal[1][0]) > 1e-3 || math.Abs(jFinal[1][1]-1) > 1e-3 {
		t.Fatalf("expected child near (0,1,0), got %v", jFinal[1])
	}
}

func TestSolvePoseRespectsTranslationTarget(t *testing.T) {
	d := twoJointDef()
	param := newTestParam(2, 1)

	term := Term{
		WJ3d:      1,
		J3dTarget: []cam.Vec3{{3, 0, 0}, {4, 0, 0}},
		J3dConf:   []float64{1, 1},
	}

	d.SolvePose(term, &param, 20, false, 1e-8)

	jFinal := d.CalcJFinalFromParam(param, 0)
	if math.Abs(jFinal[0][0]-3) > 1e-3 {
		t.Fatalf("expected root near x=3, got %v", jFinal[0])
	}
	if math.Abs(jFinal[1][0]-4) > 1e-3 {
		t.Fatalf("expected child near x=4, got %v", jFinal[1])
	}
}

func TestSolveShapeFitsBoneLength(t *testing.T) {
	model := drive.Model{
		Type:       skel.Skel15,
		Joints:     []cam.Vec3{{0, 0, 0}, {1, 0, 0}},
		ShapeBlend: [][]float64{{0}, {0}, {0}, {1}, {0}, {0}},
	}
	base := drive.Def{
		Def:   skel.Def{JointSize: 2, ShapeSize: 1, Parent: []int{-1, 0}, HierarchyMap: []int{0, 0}},
		Model: model,
	}
	d := NewDef(base)
	param := newTestParam(2, 1)

	term := Term{
		WBone3d:  1,
		BoneLen:  []float64{2},
		BoneConf: []float64{1},
	}
	d.SolveShape(term, &param, 20, 1e-8)

	if math.Abs(param.Shape[0]-1) > 1e-3 {
		t.Fatalf("expected shape coefficient near 1 (bone length 1+1*1=2), got %v", param.Shape[0])
	}
}

func fourJointDef() Def {
	model := drive.Model{
		Type:       skel.Skel15,
		Joints:     []cam.Vec3{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {1, 1, 0}},
		ShapeBlend: [][]float64{{0}, {0}, {0}, {0}, {0}, {0}, {0}, {0}, {0}, {0}, {0}, {0}},
	}
	d := drive.Def{
		Def:   skel.Def{JointSize: 4, ShapeSize: 1, Parent: []int{-1, 0, 1, 1}, HierarchyMap: []int{0, 0, 1, 1}},
		Model: model,
	}
	return NewDef(d)
}

func TestAlignRTSetsRootTranslation(t *testing.T) {
	d := fourJointDef()
	param := newTestParam(4, 1)
	term := Term{
		J3dTarget: []cam.Vec3{{5, 0, 0}, {5, 1, 0}, {5, 1, 1}, {6, 1, 0}},
	}
	d.AlignRT(term, &param)
	if math.Abs(param.Trans[0]-5) > 1e-9 {
		t.Fatalf("expected trans.x=5, got %v", param.Trans)
	}
}

package drive

import (
	"bytes"
	"math"
	"testing"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/skel"
)

func twoJointModel() Model {
	// a 2-joint chain: root at origin, child 1 unit along +x, no shape blend.
	return Model{
		Type:       skel.Skel15, // any type whose Parent starts with -1,0,...
		Joints:     []cam.Vec3{{0, 0, 0}, {1, 0, 0}},
		ShapeBlend: [][]float64{{0}, {0}, {0}, {0}, {0}, {0}},
	}
}

func twoJointDef() Def {
	return Def{
		Def: skel.Def{JointSize: 2, Parent: []int{-1, 0}},
		Model: twoJointModel(),
	}
}

func TestCalcJFinalIdentityPoseMatchesRest(t *testing.T) {
	d := twoJointDef()
	p := NewParam(skel.Skel15)
	p.Pose = []cam.Vec3{{0, 0, 0}, {0, 0, 0}}
	p.Shape = []float64{0}
	jFinal := d.CalcJFinalFromParam(p, 0)
	if math.Abs(jFinal[0][0]) > 1e-12 {
		t.Fatalf("expected root at origin, got %v", jFinal[0])
	}
	if math.Abs(jFinal[1][0]-1) > 1e-12 {
		t.Fatalf("expected child at x=1, got %v", jFinal[1])
	}
}

func TestCalcJFinalRootTranslation(t *testing.T) {
	d := twoJointDef()
	p := NewParam(skel.Skel15)
	p.Shape = []float64{0}
	p.Pose = []cam.Vec3{{0, 0, 0}, {0, 0, 0}}
	p.Trans = cam.Vec3{5, 0, 0}
	jFinal := d.CalcJFinalFromParam(p, 0)
	if math.Abs(jFinal[0][0]-5) > 1e-12 || math.Abs(jFinal[1][0]-6) > 1e-12 {
		t.Fatalf("expected root/child shifted by 5, got %v %v", jFinal[0], jFinal[1])
	}
}

func TestCalcJFinalRootRotationCarriesChild(t *testing.T) {
	d := twoJointDef()
	p := NewParam(skel.Skel15)
	p.Shape = []float64{0}
	// rotate root by 90deg about +z: x axis maps to +y axis.
	p.Pose = []cam.Vec3{{0, 0, math.Pi / 2}, {0, 0, 0}}
	jFinal := d.CalcJFinalFromParam(p, 0)
	if math.Abs(jFinal[1][0]) > 1e-9 || math.Abs(jFinal[1][1]-1) > 1e-9 {
		t.Fatalf("expected child rotated to (0,1,0), got %v", jFinal[1])
	}
}

func TestSkelsRoundTrip(t *testing.T) {
	frames := []FrameSkels{
		{
			0: Skeleton3D{Pos: []cam.Vec3{{1, 2, 3}, {4, 5, 6}}, Conf: []float64{1, 0.5}},
			2: Skeleton3D{Pos: []cam.Vec3{{7, 8, 9}, {0, 0, 0}}, Conf: []float64{1, 0}},
		},
		{},
	}
	var buf bytes.Buffer
	if err := SerializeSkels(&buf, frames); err != nil {
		t.Fatal(err)
	}
	got, err := ParseSkels(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(got))
	}
	if len(got[0]) != 2 {
		t.Fatalf("expected 2 persons in frame 0, got %d", len(got[0]))
	}
	p0 := got[0][0]
	if p0.Pos[1][2] != 6 {
		t.Fatalf("expected joint1.z=6, got %v", p0.Pos[1][2])
	}
	if p0.Conf[1] != 0.5 {
		t.Fatalf("expected conf1=0.5, got %v", p0.Conf[1])
	}
}

package track

import (
	"testing"

	"github.com/cpmech/assoc4d/assoc"
	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/fit"
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

// skel15Joints returns a set of 15 distinct rest-pose positions laid out
// along the Skel15 registry's own parent tree (joints 1,2,3 are the three
// children of the root, so picking them as the standard basis keeps
// fit.AlignRT's axis construction well-conditioned).
func skel15Joints() []cam.Vec3 {
	return []cam.Vec3{
		{0, 0, 5}, {1, 0, 5}, {0, 1, 5}, {0, 0, 6},
		{1, 1, 5}, {1, -1, 5}, {1, 0, 6},
		{0, 2, 5}, {0, 0, 7},
		{1, -2, 5}, {1, 0, 7},
		{0, 3, 5}, {0, 0, 8},
		{1, -3, 5}, {1, 0, 8},
	}
}

func skel15Model() drive.Model {
	def := skel.GetDef(skel.Skel15)
	joints := skel15Joints()
	blend := make([][]float64, 3*def.JointSize)
	for i := range blend {
		blend[i] = make([]float64, def.ShapeSize)
	}
	return drive.Model{Type: skel.Skel15, Joints: joints, ShapeBlend: blend}
}

func threeViewObs(cams []cam.Camera, target []cam.Vec3) map[int][][]assoc.Obs2D {
	skel2d := make([][]assoc.Obs2D, len(cams))
	for view, c := range cams {
		row := make([]assoc.Obs2D, len(target))
		for j, p := range target {
			abc := c.Project(p)
			row[j] = assoc.Obs2D{U: abc[0] / abc[2], V: abc[1] / abc[2], Conf: 1}
		}
		skel2d[view] = row
	}
	return map[int][][]assoc.Obs2D{0: skel2d}
}

// threeCams places the cameras one unit behind the origin so that
// tri.Solve's starting point (the origin) lies in front of every camera.
func threeCams() []cam.Camera {
	return []cam.Camera{
		identityCamAt(cam.Vec3{-1, 0, -1}),
		identityCamAt(cam.Vec3{1, 0, -1}),
		identityCamAt(cam.Vec3{0, 1, -1}),
	}
}

func TestTriangulateUpdaterTracksPerson(t *testing.T) {
	cams := threeCams()
	target := skel15Joints()
	skels2d := threeViewObs(cams, target)

	u := NewTriangulateUpdater(skel.Skel15)
	u.MinTrackJCnt = 1
	u.Update(skels2d, cams)

	skels := u.Skels()
	if len(skels) != 1 {
		t.Fatalf("expected one tracked person, got %d", len(skels))
	}
	person := skels[0]
	if person.Pos[1].Sub(target[1]).Norm() > 1e-2 {
		t.Fatalf("expected joint 1 near %v, got %v", target[1], person.Pos[1])
	}
}

func TestFittingUpdaterLocksShapeAfterCapacity(t *testing.T) {
	model := skel15Model()
	driveDef := drive.NewDef(skel.Skel15, model)
	solver := fit.NewDef(driveDef)

	cams := threeCams()
	target := skel15Joints()
	skels2d := threeViewObs(cams, target)

	u := NewFittingUpdater(skel.Skel15, solver)
	u.MinTrackJCnt = 1
	u.MinTriangulateJCnt = 1
	u.BoneCapacity = 3

	for i := 0; i < u.BoneCapacity; i++ {
		u.Update(skels2d, cams)
	}

	if len(u.infos) != 1 {
		t.Fatalf("expected exactly one tracked identity, got %d", len(u.infos))
	}
	for _, info := range u.infos {
		if !info.ShapeFixed {
			t.Fatalf("expected shape to be fixed after %d frames of full evidence", u.BoneCapacity)
		}
	}
}

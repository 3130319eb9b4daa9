package tri

import (
	"math"
	"testing"

	"github.com/cpmech/assoc4d/cam"
)

func camAt(pos cam.Vec3, lookDir cam.Vec3) cam.Camera {
	var c cam.Camera
	k := cam.Mat3{{1000, 0, 500}, {0, 1000, 500}, {0, 0, 1}}
	// build a simple rotation whose 3rd row is the look direction (already
	// normalized by the caller) and whose remaining axes are orthonormal.
	z := lookDir
	up := cam.Vec3{0, 1, 0}
	x := up.Cross(z).Normalized()
	y := z.Cross(x).Normalized()
	r := cam.Mat3{
		{x[0], x[1], x[2]},
		{y[0], y[1], y[2]},
		{z[0], z[1], z[2]},
	}
	t := r.MulVec(pos).Scale(-1)
	c.SetExtrinsics(k, r, t)
	return c
}

func TestSolveRecoversKnownPoint(t *testing.T) {
	target := cam.Vec3{0.3, -0.2, 5}
	positions := []cam.Vec3{{-1, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	var obs []Observation
	for _, p := range positions {
		dir := target.Sub(p).Normalized()
		c := camAt(p, dir)
		uvw := c.Project(target)
		obs = append(obs, Observation{Cam: c, U: uvw[0] / uvw[2], V: uvw[1] / uvw[2], Conf: 1})
	}
	res := Solve(obs, DefaultMaxIter, DefaultTolerance, 1e-8)
	if !res.Convergent {
		t.Fatalf("expected convergence, loss=%v", res.Loss)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(res.Pos[i]-target[i]) > 1e-3 {
			t.Fatalf("component %d: expected %v, got %v", i, target[i], res.Pos[i])
		}
	}
}

func TestSolveSkipsWithFewerThanTwoViews(t *testing.T) {
	c := camAt(cam.Vec3{0, 0, 0}, cam.Vec3{0, 0, 1})
	res := Solve([]Observation{{Cam: c, U: 500, V: 500, Conf: 1}}, DefaultMaxIter, DefaultTolerance, DefaultRegularTerm)
	if res.Convergent {
		t.Fatalf("expected non-convergent result with a single observation")
	}
}

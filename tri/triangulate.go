// Package tri implements iteratively-reweighted 3D point triangulation
// from N weighted 2D observations (component C3).
package tri

import (
	"math"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/la"
)

// DefaultMaxIter, DefaultTolerance and DefaultRegularTerm mirror the
// original Triangulator::Solve defaults.
const (
	DefaultMaxIter      = 20
	DefaultTolerance    = 1e-4
	DefaultRegularTerm  = 1e-4
	minValidViews       = 2
	confidenceThreshold = 1e-12 // stands in for FLT_EPSILON at float64 precision
)

// Observation is one view's 2D detection of a joint candidate, with its
// detector confidence used as the least-squares weight.
type Observation struct {
	Cam        cam.Camera
	U, V, Conf float64
}

// Result is the outcome of one triangulation solve.
type Result struct {
	Pos        cam.Vec3
	Loss       float64
	Convergent bool
}

// Solve triangulates a single 3D point from weighted per-view observations
// via regularized Gauss-Newton, exactly mirroring Triangulator::Solve:
// skip outright when fewer than two views carry a confident observation,
// else iterate the reprojection normal equations until the update norm
// drops below tolerance or maxIter is exhausted.
func Solve(obs []Observation, maxIter int, tolerance, regularTerm float64) Result {
	res := Result{Convergent: false, Loss: math.MaxFloat64}

	validViews := 0
	for _, o := range obs {
		if o.Conf > confidenceThreshold {
			validViews++
		}
	}
	if validViews < minValidViews {
		return res
	}

	pos := cam.Vec3{0, 0, 0}
	prob := la.Problem{
		NumUnknowns: 3,
		Build: func() (*la.Matrix, la.Vector) {
			ata := la.MatAlloc(3, 3)
			ata.AddIdentity(regularTerm)
			atb := la.VecAlloc(3)
			for _, o := range obs {
				if o.Conf <= confidenceThreshold {
					continue
				}
				xyz := o.Cam.Project(pos)
				z := xyz[2]
				jacobi := reprojJacobi(xyz, o.Cam)
				w := o.Conf
				la.AccumulateAtA(ata, jacobi, w)
				residual := la.Vector{o.U - xyz[0]/z, o.V - xyz[1]/z}
				la.AccumulateAtb(atb, jacobi, residual, w)
			}
			return ata, atb
		},
		Apply: func(delta la.Vector) {
			pos[0] += delta[0]
			pos[1] += delta[1]
			pos[2] += delta[2]
		},
	}

	gn := la.GaussNewton(prob, maxIter, tolerance)
	res.Pos = pos
	res.Loss = gn.Loss
	res.Convergent = gn.Convergent
	return res
}

// reprojJacobi builds the 2x3 projection Jacobian d(u,v)/d(x,y,z) at the
// current estimate, composed with the camera's 3x3 projective block, as a
// la.Matrix so it composes with the shared AccumulateAtA/AccumulateAtb
// helpers.
func reprojJacobi(xyz cam.Vec3, c cam.Camera) *la.Matrix {
	z := xyz[2]
	// d(u,v)/d(xyz_homog) = [[1/z,0,-x/z^2],[0,1/z,-y/z^2]]
	duv := la.MatAlloc(2, 3)
	duv.Set(0, 0, 1/z)
	duv.Set(0, 2, -xyz[0]/(z*z))
	duv.Set(1, 1, 1/z)
	duv.Set(1, 2, -xyz[1]/(z*z))

	p3 := la.MatAlloc(3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p3.Set(i, j, c.Proj[i][j])
		}
	}
	return duv.MulMat(p3)
}

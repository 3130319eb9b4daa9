package la

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestSolveSymmetricIdentity(t *testing.T) {
	a := MatAlloc(3, 3)
	a.AddIdentity(1)
	b := Vector{1, 2, 3}
	x := SolveSymmetric(a, b)
	chk.Array(t, "x", 1e-12, x, []float64{1, 2, 3})
}

func TestSolveSymmetricDiagonal(t *testing.T) {
	a := MatAlloc(2, 2)
	a.Set(0, 0, 2)
	a.Set(1, 1, 4)
	b := Vector{4, 8}
	x := SolveSymmetric(a, b)
	chk.Array(t, "x", 1e-12, x, []float64{2, 2})
}

func TestSolveSymmetricGeneral(t *testing.T) {
	// [[4,1],[1,3]] x = [1,2] -> x = [1/11, 7/11]
	a := MatAlloc(2, 2)
	a.Set(0, 0, 4)
	a.Set(0, 1, 1)
	a.Set(1, 0, 1)
	a.Set(1, 1, 3)
	b := Vector{1, 2}
	x := SolveSymmetric(a, b)
	chk.Array(t, "x", 1e-10, x, []float64{1.0 / 11.0, 7.0 / 11.0})
}

func TestVecNorm(t *testing.T) {
	n := VecNorm(Vector{3, 4})
	if math.Abs(n-5) > 1e-12 {
		t.Fatalf("expected 5, got %v", n)
	}
}

func TestGaussNewtonConverges(t *testing.T) {
	// minimize (x-5)^2 via repeated linearization: trivially converges in one step.
	x := Vector{0}
	prob := Problem{
		NumUnknowns: 1,
		Build: func() (*Matrix, Vector) {
			ata := MatAlloc(1, 1)
			ata.Set(0, 0, 1)
			atb := Vector{5 - x[0]}
			return ata, atb
		},
		Apply: func(delta Vector) {
			x[0] += delta[0]
		},
	}
	res := GaussNewton(prob, 10, 1e-6)
	if !res.Convergent {
		t.Fatalf("expected convergence")
	}
	if math.Abs(x[0]-5) > 1e-6 {
		t.Fatalf("expected x=5, got %v", x[0])
	}
}

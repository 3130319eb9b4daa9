package la

import "github.com/cpmech/gosl/chk"

// tinyPivot guards against division by a vanishing diagonal pivot; normal
// equations here always carry a Tikhonov term so a genuinely singular
// pivot signals a caller bug rather than an expected numerical state.
const tinyPivot = 1e-300

// SolveSymmetric solves a*x = b for a symmetric matrix a using an
// unpivoted LDLt decomposition, the dense analogue of the ".ldlt().solve()"
// calls the original triangulation and skeleton-fitting loops make at every
// Gauss-Newton iteration. a is read-only; the decomposition is scratch.
func SolveSymmetric(a *Matrix, b Vector) Vector {
	n := a.Rows
	if a.Cols != n || len(b) != n {
		chk.Panic("la: SolveSymmetric requires a square matrix matching the vector length (got %dx%d, len=%d)", a.Rows, a.Cols, len(b))
	}

	l := MatAlloc(n, n)
	d := VecAlloc(n)
	for j := 0; j < n; j++ {
		sum := a.At(j, j)
		for k := 0; k < j; k++ {
			ljk := l.At(j, k)
			sum -= ljk * ljk * d[k]
		}
		d[j] = sum
		l.Set(j, j, 1)
		for i := j + 1; i < n; i++ {
			sum := a.At(i, j)
			for k := 0; k < j; k++ {
				sum -= l.At(i, k) * l.At(j, k) * d[k]
			}
			if abs(d[j]) < tinyPivot {
				l.Set(i, j, 0)
			} else {
				l.Set(i, j, sum/d[j])
			}
		}
	}

	// forward solve: L z = b
	z := VecAlloc(n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l.At(i, k) * z[k]
		}
		z[i] = sum
	}

	// diagonal solve: D y = z
	y := VecAlloc(n)
	for i := 0; i < n; i++ {
		if abs(d[i]) < tinyPivot {
			y[i] = 0
		} else {
			y[i] = z[i] / d[i]
		}
	}

	// backward solve: L^T x = y
	x := VecAlloc(n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l.At(k, i) * x[k]
		}
		x[i] = sum
	}
	return x
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

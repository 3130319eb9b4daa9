// Package la provides small dense linear-algebra helpers: a row-major
// dense matrix, a vector type, a symmetric LDLt solver, and a shared
// Gauss-Newton iterator used by triangulation and skeleton fitting.
package la

import "math"

// Vector is a dense column vector.
type Vector []float64

// VecAlloc returns a zeroed vector of length n.
func VecAlloc(n int) Vector {
	return make(Vector, n)
}

// VecCopy copies src into dst, which must already have the right length.
func VecCopy(dst, src Vector) {
	copy(dst, src)
}

// VecFill sets every entry of v to val.
func VecFill(v Vector, val float64) {
	for i := range v {
		v[i] = val
	}
}

// VecNorm returns the Euclidean norm of v.
func VecNorm(v Vector) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// VecAdd returns a + b, allocating a new vector.
func VecAdd(a, b Vector) Vector {
	out := VecAlloc(len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// VecSub returns a - b, allocating a new vector.
func VecSub(a, b Vector) Vector {
	out := VecAlloc(len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// VecScale returns s*v, allocating a new vector.
func VecScale(s float64, v Vector) Vector {
	out := VecAlloc(len(v))
	for i := range v {
		out[i] = s * v[i]
	}
	return out
}

// Dot returns the inner product of a and b.
func Dot(a, b Vector) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// Matrix is a dense, row-major matrix.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// MatAlloc returns a zeroed rows x cols matrix.
func MatAlloc(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// MatFill sets every entry of m to val.
func MatFill(m *Matrix, val float64) {
	for i := range m.Data {
		m.Data[i] = val
	}
}

// At returns m[i,j].
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Set assigns m[i,j] = v.
func (m *Matrix) Set(i, j int, v float64) {
	m.Data[i*m.Cols+j] = v
}

// Add accumulates m[i,j] += v.
func (m *Matrix) Add(i, j int, v float64) {
	m.Data[i*m.Cols+j] += v
}

// AddIdentity adds s to every diagonal entry (Tikhonov regularization).
func (m *Matrix) AddIdentity(s float64) {
	n := m.Rows
	if m.Cols < n {
		n = m.Cols
	}
	for i := 0; i < n; i++ {
		m.Add(i, i, s)
	}
}

// AddIdentityBlock adds the identity scaled by s into the square block
// starting at (row0, col0) with the given size.
func (m *Matrix) AddIdentityBlock(row0, col0, size int, s float64) {
	for i := 0; i < size; i++ {
		m.Add(row0+i, col0+i, s)
	}
}

// MulVec returns m*v.
func (m *Matrix) MulVec(v Vector) Vector {
	out := VecAlloc(m.Rows)
	for i := 0; i < m.Rows; i++ {
		var s float64
		for j := 0; j < m.Cols; j++ {
			s += m.At(i, j) * v[j]
		}
		out[i] = s
	}
	return out
}

// MulMat returns m*n.
func (m *Matrix) MulMat(n *Matrix) *Matrix {
	out := MatAlloc(m.Rows, n.Cols)
	for i := 0; i < m.Rows; i++ {
		for k := 0; k < m.Cols; k++ {
			mik := m.At(i, k)
			if mik == 0 {
				continue
			}
			for j := 0; j < n.Cols; j++ {
				out.Add(i, j, mik*n.At(k, j))
			}
		}
	}
	return out
}

// SubRows returns a view onto nrows rows of m starting at row0, sharing the
// same backing storage (row-major layout makes a row range contiguous).
func (m *Matrix) SubRows(row0, nrows int) *Matrix {
	return &Matrix{Rows: nrows, Cols: m.Cols, Data: m.Data[row0*m.Cols : (row0+nrows)*m.Cols]}
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	out := MatAlloc(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// AccumulateAtA adds w * jacobi^T * jacobi into ata (both square, sized
// jacobi.Cols). This is the inner loop shared by every normal-equations
// build in this module.
func AccumulateAtA(ata *Matrix, jacobi *Matrix, w float64) {
	for k := 0; k < jacobi.Rows; k++ {
		for i := 0; i < jacobi.Cols; i++ {
			ji := jacobi.At(k, i)
			if ji == 0 {
				continue
			}
			for j := 0; j < jacobi.Cols; j++ {
				ata.Add(i, j, w*ji*jacobi.At(k, j))
			}
		}
	}
}

// Welsch returns the Welsch robust weighting function 1-exp(-(x/c)^2/2),
// used to turn an unbounded count or distance into a smooth [0,1) score.
func Welsch(c, x float64) float64 {
	y := x / c
	return 1 - math.Exp(-y*y/2)
}

// AccumulateAtb adds w * jacobi^T * residual into atb.
func AccumulateAtb(atb Vector, jacobi *Matrix, residual Vector, w float64) {
	for i := 0; i < jacobi.Cols; i++ {
		var s float64
		for k := 0; k < jacobi.Rows; k++ {
			s += jacobi.At(k, i) * residual[k]
		}
		atb[i] += w * s
	}
}

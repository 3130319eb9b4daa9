package la

// Problem describes one Gauss-Newton normal-equations build. Build returns
// the accumulated ATA/ATb for the current state x (sized NumUnknowns x
// NumUnknowns and NumUnknowns respectively). Apply adds delta into the
// caller's state, which may be a sub-block of a larger parameter vector
// (skeleton pose solving only updates a hierarchy-cut prefix, for
// instance) so it is left to the caller rather than baked into x here.
//
// This follows gosl/num.NlSolver's shape (one reusable iterator,
// caller-supplied residual+Jacobian callback) used throughout the
// teacher's constitutive-model solvers, as a single GaussNewton call
// rather than NlSolver's Init/SetTols/Solve sequence, generalized to the
// three near-identical Newton loops this module needs (point
// triangulation, hierarchical pose solving, shape solving).
type Problem struct {
	NumUnknowns int
	Build       func() (ata *Matrix, atb Vector)
	Apply       func(delta Vector)
}

// Result reports how a GaussNewton run terminated.
type Result struct {
	Iterations int
	Loss       float64
	Convergent bool
}

// GaussNewton repeatedly builds and solves the normal equations, applying
// each update, until the update norm drops below tol or maxIter is
// exhausted.
func GaussNewton(prob Problem, maxIter int, tol float64) Result {
	res := Result{}
	for it := 0; it < maxIter; it++ {
		ata, atb := prob.Build()
		delta := SolveSymmetric(ata, atb)
		loss := VecNorm(delta)
		res.Iterations = it + 1
		res.Loss = loss
		if loss < tol {
			res.Convergent = true
			break
		}
		prob.Apply(delta)
	}
	return res
}

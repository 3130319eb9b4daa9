package drive

import (
	"math"

	"github.com/cpmech/assoc4d/cam"
)

// rodriguesJacobi returns the Jacobian of Rodrigues(v) with respect to each
// component of v, packed as a 3x9 matrix whose row k holds
// d(rotation)/d(v_k) as 9 column-major entries (entry (j,l) of the 3x3
// block at index 3*l+j), like the original's Eigen::Matrix<T,3,9>. This is
// the one piece of the kinematic
// chain with no simple geometric shortcut, so it is ported numerically
// identical to math_util.h's RodriguesJacobi.
// RodriguesJacobi exposes rodriguesJacobi to other packages (the pose
// solver needs it to build the kinematic-chain Jacobian).
func RodriguesJacobi(v cam.Vec3) [3][9]float64 {
	return rodriguesJacobi(v)
}

func rodriguesJacobi(v cam.Vec3) [3][9]float64 {
	theta := v.Norm()

	var dSkew [3][9]float64
	dSkew[0][5] = -1
	dSkew[1][6] = -1
	dSkew[2][1] = -1
	dSkew[0][7] = 1
	dSkew[1][2] = 1
	dSkew[2][3] = 1

	if math.Abs(theta) < 1e-5 {
		var out [3][9]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 9; j++ {
				out[i][j] = -dSkew[i][j]
			}
		}
		return out
	}

	c, s := math.Cos(theta), math.Sin(theta)
	c1 := 1 - c
	itheta := 1 / theta
	r := v.Scale(itheta)
	rrt := cam.Mat3{
		{r[0] * r[0], r[0] * r[1], r[0] * r[2]},
		{r[1] * r[0], r[1] * r[1], r[1] * r[2]},
		{r[2] * r[0], r[2] * r[1], r[2] * r[2]},
	}
	skew := cam.Skew(r)

	// drrt packs d(r r^T)/d(r_i) for i=0,1,2 as 3x3 blocks, row-major over k.
	var drrt [3][9]float64
	drrt[0] = [9]float64{r[0] + r[0], r[1], r[2], r[1], 0, 0, r[2], 0, 0}
	drrt[1] = [9]float64{0, r[0], 0, r[0], r[1] + r[1], r[2], 0, r[2], 0}
	drrt[2] = [9]float64{0, 0, r[0], 0, 0, r[1], r[0], r[1], r[2] + r[2]}

	var jac [3][9]float64
	for i := 0; i < 3; i++ {
		a0 := -s * r[i]
		a1 := (s - 2*c1*itheta) * r[i]
		a2 := c1 * itheta
		a3 := (c - s*itheta) * r[i]
		a4 := s * itheta
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				id := 0.0
				if j == k {
					id = 1
				}
				jac[i][k*3+j] = a0*id + a1*rrt[j][k] + a2*drrt[i][j*3+k] + a3*skew[j][k] + a4*dSkew[i][j*3+k]
			}
		}
	}
	return jac
}

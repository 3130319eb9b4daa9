// Package fit implements the hierarchical Gauss-Newton skeleton pose/shape
// solver (component C7): closed-form root alignment, a coarse-to-fine pose
// solve propagating the full kinematic-chain Jacobian, and a separate
// shape solve driven by bone-length and (optionally) joint-fit residuals.
package fit

import (
	"math"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
)

const epsilon = 1e-9

// View2D is one camera view's 2D joint targets for the reprojection term.
type View2D struct {
	Cam    cam.Camera
	Joints []Obs2D // len == jointSize
}

// Obs2D is a single 2D joint observation with its confidence weight.
type Obs2D struct {
	U, V, Conf float64
}

// Term bundles every residual this solver can be asked to fit, mirroring
// SkelSolver::Term field-for-field. A weight of zero (the default)
// disables that residual entirely.
type Term struct {
	WJ3d      float64
	J3dTarget []cam.Vec3 // len == jointSize
	J3dConf   []float64  // len == jointSize

	WBone3d  float64
	BoneLen  []float64 // len == jointSize-1, target length per bone
	BoneConf []float64 // len == jointSize-1, validity per bone

	WJ2d  float64
	Views []View2D

	WTemporalTrans float64
	WTemporalPose  float64
	WTemporalShape float64
	ParamPrev      drive.Param

	WRegularPose  float64
	WRegularShape float64
	WSquareShape  float64
}

// AlignRT performs the closed-form root translation+rotation alignment
// SkelSolver::AlignRT does before a from-scratch pose solve: translation
// from the root-joint offset, rotation from mapping the rest-frame's
// (1->2, 1->3) axis pair onto the corresponding target-frame axis pair.
func (d Def) AlignRT(term Term, param *drive.Param) {
	rest := d.Model.Joints
	param.Trans = term.J3dTarget[0].Sub(rest[0])

	calcAxes := func(x, y cam.Vec3) cam.Mat3 {
		xAxis := x.Normalized()
		zAxis := x.Cross(y).Normalized()
		yAxis := zAxis.Cross(xAxis).Normalized()
		return cam.Mat3{
			{xAxis[0], yAxis[0], zAxis[0]},
			{xAxis[1], yAxis[1], zAxis[1]},
			{xAxis[2], yAxis[2], zAxis[2]},
		}
	}

	targetAxes := calcAxes(term.J3dTarget[2].Sub(term.J3dTarget[1]), term.J3dTarget[3].Sub(term.J3dTarget[1]))
	restAxes := calcAxes(rest[2].Sub(rest[1]), rest[3].Sub(rest[1]))
	mat := targetAxes.Mul(invertOrtho(restAxes))
	param.Pose[0] = matToAxisAngle(mat)
}

// invertOrtho inverts a (near-)orthonormal rotation matrix via its
// transpose, which is what the original relies on for Eigen's .inverse()
// call on a rotation-built matrix.
func invertOrtho(m cam.Mat3) cam.Mat3 {
	return m.Transpose()
}

// matToAxisAngle converts a rotation matrix to its axis-angle vector
// (angle * axis), the Go equivalent of Eigen::AngleAxisf(mat).
func matToAxisAngle(m cam.Mat3) cam.Vec3 {
	trace := m[0][0] + m[1][1] + m[2][2]
	cosAngle := (trace - 1) / 2
	if cosAngle > 1 {
		cosAngle = 1
	}
	if cosAngle < -1 {
		cosAngle = -1
	}
	angle := math.Acos(cosAngle)
	if angle < 1e-7 {
		return cam.Vec3{0, 0, 0}
	}
	axis := cam.Vec3{m[2][1] - m[1][2], m[0][2] - m[2][0], m[1][0] - m[0][1]}
	s := 2 * math.Sin(angle)
	if math.Abs(s) < 1e-12 {
		return cam.Vec3{0, 0, 0}
	}
	axis = axis.Scale(1 / s)
	return axis.Scale(angle)
}

// Def pairs the topology+model (drive.Def) with the per-bone shape-blend
// derivative precomputed once per topology, mirroring SkelSolver's
// constructor (m_boneShapeBlend[j] = jShapeBlend[j] - jShapeBlend[parent]).
type Def struct {
	drive.Def
	boneShapeBlend [][]float64 // len == jointSize-1, each row len == shapeSize
}

// NewDef precomputes the bone shape-blend basis for d: for each bone
// (parent j, child j) it stores 3 rows (one per axis), each of length
// shapeSize, equal to the child's shape-blend row minus the parent's.
func NewDef(d drive.Def) Def {
	n := d.JointSize - 1
	full := make([][]float64, 3*n)
	for j := 1; j < d.JointSize; j++ {
		for axis := 0; axis < 3; axis++ {
			jRow := d.Model.ShapeBlend[3*j+axis]
			pRow := d.Model.ShapeBlend[3*d.Parent[j]+axis]
			row := make([]float64, d.ShapeSize)
			for k := range row {
				row[k] = jRow[k] - pRow[k]
			}
			full[3*(j-1)+axis] = row
		}
	}
	return Def{Def: d, boneShapeBlend: full}
}

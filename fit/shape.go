package fit

import (
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/la"
)

// SolveShape runs the (non-hierarchical) shape-coefficient Gauss-Newton
// solve, mirroring SkelSolver::SolveShape: bone-length residuals always use
// the precomputed per-bone shape-blend basis, while the optional 3D/2D
// joint residuals additionally need a full joint Jacobian accumulated down
// the kinematic chain (the shape-blend analogue of buildPoseJacobi).
func (d Def) SolveShape(term Term, param *drive.Param, maxIterTime int, updateThresh float64) {
	prob := la.Problem{
		NumUnknowns: d.ShapeSize,
		Build: func() (*la.Matrix, la.Vector) {
			jBlend := d.Model.CalcJBlend(param.Shape)
			ata := la.MatAlloc(d.ShapeSize, d.ShapeSize)
			atb := la.VecAlloc(d.ShapeSize)

			if term.WBone3d > epsilon {
				for j := 1; j < d.JointSize; j++ {
					if term.BoneConf[j-1] > epsilon {
						w := term.WBone3d * term.BoneConf[j-1]
						prtIdx := d.Parent[j]
						dir := jBlend[j].Sub(jBlend[prtIdx])
						jacobi := d.boneShapeBlendMatrix(j - 1)
						la.AccumulateAtA(ata, jacobi, w)
						target := dir.Normalized().Scale(term.BoneLen[j-1]).Sub(dir)
						residual := la.Vector{target[0], target[1], target[2]}
						la.AccumulateAtb(atb, jacobi, residual, w)
					}
				}
			}

			if term.WJ3d > epsilon || term.WJ2d > epsilon {
				nodeWarps := d.CalcNodeWarps(*param, jBlend)
				chainWarps := d.CalcChainWarps(nodeWarps)
				jFinal := drive.CalcJFinal(chainWarps)
				jointJacobi := d.buildShapeJacobi(chainWarps)

				if term.WJ3d > epsilon {
					for j := 0; j < d.JointSize; j++ {
						if term.J3dConf[j] > epsilon {
							w := term.WJ3d * term.J3dConf[j]
							jacobi := jointJacobi.SubRows(3*j, 3)
							la.AccumulateAtA(ata, jacobi, w)
							residual := la.Vector{
								term.J3dTarget[j][0] - jFinal[j][0],
								term.J3dTarget[j][1] - jFinal[j][1],
								term.J3dTarget[j][2] - jFinal[j][2],
							}
							la.AccumulateAtb(atb, jacobi, residual, w)
						}
					}
				}

				if term.WJ2d > epsilon {
					for _, view := range term.Views {
						for j := 0; j < d.JointSize; j++ {
							if j >= len(view.Joints) || view.Joints[j].Conf <= epsilon {
								continue
							}
							obs := view.Joints[j]
							proj := view.Cam.ReprojJacobi(jFinal[j])
							projJacobi := la.MatAlloc(2, 3)
							for r := 0; r < 2; r++ {
								for c := 0; c < 3; c++ {
									projJacobi.Set(r, c, proj[r][c])
								}
							}
							jacobi := projJacobi.MulMat(jointJacobi.SubRows(3*j, 3))
							w := term.WJ2d * obs.Conf
							la.AccumulateAtA(ata, jacobi, w)
							abc := view.Cam.Project(jFinal[j])
							residual := la.Vector{obs.U - abc[0]/abc[2], obs.V - abc[1]/abc[2]}
							la.AccumulateAtb(atb, jacobi, residual, w)
						}
					}
				}
			}

			if term.WTemporalShape > epsilon {
				ata.AddIdentity(term.WTemporalShape)
				for k := 0; k < d.ShapeSize; k++ {
					atb[k] += term.WTemporalShape * (term.ParamPrev.Shape[k] - param.Shape[k])
				}
			}

			if term.WSquareShape > epsilon {
				ata.AddIdentity(term.WSquareShape)
				for k := 0; k < d.ShapeSize; k++ {
					atb[k] -= term.WSquareShape * param.Shape[k]
				}
			}

			if term.WRegularShape > epsilon {
				ata.AddIdentity(term.WRegularShape)
			}

			return ata, atb
		},
		Apply: func(delta la.Vector) {
			param.ApplyShapeDelta(delta)
		},
	}

	la.GaussNewton(prob, maxIterTime, updateThresh)
}

// boneShapeBlendMatrix returns bone j's 3xshapeSize derivative basis as a
// la.Matrix, built from the rows NewDef precomputed.
func (d Def) boneShapeBlendMatrix(boneIdx int) *la.Matrix {
	m := la.MatAlloc(3, d.ShapeSize)
	for axis := 0; axis < 3; axis++ {
		row := d.boneShapeBlend[3*boneIdx+axis]
		for k, v := range row {
			m.Set(axis, k, v)
		}
	}
	return m
}

// buildShapeJacobi builds d(jFinal)/d(shape) for every joint, mirroring
// SkelSolver::SolveShape's jointJacobi accumulation: the root's block is
// its own shape-blend row, each descendant adds its parent's block plus the
// parent's accumulated rotation applied to the bone's own shape-blend
// delta.
func (d Def) buildShapeJacobi(chainWarps []drive.NodeWarp) *la.Matrix {
	jointJacobi := la.MatAlloc(3*d.JointSize, d.ShapeSize)
	for j := 0; j < d.JointSize; j++ {
		if j == 0 {
			for axis := 0; axis < 3; axis++ {
				row := d.Model.ShapeBlend[3*j+axis]
				for k, v := range row {
					jointJacobi.Set(3*j+axis, k, v)
				}
			}
			continue
		}
		prtIdx := d.Parent[j]
		deltaRow := make([][]float64, 3)
		for axis := 0; axis < 3; axis++ {
			jRow := d.Model.ShapeBlend[3*j+axis]
			pRow := d.Model.ShapeBlend[3*prtIdx+axis]
			row := make([]float64, d.ShapeSize)
			for k := range row {
				row[k] = jRow[k] - pRow[k]
			}
			deltaRow[axis] = row
		}
		prtR := chainWarps[prtIdx].R
		for axis := 0; axis < 3; axis++ {
			for k := 0; k < d.ShapeSize; k++ {
				var s float64
				for m := 0; m < 3; m++ {
					s += prtR[axis][m] * deltaRow[m][k]
				}
				jointJacobi.Set(3*j+axis, k, jointJacobi.At(3*prtIdx+axis, k)+s)
			}
		}
	}
	return jointJacobi
}

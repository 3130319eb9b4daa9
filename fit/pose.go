package fit

import (
	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/la"
)

// SolvePose runs the hierarchical pose (translation + per-joint axis-angle)
// Gauss-Newton solve, mirroring SkelSolver::SolvePose: when hierarchy is
// true, the unknown prefix jCut grows level-by-level through the topology's
// HierarchyMap, re-converging at each level before admitting the next tier
// of joints; when false, every joint is solved from the first iteration.
func (d Def) SolvePose(term Term, param *drive.Param, maxIterTime int, hierarchy bool, updateThresh float64) {
	jBlendFull := d.Model.CalcJBlend(param.Shape)

	hierSize := 0
	for _, h := range d.HierarchyMap {
		if h > hierSize {
			hierSize = h
		}
	}
	hier := hierSize
	if hierarchy {
		hier = 0
	}

	jCut := 0
	for ; hier <= hierSize; hier++ {
		for jCut < d.JointSize && d.HierarchyMap[jCut] <= hier {
			jCut++
		}
		d.solvePoseLevel(term, param, jBlendFull[:jCut], jCut, maxIterTime, updateThresh)
	}
}

func (d Def) solvePoseLevel(term Term, param *drive.Param, jBlend []cam.Vec3, jCut, maxIterTime int, updateThresh float64) {
	prob := la.Problem{
		NumUnknowns: 3 + 3*jCut,
		Build: func() (*la.Matrix, la.Vector) {
			nodeWarps := d.CalcNodeWarps(*param, jBlend)
			chainWarps := d.CalcChainWarps(nodeWarps)
			jFinal := drive.CalcJFinal(chainWarps)
			jointJacobi := d.buildPoseJacobi(param.Pose, nodeWarps, chainWarps, jCut)

			ata := la.MatAlloc(3+3*jCut, 3+3*jCut)
			atb := la.VecAlloc(3 + 3*jCut)

			if term.WJ3d > epsilon {
				for j := 0; j < jCut; j++ {
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
					for j := 0; j < jCut; j++ {
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

			if term.WTemporalTrans > epsilon {
				ata.AddIdentityBlock(0, 0, 3, term.WTemporalTrans)
				for k := 0; k < 3; k++ {
					atb[k] += term.WTemporalTrans * (term.ParamPrev.Trans[k] - param.Trans[k])
				}
			}

			if term.WTemporalPose > epsilon {
				ata.AddIdentityBlock(3, 3, 3*jCut, term.WTemporalPose)
				for j := 0; j < jCut; j++ {
					for axis := 0; axis < 3; axis++ {
						atb[3+3*j+axis] += term.WTemporalPose * (term.ParamPrev.Pose[j][axis] - param.Pose[j][axis])
					}
				}
			}

			if term.WRegularPose > epsilon {
				ata.AddIdentity(term.WRegularPose)
			}

			return ata, atb
		},
		Apply: func(delta la.Vector) {
			param.ApplyTransPoseDelta(delta, jCut)
		},
	}

	la.GaussNewton(prob, maxIterTime, updateThresh)
}

// buildPoseJacobi builds d(jFinal)/d(trans,pose) for the first jCut joints,
// mirroring the nested djIdx/dAxis/jIdx loop in SkelSolver::SolvePose: the
// translation-derivative block is the identity for every joint, and each
// pose-derivative block is propagated down the kinematic chain starting
// from the axis-angle Jacobian at the joint owning that unknown.
func (d Def) buildPoseJacobi(pose []cam.Vec3, nodeWarps, chainWarps []drive.NodeWarp, jCut int) *la.Matrix {
	jointJacobi := la.MatAlloc(3*jCut, 3+3*jCut)

	for j := 0; j < jCut; j++ {
		jointJacobi.Set(3*j+0, 0, 1)
		jointJacobi.Set(3*j+1, 1, 1)
		jointJacobi.Set(3*j+2, 2, 1)
	}

	for djIdx := 0; djIdx < jCut; djIdx++ {
		rodJacobi := drive.RodriguesJacobi(pose[djIdx])
		for axis := 0; axis < 3; axis++ {
			dNode := drive.NodeWarp{R: columnToMat3(rodJacobi, axis)}

			dChain := make([]drive.NodeWarp, jCut)
			valid := make([]bool, jCut)

			if djIdx == 0 {
				dChain[djIdx] = dNode
			} else {
				dChain[djIdx] = drive.NodeWarp{R: chainWarps[d.Parent[djIdx]].R.Mul(dNode.R)}
			}
			valid[djIdx] = true

			for jIdx := djIdx + 1; jIdx < jCut; jIdx++ {
				prtIdx := d.Parent[jIdx]
				valid[jIdx] = valid[prtIdx]
				if valid[jIdx] {
					dChain[jIdx] = dChain[prtIdx].Compose(nodeWarps[jIdx])
					jointJacobi.Set(3*jIdx+0, 3+3*djIdx+axis, dChain[jIdx].T[0])
					jointJacobi.Set(3*jIdx+1, 3+3*djIdx+axis, dChain[jIdx].T[1])
					jointJacobi.Set(3*jIdx+2, 3+3*djIdx+axis, dChain[jIdx].T[2])
				}
			}
		}
	}
	return jointJacobi
}

// columnToMat3 reshapes rodriguesJacobi's 3x9 layout (one row per
// axis-angle component, 9 column-major 3x3-matrix entries per row) back
// into the 3x3 derivative-of-rotation matrix for the requested axis.
func columnToMat3(j [3][9]float64, axis int) cam.Mat3 {
	var m cam.Mat3
	for i := 0; i < 9; i++ {
		m[i%3][i/3] = j[axis][i]
	}
	return m
}

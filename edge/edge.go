// Package edge builds the per-frame joint-level edge matrices the
// associater scores cliques against (component C4): camera rays through
// each 2D joint candidate, row/column-normalized PAF affinities, epipolar
// agreement between view pairs, and temporal agreement against the prior
// frame's tracked 3D skeletons.
package edge

import (
	"math"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/detect"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/la"
	"github.com/cpmech/assoc4d/skel"
)

const epsilon = 1e-5

// Point2LineDist returns the distance from point pA to the line through pB
// with direction ray (ray need not be unit length).
func Point2LineDist(pA, pB, ray cam.Vec3) float64 {
	return pA.Sub(pB).Cross(ray).Norm()
}

// Line2LineDist returns the distance between the line through pA with
// direction rayA and the line through pB with direction rayB, falling back
// to Point2LineDist when the two rays are (near) parallel, matching
// Associater::Line2LineDist exactly (including its own approximation of
// treating near-parallel rays as measuring the point-to-line case).
func Line2LineDist(pA, rayA, pB, rayB cam.Vec3) float64 {
	if rayA.Cross(rayB).Norm() < epsilon {
		return Point2LineDist(pA, pB, rayA)
	}
	n := rayA.Cross(rayB).Normalized()
	return math.Abs(pA.Sub(pB).Dot(n))
}

// CalcJointRays casts one world-space ray per 2D joint candidate, per view,
// per joint index: rays[view][jIdx][candidate].
func CalcJointRays(cams []cam.Camera, frames []detect.Frame, t skel.Type) [][][]cam.Vec3 {
	def := skel.GetDef(t)
	rays := make([][][]cam.Vec3, len(cams))
	for view := range cams {
		rays[view] = make([][]cam.Vec3, def.JointSize)
		for j := 0; j < def.JointSize; j++ {
			cands := frames[view].Joints[j]
			row := make([]cam.Vec3, cands.Len())
			for c := 0; c < cands.Len(); c++ {
				row[c] = cams[view].Ray(cands.U[c], cands.V[c])
			}
			rays[view][j] = row
		}
	}
	return rays
}

// normalizeRowsCols divides every row by max(1, rowSum) and every column by
// max(1, colSum), mirroring the original's cwiseMax(1.f) normalization
// (affinities already in [0,1] are left alone; only rows/columns that sum
// above 1 are scaled down, so a candidate can't be "double-counted" across
// many weak edges).
func normalizeRowsCols(m *la.Matrix) {
	if m == nil || m.Rows == 0 || m.Cols == 0 {
		return
	}
	rowSum := make([]float64, m.Rows)
	colSum := make([]float64, m.Cols)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			v := m.At(i, j)
			rowSum[i] += v
			colSum[j] += v
		}
	}
	for i := 0; i < m.Rows; i++ {
		f := math.Max(rowSum[i], 1)
		for j := 0; j < m.Cols; j++ {
			m.Set(i, j, m.At(i, j)/f)
		}
	}
	for j := 0; j < m.Cols; j++ {
		f := math.Max(colSum[j], 1)
		for i := 0; i < m.Rows; i++ {
			m.Set(i, j, m.At(i, j)/f)
		}
	}
}

// NormalizePafs row/column-normalizes every view's PAF matrices in place,
// mirroring Associater::CalcPafEdges under m_normalizeEdges.
func NormalizePafs(frames []detect.Frame, t skel.Type, normalize bool) {
	if !normalize {
		return
	}
	def := skel.GetDef(t)
	for view := range frames {
		for pafIdx := 0; pafIdx < def.PafSize; pafIdx++ {
			m := &la.Matrix{Rows: frames[view].Pafs[pafIdx].Rows, Cols: frames[view].Pafs[pafIdx].Cols, Data: frames[view].Pafs[pafIdx].Data}
			normalizeRowsCols(m)
		}
	}
}

// CalcEpiEdges scores every joint candidate pair across every view pair by
// ray-ray distance, zero-initialized to -1 (meaning "incompatible") and set
// to 1-dist/maxEpiDist when the pair's rays pass within maxEpiDist of each
// other. epi[jIdx][viewA][viewB] and its transpose epi[jIdx][viewB][viewA]
// are both filled, mirroring the original's symmetric storage.
func CalcEpiEdges(cams []cam.Camera, frames []detect.Frame, rays [][][]cam.Vec3, t skel.Type, maxEpiDist float64, normalize bool) [][][]*la.Matrix {
	def := skel.GetDef(t)
	n := len(cams)
	epi := make([][][]*la.Matrix, def.JointSize)
	for j := 0; j < def.JointSize; j++ {
		epi[j] = make([][]*la.Matrix, n)
		for v := 0; v < n; v++ {
			epi[j][v] = make([]*la.Matrix, n)
		}
		for viewA := 0; viewA < n-1; viewA++ {
			for viewB := viewA + 1; viewB < n; viewB++ {
				jointsA := frames[viewA].Joints[j]
				jointsB := frames[viewB].Joints[j]
				if jointsA.Len() == 0 || jointsB.Len() == 0 {
					continue
				}
				m := la.MatAlloc(jointsA.Len(), jointsB.Len())
				la.MatFill(m, -1)
				for ia := 0; ia < jointsA.Len(); ia++ {
					for ib := 0; ib < jointsB.Len(); ib++ {
						dist := Line2LineDist(cams[viewA].Pos, rays[viewA][j][ia], cams[viewB].Pos, rays[viewB][j][ib])
						if dist < maxEpiDist {
							m.Set(ia, ib, 1-dist/maxEpiDist)
						}
					}
				}
				if normalize {
					normalizeRowsCols(m)
				}
				epi[j][viewA][viewB] = m
				epi[j][viewB][viewA] = m.Transpose()
			}
		}
	}
	return epi
}

// CalcTempEdges scores every joint candidate against every previously
// tracked person's 3D joint by point-ray distance, following the same
// -1/1-dist/maxTempDist convention as CalcEpiEdges. prevSkels is keyed by
// tracked identity but indexed here by row position, matching the
// original's map-iteration-order row assignment.
func CalcTempEdges(cams []cam.Camera, rays [][][]cam.Vec3, prevSkels drive.FrameSkels, prevOrder []int, t skel.Type, maxTempDist float64, normalize bool) [][]*la.Matrix {
	def := skel.GetDef(t)
	n := len(cams)
	temp := make([][]*la.Matrix, def.JointSize)
	for j := 0; j < def.JointSize; j++ {
		temp[j] = make([]*la.Matrix, n)
		if len(prevOrder) == 0 {
			continue
		}
		for view := 0; view < n; view++ {
			cands := rays[view][j]
			if len(cands) == 0 {
				continue
			}
			m := la.MatAlloc(len(prevOrder), len(cands))
			la.MatFill(m, -1)
			for pIdx, identity := range prevOrder {
				prev := prevSkels[identity]
				if prev.Conf[j] <= epsilon {
					continue
				}
				for c, ray := range cands {
					dist := Point2LineDist(prev.Pos[j], cams[view].Pos, ray)
					if dist < maxTempDist {
						m.Set(pIdx, c, 1-dist/maxTempDist)
					}
				}
			}
			if normalize {
				normalizeRowsCols(m)
			}
			temp[j][view] = m
		}
	}
	return temp
}

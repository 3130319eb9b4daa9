package assoc

import "github.com/cpmech/assoc4d/la"

// CalcBoneNodes builds, per PAF per view, the list of candidate endpoint
// pairs whose affinity is non-zero: the bone-level analogue of a joint's
// candidate list.
func (a *Associater) CalcBoneNodes() {
	a.BoneNodes = make([][][]BoneNode, a.Def.PafSize)
	for pafIdx := 0; pafIdx < a.Def.PafSize; pafIdx++ {
		pair := a.Def.PafDict[pafIdx]
		a.BoneNodes[pafIdx] = make([][]BoneNode, a.NumViews)
		for view := 0; view < a.NumViews; view++ {
			paf := a.Frames[view].Pafs[pafIdx]
			jointsA := a.Frames[view].Joints[pair[0]]
			jointsB := a.Frames[view].Joints[pair[1]]
			var nodes []BoneNode
			for ia := 0; ia < jointsA.Len(); ia++ {
				for ib := 0; ib < jointsB.Len(); ib++ {
					if paf.At(ia, ib) > epsilonBone {
						nodes = append(nodes, BoneNode{A: ia, B: ib})
					}
				}
			}
			a.BoneNodes[pafIdx][view] = nodes
		}
	}
}

const epsilonBone = 1e-9

// CalcBoneEpiEdges scores every bone-candidate pair across every view pair
// by averaging the two endpoints' joint-level epipolar scores (skipping
// the pair entirely, leaving it at -1, if either endpoint's joint-level
// score is itself incompatible).
func (a *Associater) CalcBoneEpiEdges() {
	n := a.NumViews
	a.BoneEpiEdges = make([][][]*la.Matrix, a.Def.PafSize)
	for pafIdx := 0; pafIdx < a.Def.PafSize; pafIdx++ {
		pair := a.Def.PafDict[pafIdx]
		a.BoneEpiEdges[pafIdx] = make([][]*la.Matrix, n)
		for v := 0; v < n; v++ {
			a.BoneEpiEdges[pafIdx][v] = make([]*la.Matrix, n)
		}
		nodes := a.BoneNodes[pafIdx]
		for viewA := 0; viewA < n-1; viewA++ {
			for viewB := viewA + 1; viewB < n; viewB++ {
				nodesA := nodes[viewA]
				nodesB := nodes[viewB]
				m := la.MatAlloc(len(nodesA), len(nodesB))
				la.MatFill(m, -1)
				for ai, na := range nodesA {
					for bi, nb := range nodesB {
						epiA := a.EpiEdges[pair[0]][viewA][viewB]
						epiB := a.EpiEdges[pair[1]][viewA][viewB]
						if epiA == nil || epiB == nil {
							continue
						}
						da := epiA.At(na.A, nb.A)
						db := epiB.At(na.B, nb.B)
						if da < 0 || db < 0 {
							continue
						}
						m.Set(ai, bi, (da+db)/2)
					}
				}
				a.BoneEpiEdges[pafIdx][viewA][viewB] = m
				a.BoneEpiEdges[pafIdx][viewB][viewA] = m.Transpose()
			}
		}
	}
}

// CalcBoneTempEdges scores every bone candidate against every previously
// tracked person by averaging the two endpoints' joint-level temporal
// scores, skipping candidates where either endpoint is incompatible.
func (a *Associater) CalcBoneTempEdges() {
	a.BoneTempEdges = make([][]*la.Matrix, a.Def.PafSize)
	for pafIdx := 0; pafIdx < a.Def.PafSize; pafIdx++ {
		pair := a.Def.PafDict[pafIdx]
		a.BoneTempEdges[pafIdx] = make([]*la.Matrix, a.NumViews)
		for view := 0; view < a.NumViews; view++ {
			nodes := a.BoneNodes[pafIdx][view]
			m := la.MatAlloc(len(a.PrevOrder), len(nodes))
			la.MatFill(m, -1)
			tempA := a.TempEdges[pair[0]][view]
			tempB := a.TempEdges[pair[1]][view]
			if tempA != nil && tempB != nil {
				for pIdx := range a.PrevOrder {
					for ci, node := range nodes {
						da := tempA.At(pIdx, node.A)
						db := tempB.At(pIdx, node.B)
						if da > 0 && db > 0 {
							m.Set(pIdx, ci, (da+db)/2)
						}
					}
				}
			}
			a.BoneTempEdges[pafIdx][view] = m
		}
	}
}

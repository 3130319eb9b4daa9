package assoc

import "container/heap"

// EnumCliques generates every candidate bone clique for the current
// frame: for each PAF, every combination of (skip or commit a candidate)
// across views, plus (skip or commit) a prior-frame person, pruned as it
// goes by epipolar compatibility between every pair of committed views
// and temporal compatibility between each committed view and the person
// candidates. This is a recursive re-expression of
// KruskalAssociater::EnumCliques's manual index/pick stack machine; the
// set of enumerated cliques is identical, only the traversal mechanism
// differs.
func (a *Associater) EnumCliques() *cliqueHeap {
	var all []*BoneClique
	for pafIdx := 0; pafIdx < a.Def.PafSize; pafIdx++ {
		all = append(all, a.enumCliquesForPaf(pafIdx)...)
	}
	h := cliqueHeap(all)
	heap.Init(&h)
	return &h
}

func (a *Associater) enumCliquesForPaf(pafIdx int) []*BoneClique {
	ncams := a.NumViews
	nodes := a.BoneNodes[pafIdx]
	var results []*BoneClique
	proposal := make([]int, ncams+1)
	for i := range proposal {
		proposal[i] = -1
	}

	tryPerson := func(pIdx int) {
		proposal[ncams] = pIdx
		hasView := false
		for v := 0; v < ncams; v++ {
			if proposal[v] != -1 {
				hasView = true
				break
			}
		}
		if hasView {
			clique := &BoneClique{PafIdx: pafIdx, Proposal: append([]int(nil), proposal...)}
			a.CalcCliqueScore(clique)
			results = append(results, clique)
		}
	}

	var recurse func(pos int, availViews [][]int, availPersons []int)
	recurse = func(pos int, availViews [][]int, availPersons []int) {
		if pos == ncams {
			tryPerson(-1)
			for _, p := range availPersons {
				tryPerson(p)
			}
			proposal[ncams] = -1
			return
		}

		proposal[pos] = -1
		nextViews := make([][]int, ncams)
		for v := pos + 1; v < ncams; v++ {
			nextViews[v] = availViews[v]
		}
		recurse(pos+1, nextViews, availPersons)

		for _, c := range availViews[pos] {
			proposal[pos] = c

			nextViews2 := make([][]int, ncams)
			for v := pos + 1; v < ncams; v++ {
				epi := a.BoneEpiEdges[pafIdx][pos][v]
				var filtered []int
				if epi != nil {
					for _, cb := range availViews[v] {
						if epi.At(c, cb) > epsilonBone {
							filtered = append(filtered, cb)
						}
					}
				}
				nextViews2[v] = filtered
			}

			temp := a.BoneTempEdges[pafIdx][pos]
			var nextPersons []int
			if temp != nil {
				for _, p := range availPersons {
					if temp.At(p, c) > epsilonBone {
						nextPersons = append(nextPersons, p)
					}
				}
			}

			recurse(pos+1, nextViews2, nextPersons)
		}
		proposal[pos] = -1
	}

	initViews := make([][]int, ncams)
	for v := 0; v < ncams; v++ {
		for i := range nodes[v] {
			initViews[v] = append(initViews[v], i)
		}
	}
	initPersons := make([]int, len(a.PrevOrder))
	for i := range initPersons {
		initPersons[i] = i
	}

	recurse(0, initViews, initPersons)
	return results
}

package assoc

import (
	"container/heap"
	"math"

	"github.com/cpmech/assoc4d/la"
)

// BoneClique is one candidate bone proposal spanning every view plus a
// trailing slot for the prior-frame person it might extend: Proposal has
// length NumViews+1, Proposal[view] is a BoneNodes[PafIdx][view] index (or
// -1), and Proposal[NumViews] is a PrevOrder row index (or -1).
type BoneClique struct {
	Score    float64
	PafIdx   int
	Proposal []int
}

// cliqueHeap is a max-heap on Score, mirroring std::make_heap's default
// (operator<) max-heap ordering over BoneClique.
type cliqueHeap []*BoneClique

func (h cliqueHeap) Len() int            { return len(h) }
func (h cliqueHeap) Less(i, j int) bool  { return h[i].Score > h[j].Score }
func (h cliqueHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cliqueHeap) Push(x interface{}) { *h = append(*h, x.(*BoneClique)) }
func (h *cliqueHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Voting tallies, for a candidate bone's two endpoints (index 0 = A, 1 =
// B), which already-tracked persons its candidates currently belong to
// across views, mirroring KruskalAssociater::Voting.
type Voting struct {
	Fst, Sec       [2]int
	FstCnt, SecCnt [2]int
	Vote           map[int][2]int
}

// Parse finds, for each endpoint, the person with the most votes (Fst)
// and the runner-up (Sec), consuming the winning counts out of a scratch
// copy so the two picks are distinct per endpoint whenever the runner-up
// has at least one vote; with no other voted person, Sec may repeat Fst
// with SecCnt 0.
func (v *Voting) Parse() {
	v.FstCnt = [2]int{0, 0}
	v.SecCnt = [2]int{0, 0}
	if len(v.Vote) == 0 {
		return
	}
	scratch := make(map[int][2]int, len(v.Vote))
	for k, val := range v.Vote {
		scratch[k] = val
	}
	for rank := 0; rank < 2; rank++ {
		for idx := 0; idx < 2; idx++ {
			bestKey, bestVal := -1, -1
			for k, val := range scratch {
				if val[idx] > bestVal {
					bestVal = val[idx]
					bestKey = k
				}
			}
			if rank == 0 {
				v.Fst[idx] = bestKey
				v.FstCnt[idx] = bestVal
			} else {
				v.Sec[idx] = bestKey
				v.SecCnt[idx] = bestVal
			}
			entry := scratch[bestKey]
			entry[idx] = 0
			scratch[bestKey] = entry
		}
	}
}

// Clique2Voting tallies which persons already own clique's candidates at
// each endpoint, across every view the clique proposes.
func (a *Associater) Clique2Voting(clique *BoneClique, voting *Voting) {
	voting.Vote = make(map[int][2]int)
	if len(a.PersonsMap) == 0 {
		return
	}
	pair := a.Def.PafDict[clique.PafIdx]
	for view := 0; view < a.NumViews; view++ {
		index := clique.Proposal[view]
		if index == -1 {
			continue
		}
		node := a.BoneNodes[clique.PafIdx][view][index]
		cand := [2]int{node.A, node.B}
		for i := 0; i < 2; i++ {
			assigned := a.AssignMap[view][pair[i]][cand[i]]
			if assigned != -1 {
				entry := voting.Vote[assigned]
				entry[i]++
				voting.Vote[assigned] = entry
			}
		}
	}
}

// CalcCliqueScore computes the 5-term weighted score (epipolar agreement,
// temporal agreement with a carried-over person, PAF affinity, a
// Welsch-robust view-count bonus and a hierarchy-depth decay favoring
// bones closer to the skeleton's root) and writes it into clique.Score.
func (a *Associater) CalcCliqueScore(clique *BoneClique) {
	var epiSum float64
	var epiCnt int
	for viewA := 0; viewA < a.NumViews-1; viewA++ {
		if clique.Proposal[viewA] == -1 {
			continue
		}
		for viewB := viewA + 1; viewB < a.NumViews; viewB++ {
			if clique.Proposal[viewB] == -1 {
				continue
			}
			epiSum += a.BoneEpiEdges[clique.PafIdx][viewA][viewB].At(clique.Proposal[viewA], clique.Proposal[viewB])
			epiCnt++
		}
	}
	epiScore := 1.0
	if epiCnt > 0 {
		epiScore = epiSum / float64(epiCnt)
	}

	personIdx := clique.Proposal[a.NumViews]
	var tempSum float64
	var tempCnt int
	if personIdx != -1 {
		for view := 0; view < a.NumViews; view++ {
			if clique.Proposal[view] == -1 {
				continue
			}
			tempSum += a.BoneTempEdges[clique.PafIdx][view].At(personIdx, clique.Proposal[view])
			tempCnt++
		}
	}
	tempScore := 0.0
	if tempCnt > 0 {
		tempScore = tempSum / float64(tempCnt)
	}

	var pafSum float64
	var pafCnt int
	for view := 0; view < a.NumViews; view++ {
		if clique.Proposal[view] == -1 {
			continue
		}
		node := a.BoneNodes[clique.PafIdx][view][clique.Proposal[view]]
		pafSum += a.Frames[view].Pafs[clique.PafIdx].At(node.A, node.B)
		pafCnt++
	}
	pafScore := 0.0
	if pafCnt > 0 {
		pafScore = pafSum / float64(pafCnt)
	}

	viewCnt := 0
	for view := 0; view < a.NumViews; view++ {
		if clique.Proposal[view] >= 0 {
			viewCnt++
		}
	}
	viewScore := la.Welsch(a.CViewCnt, float64(viewCnt))

	hierScore := 1 - math.Pow(float64(a.PafHier[clique.PafIdx])/float64(a.PafHierSize), 4)

	clique.Score = (a.WEpi*epiScore + a.WTemp*tempScore + a.WPaf*pafScore + a.WView*viewScore + a.WHier*hierScore) /
		(a.WEpi + a.WTemp + a.WPaf + a.WView + a.WHier)
}

// PushClique scores and pushes proposal as a new clique onto cliques,
// unless every view slot is unassigned (a degenerate, content-free
// proposal).
func (a *Associater) PushClique(pafIdx int, proposal []int, cliques *cliqueHeap) {
	maxView := -1
	for view := 0; view < a.NumViews; view++ {
		if proposal[view] > maxView {
			maxView = proposal[view]
		}
	}
	if maxView == -1 {
		return
	}
	clique := &BoneClique{PafIdx: pafIdx, Proposal: append([]int(nil), proposal...)}
	a.CalcCliqueScore(clique)
	heap.Push(cliques, clique)
}

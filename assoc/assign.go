package assoc

import "container/heap"

// CheckJointCompatibility reports how many corroborating PAF/epipolar
// edges support assigning (view, candiIdx) of joint jIdx to personIdx,
// or -1 if it would create a hard conflict (a joint clash, a broken PAF
// link to an already-assigned neighbor, or a broken epipolar link to the
// same joint already assigned in another view).
func (a *Associater) CheckJointCompatibility(view, jIdx, candiIdx, personIdx int) int {
	person := a.PersonsMap[personIdx]
	checkCnt := 0

	if person.Assign[jIdx][view] != -1 && person.Assign[jIdx][view] != candiIdx {
		return -1
	}

	for _, pafIdx := range a.Joint2Paf[jIdx] {
		pair := a.Def.PafDict[pafIdx]
		checkJIdx := pair[0] + pair[1] - jIdx
		if person.Assign[checkJIdx][view] == -1 {
			continue
		}
		jaCandi, jbCandi := candiIdx, person.Assign[checkJIdx][view]
		if jIdx == pair[1] {
			jaCandi, jbCandi = jbCandi, jaCandi
		}
		if a.Frames[view].Pafs[pafIdx].At(jaCandi, jbCandi) > 0 {
			checkCnt++
		} else {
			return -1
		}
	}

	for i := 0; i < a.NumViews; i++ {
		if i == view || person.Assign[jIdx][i] == -1 {
			continue
		}
		if a.EpiEdges[jIdx][view][i].At(candiIdx, person.Assign[jIdx][i]) > 0 {
			checkCnt++
		} else {
			return -1
		}
	}
	return checkCnt
}

// CheckPersonCompatibilityView is the single-view half of
// CheckPersonCompatibility: joint clashes and broken PAF/temporal links
// within view alone.
func (a *Associater) CheckPersonCompatibilityView(masterIdx, slaveIdx, view int) int {
	if slaveIdx < len(a.PrevOrder) {
		return -1
	}
	checkCnt := 0
	master := a.PersonsMap[masterIdx]
	slave := a.PersonsMap[slaveIdx]

	for jIdx := 0; jIdx < a.Def.JointSize; jIdx++ {
		if master.Assign[jIdx][view] != -1 && slave.Assign[jIdx][view] != -1 && master.Assign[jIdx][view] != slave.Assign[jIdx][view] {
			return -1
		}
	}

	if masterIdx < len(a.PrevOrder) {
		for jIdx := 0; jIdx < a.Def.JointSize; jIdx++ {
			if slave.Assign[jIdx][view] != -1 {
				if a.TempEdges[jIdx][view].At(masterIdx, slave.Assign[jIdx][view]) > 0 {
					checkCnt++
				} else {
					return -1
				}
			}
		}
	}

	for pafIdx := 0; pafIdx < a.Def.PafSize; pafIdx++ {
		paf := a.Frames[view].Pafs[pafIdx]
		pair := a.Def.PafDict[pafIdx]
		candidates := [2][2]int{
			{master.Assign[pair[0]][view], slave.Assign[pair[1]][view]},
			{slave.Assign[pair[0]][view], master.Assign[pair[1]][view]},
		}
		for _, cd := range candidates {
			if cd[0] >= 0 && cd[1] >= 0 {
				if paf.At(cd[0], cd[1]) > 0 {
					checkCnt++
				} else {
					return -1
				}
			}
		}
	}
	return checkCnt
}

// CheckPersonCompatibility is the full cross-view compatibility check used
// before merging two persons: every view's joint/PAF/temporal agreement
// plus every joint's epipolar agreement between the master's and slave's
// candidates across every view pair.
func (a *Associater) CheckPersonCompatibility(masterIdx, slaveIdx int) int {
	if slaveIdx < len(a.PrevOrder) {
		return -1
	}
	checkCnt := 0
	for view := 0; view < a.NumViews; view++ {
		c := a.CheckPersonCompatibilityView(masterIdx, slaveIdx, view)
		if c == -1 {
			return -1
		}
		checkCnt += c
	}

	master := a.PersonsMap[masterIdx]
	slave := a.PersonsMap[slaveIdx]
	for jIdx := 0; jIdx < a.Def.JointSize; jIdx++ {
		for viewA := 0; viewA < a.NumViews-1; viewA++ {
			candiA := master.Assign[jIdx][viewA]
			if candiA == -1 {
				continue
			}
			for viewB := viewA + 1; viewB < a.NumViews; viewB++ {
				candiB := slave.Assign[jIdx][viewB]
				if candiB == -1 {
					continue
				}
				if a.EpiEdges[jIdx][viewA][viewB].At(candiA, candiB) > 0 {
					checkCnt++
				} else {
					return -1
				}
			}
		}
	}
	return checkCnt
}

// MergePerson folds slaveIdx's assignments into masterIdx's and discards
// the slave identity.
func (a *Associater) MergePerson(masterIdx, slaveIdx int) {
	master := a.PersonsMap[masterIdx]
	slave := a.PersonsMap[slaveIdx]
	for view := 0; view < a.NumViews; view++ {
		for jIdx := 0; jIdx < a.Def.JointSize; jIdx++ {
			if slave.Assign[jIdx][view] != -1 {
				master.Assign[jIdx][view] = slave.Assign[jIdx][view]
				a.AssignMap[view][jIdx][slave.Assign[jIdx][view]] = masterIdx
			}
		}
	}
	delete(a.PersonsMap, slaveIdx)
}

func newProposal(n int) []int {
	p := make([]int, n+1)
	for i := range p {
		p[i] = -1
	}
	return p
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// AssignTopClique pops the best-scoring remaining clique and dispatches it
// into one of five cases, mirroring KruskalAssociater::AssignTopClique:
// extending a prior-frame person directly (clique.Proposal[NumViews] set),
// or (when that slot is empty) one of the four "fresh bone" cases decided
// by how many of its two endpoints are already claimed by tracked persons.
func (a *Associater) AssignTopClique(cliques *cliqueHeap) {
	clique := heap.Pop(cliques).(*BoneClique)
	pair := a.Def.PafDict[clique.PafIdx]
	nodes := a.BoneNodes[clique.PafIdx]

	if clique.Proposal[a.NumViews] != -1 {
		personIdx := clique.Proposal[a.NumViews]
		checkCnt := 0
		conflict := false
		for view := 0; view < a.NumViews && !conflict; view++ {
			index := clique.Proposal[view]
			if index == -1 {
				continue
			}
			node := nodes[view][index]
			nodeAB := [2]int{node.A, node.B}
			for i := 0; i < 2; i++ {
				c := a.CheckJointCompatibility(view, pair[i], nodeAB[i], personIdx)
				if c == -1 {
					conflict = true
					break
				}
				checkCnt += c
			}
		}

		if !conflict {
			person := a.PersonsMap[personIdx]
			proposal := newProposal(a.NumViews)
			for view := 0; view < a.NumViews; view++ {
				if clique.Proposal[view] == -1 {
					continue
				}
				node := nodes[view][clique.Proposal[view]]
				nodeAB := [2]int{node.A, node.B}
				assignA := a.AssignMap[view][pair[0]][nodeAB[0]]
				assignB := a.AssignMap[view][pair[1]][nodeAB[1]]
				if (assignA == -1 || assignA == personIdx) && (assignB == -1 || assignB == personIdx) {
					for i := 0; i < 2; i++ {
						person.Assign[pair[i]][view] = nodeAB[i]
						a.AssignMap[view][pair[i]][nodeAB[i]] = personIdx
					}
				} else {
					proposal[view] = clique.Proposal[view]
				}
			}
			a.PushClique(clique.PafIdx, proposal, cliques)
		} else {
			proposal := append([]int(nil), clique.Proposal...)
			proposal[a.NumViews] = -1
			a.PushClique(clique.PafIdx, proposal, cliques)
		}
		return
	}

	voting := &Voting{}
	a.Clique2Voting(clique, voting)
	voting.Parse()

	switch {
	case voting.FstCnt[0]+voting.FstCnt[1] == 0:
		a.assignCaseUnassigned(clique, pair, nodes, voting, cliques)
	case voting.FstCnt[0] == 0 || voting.FstCnt[1] == 0:
		a.assignCaseOneAssigned(clique, pair, nodes, voting, cliques)
	case voting.Fst[0] == voting.Fst[1]:
		a.assignCaseSamePerson(clique, pair, nodes, voting, cliques)
	default:
		a.assignCaseDifferentPersons(clique, pair, nodes, voting, cliques)
	}
}

func (a *Associater) assignCaseUnassigned(clique *BoneClique, pair [2]int, nodes [][]BoneNode, voting *Voting, cliques *cliqueHeap) {
	allocFlag := func() bool {
		view := -1
		maxVal := -1
		for v, val := range clique.Proposal {
			if val > maxVal {
				maxVal = val
				view = v
			}
		}
		if maxVal == -1 {
			return true
		}
		node := nodes[view][clique.Proposal[view]]
		nodeAB := [2]int{node.A, node.B}

		bestCnt, bestPerson := -1, -1
		for _, key := range a.sortedPersonKeys() {
			cnt := 0
			ok := true
			for i := 0; i < 2; i++ {
				c := a.CheckJointCompatibility(view, pair[i], nodeAB[i], key)
				if c == -1 {
					ok = false
					break
				}
				cnt += c
			}
			if ok && cnt >= a.MinCheckCnt {
				if cnt > bestCnt || (cnt == bestCnt && key > bestPerson) {
					bestCnt, bestPerson = cnt, key
				}
			}
		}
		if bestPerson == -1 {
			return true
		}
		person := a.PersonsMap[bestPerson]
		for i := 0; i < 2; i++ {
			person.Assign[pair[i]][view] = nodeAB[i]
			a.AssignMap[view][pair[i]][nodeAB[i]] = bestPerson
		}
		return false
	}()

	if allocFlag {
		person := newPerson(a.Def.JointSize, a.NumViews)
		personIdx := 0
		if keys := a.sortedPersonKeys(); len(keys) > 0 {
			personIdx = keys[len(keys)-1] + 1
		}
		for view := 0; view < a.NumViews; view++ {
			if clique.Proposal[view] >= 0 {
				node := nodes[view][clique.Proposal[view]]
				person.Assign[pair[0]][view] = node.A
				person.Assign[pair[1]][view] = node.B
				a.AssignMap[view][pair[0]][node.A] = personIdx
				a.AssignMap[view][pair[1]][node.B] = personIdx
			}
		}
		a.PersonsMap[personIdx] = person
	}
}

func (a *Associater) assignCaseOneAssigned(clique *BoneClique, pair [2]int, nodes [][]BoneNode, voting *Voting, cliques *cliqueHeap) {
	validIdx := 0
	if voting.FstCnt[0] == 0 {
		validIdx = 1
	}
	masterIdx := voting.Fst[validIdx]
	unasgnJIdx := pair[1-validIdx]
	person := a.PersonsMap[masterIdx]

	proposal := newProposal(a.NumViews)
	for view := 0; view < a.NumViews; view++ {
		if clique.Proposal[view] < 0 {
			continue
		}
		node := nodes[view][clique.Proposal[view]]
		nodeAB := [2]int{node.A, node.B}
		unasgnCandi := nodeAB[1-validIdx]
		assigned := a.AssignMap[view][pair[validIdx]][nodeAB[validIdx]]

		switch {
		case assigned == masterIdx:
			if person.Assign[unasgnJIdx][view] == -1 && a.CheckJointCompatibility(view, unasgnJIdx, unasgnCandi, masterIdx) >= 0 {
				person.Assign[unasgnJIdx][view] = unasgnCandi
				a.AssignMap[view][unasgnJIdx][unasgnCandi] = masterIdx
			}
		case assigned == -1 && voting.FstCnt[validIdx] >= 2 && voting.SecCnt[validIdx] == 0 &&
			(person.Assign[pair[0]][view] == -1 || person.Assign[pair[0]][view] == nodeAB[0]) &&
			(person.Assign[pair[1]][view] == -1 || person.Assign[pair[1]][view] == nodeAB[1]):
			if a.CheckJointCompatibility(view, pair[0], nodeAB[0], masterIdx) >= 0 && a.CheckJointCompatibility(view, pair[1], nodeAB[1], masterIdx) >= 0 {
				for i := 0; i < 2; i++ {
					person.Assign[pair[i]][view] = nodeAB[i]
					a.AssignMap[view][pair[i]][nodeAB[i]] = masterIdx
				}
			} else {
				proposal[view] = clique.Proposal[view]
			}
		default:
			proposal[view] = clique.Proposal[view]
		}
	}
	if !intSliceEqual(proposal, clique.Proposal) {
		a.PushClique(clique.PafIdx, proposal, cliques)
	}
}

func (a *Associater) assignCaseSamePerson(clique *BoneClique, pair [2]int, nodes [][]BoneNode, voting *Voting, cliques *cliqueHeap) {
	masterIdx := voting.Fst[0]
	person := a.PersonsMap[masterIdx]
	proposal := newProposal(a.NumViews)

	for view := 0; view < a.NumViews; view++ {
		doPushCheck := true
		if clique.Proposal[view] >= 0 {
			node := nodes[view][clique.Proposal[view]]
			nodeAB := [2]int{node.A, node.B}
			assignA := a.AssignMap[view][pair[0]][nodeAB[0]]
			assignB := a.AssignMap[view][pair[1]][nodeAB[1]]

			switch {
			case assignA == masterIdx && assignB == masterIdx:
				doPushCheck = false
			case a.CheckJointCompatibility(view, pair[0], nodeAB[0], masterIdx) == -1 || a.CheckJointCompatibility(view, pair[1], nodeAB[1], masterIdx) == -1:
				proposal[view] = clique.Proposal[view]
			case (assignA == masterIdx && assignB == -1) || (assignA == -1 && assignB == masterIdx):
				validIdx := 0
				if assignB == -1 {
					validIdx = 1
				}
				unasgnJIdx := pair[1-validIdx]
				unasgnCandi := nodeAB[1-validIdx]
				if person.Assign[unasgnJIdx][view] == -1 || person.Assign[unasgnJIdx][view] == unasgnCandi {
					person.Assign[unasgnJIdx][view] = unasgnCandi
					a.AssignMap[view][unasgnJIdx][unasgnCandi] = masterIdx
				} else {
					proposal[view] = clique.Proposal[view]
				}
			case assignA == -1 && assignB == -1 && voting.SecCnt[0]+voting.SecCnt[1] == 0 &&
				(person.Assign[pair[0]][view] == -1 || person.Assign[pair[0]][view] == nodeAB[0]) &&
				(person.Assign[pair[1]][view] == -1 || person.Assign[pair[1]][view] == nodeAB[1]):
				for i := 0; i < 2; i++ {
					person.Assign[pair[i]][view] = nodeAB[i]
					a.AssignMap[view][pair[i]][nodeAB[i]] = masterIdx
				}
			default:
				proposal[view] = clique.Proposal[view]
			}
		}
		if doPushCheck && !intSliceEqual(proposal, clique.Proposal) {
			a.PushClique(clique.PafIdx, proposal, cliques)
		}
	}
}

func (a *Associater) assignCaseDifferentPersons(clique *BoneClique, pair [2]int, nodes [][]BoneNode, voting *Voting, cliques *cliqueHeap) {
	for index := 0; index < 2; index++ {
		for voting.SecCnt[index] != 0 {
			masterIdx := minInt(voting.Fst[index], voting.Sec[index])
			slaveIdx := maxInt(voting.Fst[index], voting.Sec[index])
			if a.CheckPersonCompatibility(masterIdx, slaveIdx) >= 0 {
				a.MergePerson(masterIdx, slaveIdx)
				a.Clique2Voting(clique, voting)
				voting.Parse()
			} else {
				e1 := voting.Vote[voting.Fst[index]]
				e1[index] = 0
				voting.Vote[voting.Fst[index]] = e1
				e2 := voting.Vote[voting.Sec[index]]
				e2[index] = 0
				voting.Vote[voting.Sec[index]] = e2

				bestKey, bestVal := -1, -1
				for k, v := range voting.Vote {
					if v[index] > bestVal {
						bestVal = v[index]
						bestKey = k
					}
				}
				voting.Sec[index] = bestKey
				voting.SecCnt[index] = bestVal
			}
		}
	}

	if voting.Fst[0] == voting.Fst[1] {
		return
	}

	masterIdx := minInt(voting.Fst[0], voting.Fst[1])
	slaveIdx := maxInt(voting.Fst[0], voting.Fst[1])
	conflict := make([]bool, a.NumViews)
	conflictCnt := 0
	for view := 0; view < a.NumViews; view++ {
		if a.CheckPersonCompatibilityView(masterIdx, slaveIdx, view) == -1 {
			conflict[view] = true
			conflictCnt++
		}
	}

	if conflictCnt == 0 {
		a.MergePerson(masterIdx, slaveIdx)
		proposal := newProposal(a.NumViews)
		master := a.PersonsMap[masterIdx]
		for view := 0; view < a.NumViews; view++ {
			if clique.Proposal[view] >= 0 {
				node := nodes[view][clique.Proposal[view]]
				if master.Assign[pair[0]][view] != node.A || master.Assign[pair[1]][view] != node.B {
					proposal[view] = clique.Proposal[view]
				}
			}
		}
		a.PushClique(clique.PafIdx, proposal, cliques)
		return
	}

	// Merging is blocked by a view conflict. The matched-row/unmatched-row
	// split the original builds here is always empty on one side (the
	// trailing person-slot row never gets written), so its "both sides
	// non-empty" branch can never fire; the only live fallback is
	// re-proposing each proposed view's candidate alone for re-evaluation
	// (every proposed view, conflicting or not), which only helps when more
	// than one view was proposed in the first place.
	setViews := 0
	for _, v := range clique.Proposal {
		if v >= 0 {
			setViews++
		}
	}
	if setViews > 1 {
		for view := 0; view < a.NumViews; view++ {
			proposal := newProposal(a.NumViews)
			proposal[view] = clique.Proposal[view]
			a.PushClique(clique.PafIdx, proposal, cliques)
		}
	}
}

// DismemberPersons prunes every tracked person (other than ones carried
// over from the previous frame) that still has too little evidence after
// the greedy pass, re-proposing its salvageable bones as single-view
// cliques so they can be picked up by someone else.
func (a *Associater) DismemberPersons(cliques *cliqueHeap) {
	for _, key := range a.sortedPersonKeys() {
		if key < len(a.PrevOrder) {
			continue
		}
		person, ok := a.PersonsMap[key]
		if !ok {
			continue
		}
		if person.assignedCount() >= a.MinAsgnCnt {
			continue
		}

		for view := 0; view < a.NumViews; view++ {
			for pafIdx := 0; pafIdx < a.Def.PafSize; pafIdx++ {
				pair := a.Def.PafDict[pafIdx]
				jaCandi := person.Assign[pair[0]][view]
				jbCandi := person.Assign[pair[1]][view]
				if jaCandi == -1 || jbCandi == -1 {
					continue
				}
				nodes := a.BoneNodes[pafIdx][view]
				for bone, node := range nodes {
					if node.A == jaCandi && node.B == jbCandi {
						proposal := newProposal(a.NumViews)
						proposal[view] = bone
						a.PushClique(pafIdx, proposal, cliques)
						break
					}
				}
			}
		}

		for view := 0; view < a.NumViews; view++ {
			for jIdx := 0; jIdx < a.Def.JointSize; jIdx++ {
				if c := person.Assign[jIdx][view]; c != -1 {
					a.AssignMap[view][jIdx][c] = -1
				}
			}
		}
		delete(a.PersonsMap, key)
	}
}

// SpanTree runs the greedy Kruskal pass to completion: initialize,
// enumerate every candidate clique, then repeatedly assign the
// best-scoring remaining clique until none are left.
func (a *Associater) SpanTree() {
	a.Initialize()
	cliques := a.EnumCliques()
	for cliques.Len() > 0 {
		a.AssignTopClique(cliques)
	}
	a.DismemberPersons(cliques)
	for cliques.Len() > 0 {
		a.AssignTopClique(cliques)
	}
}

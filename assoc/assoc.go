// Package assoc implements the Kruskal greedy bone-clique associater
// (component C5): given one frame's per-view 2D joint detections and PAF
// affinities, it assigns every joint candidate in every view to a tracked
// person identity, reusing the prior frame's tracked 3D skeletons to keep
// identities stable across time.
package assoc

import (
	"sort"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/detect"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/edge"
	"github.com/cpmech/assoc4d/la"
	"github.com/cpmech/assoc4d/skel"
)

// BoneNode is one PAF candidate pair: the endpoint-A and endpoint-B
// candidate indices within their respective joint's candidate list.
type BoneNode struct{ A, B int }

// Obs2D is a single 2D joint observation assigned to a tracked identity.
type Obs2D struct {
	U, V, Conf float64
}

// Person is one tracked identity's per-view joint candidate assignment:
// Assign[jIdx][view] is the candidate index in that view's joint list, or
// -1 if that joint hasn't been assigned to this person in that view yet.
type Person struct {
	Assign [][]int
}

func newPerson(jointSize, numViews int) *Person {
	assign := make([][]int, jointSize)
	for j := range assign {
		row := make([]int, numViews)
		for v := range row {
			row[v] = -1
		}
		assign[j] = row
	}
	return &Person{Assign: assign}
}

func (p *Person) assignedCount() int {
	n := 0
	for _, row := range p.Assign {
		for _, v := range row {
			if v != -1 {
				n++
			}
		}
	}
	return n
}

// Associater holds the per-frame association state plus the fixed
// topology/weight configuration, mirroring KruskalAssociater (itself
// derived from Associater).
type Associater struct {
	Type     skel.Type
	Def      skel.Def
	Cams     []cam.Camera
	NumViews int

	MaxEpiDist     float64
	MaxTempDist    float64
	MinAsgnCnt     int
	NormalizeEdges bool

	WEpi, WTemp, WView, WPaf, WHier float64
	CViewCnt                        float64
	MinCheckCnt                     int
	NodeMultiplex                   bool

	Joint2Paf   [][]int // per joint, the PAF indices touching it
	PafHier     []int   // per PAF, the shallower endpoint's hierarchy level
	PafHierSize int

	// Per-frame state, rebuilt by Associate for every call.
	Frames    []detect.Frame
	Rays      [][][]cam.Vec3   // [view][jIdx][candidate]
	EpiEdges  [][][]*la.Matrix // [jIdx][viewA][viewB]
	TempEdges [][]*la.Matrix   // [jIdx][view]

	BoneNodes     [][][]BoneNode   // [pafIdx][view]
	BoneEpiEdges  [][][]*la.Matrix // [pafIdx][viewA][viewB]
	BoneTempEdges [][]*la.Matrix   // [pafIdx][view]

	AssignMap  [][][]int // [view][jIdx][candidate] = personIdx or -1
	PersonsMap map[int]*Person

	SkelsPrev drive.FrameSkels
	PrevOrder []int // ascending identity order, rows 0..len-1 of SkelsPrev

	Skels2D map[int][][]Obs2D // identity -> [view][jIdx]
}

// NewAssociater builds an associater for the given topology and camera
// set, with the original's default weights (SetXxx setters are exposed by
// assigning the exported fields directly instead, since Go has no need for
// the C++ setter boilerplate).
func NewAssociater(t skel.Type, cams []cam.Camera) *Associater {
	def := skel.GetDef(t)
	n := len(cams)

	joint2paf := make([][]int, def.JointSize)
	for pafIdx, pair := range def.PafDict {
		joint2paf[pair[0]] = append(joint2paf[pair[0]], pafIdx)
		joint2paf[pair[1]] = append(joint2paf[pair[1]], pafIdx)
	}

	pafHier := make([]int, def.PafSize)
	pafHierSize := 0
	for pafIdx, pair := range def.PafDict {
		h := def.HierarchyMap[pair[0]]
		if def.HierarchyMap[pair[1]] < h {
			h = def.HierarchyMap[pair[1]]
		}
		pafHier[pafIdx] = h
		if h > pafHierSize {
			pafHierSize = h
		}
	}

	return &Associater{
		Type:     t,
		Def:      def,
		Cams:     cams,
		NumViews: n,

		MaxEpiDist:     0.2,
		MaxTempDist:    0.5,
		MinAsgnCnt:     5,
		NormalizeEdges: true,

		WEpi:        1,
		WTemp:       3,
		WView:       1,
		WPaf:        1,
		WHier:       0.5,
		CViewCnt:    2,
		MinCheckCnt: 2,

		Joint2Paf:   joint2paf,
		PafHier:     pafHier,
		PafHierSize: pafHierSize,
	}
}

// Initialize resets the assignment maps for a new frame: every detected
// candidate starts unassigned, and a person-map entry is seeded for every
// identity carried over from the previous frame.
func (a *Associater) Initialize() {
	a.AssignMap = make([][][]int, a.NumViews)
	for view := 0; view < a.NumViews; view++ {
		a.AssignMap[view] = make([][]int, a.Def.JointSize)
		for j := 0; j < a.Def.JointSize; j++ {
			row := make([]int, a.Frames[view].Joints[j].Len())
			for i := range row {
				row[i] = -1
			}
			a.AssignMap[view][j] = row
		}
	}

	a.PersonsMap = make(map[int]*Person, len(a.PrevOrder))
	for i := range a.PrevOrder {
		a.PersonsMap[i] = newPerson(a.Def.JointSize, a.NumViews)
	}
}

// sortedPersonKeys returns the current person-map keys in ascending order,
// mirroring std::map<int,Person>'s natural iteration order.
func (a *Associater) sortedPersonKeys() []int {
	keys := make([]int, 0, len(a.PersonsMap))
	for k := range a.PersonsMap {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Associate runs the full per-frame pipeline: joint rays, PAF/epipolar/
// temporal edges at both the joint and bone level, the Kruskal greedy
// span-tree assignment, and identity bookkeeping.
func (a *Associater) Associate() {
	a.Rays = edge.CalcJointRays(a.Cams, a.Frames, a.Type)
	edge.NormalizePafs(a.Frames, a.Type, a.NormalizeEdges)
	a.EpiEdges = edge.CalcEpiEdges(a.Cams, a.Frames, a.Rays, a.Type, a.MaxEpiDist, a.NormalizeEdges)
	a.TempEdges = edge.CalcTempEdges(a.Cams, a.Rays, a.SkelsPrev, a.PrevOrder, a.Type, a.MaxTempDist, a.NormalizeEdges)

	a.CalcBoneNodes()
	a.CalcBoneEpiEdges()
	a.CalcBoneTempEdges()

	a.SpanTree()
	a.CalcSkels2D()
}

// CalcSkels2D filters out persons with too little evidence, assigns a
// stable identity to every surviving person (previous identities are
// carried over positionally; brand-new persons get the next free
// identity), and flattens their 2D joint assignments for the fitting
// stage to consume.
func (a *Associater) CalcSkels2D() {
	for _, key := range a.sortedPersonKeys() {
		if key < len(a.PrevOrder) {
			continue
		}
		person := a.PersonsMap[key]
		if person.assignedCount() >= a.MinAsgnCnt {
			continue
		}
		for view := 0; view < a.NumViews; view++ {
			for j := 0; j < a.Def.JointSize; j++ {
				if c := person.Assign[j][view]; c != -1 {
					a.AssignMap[view][j][c] = -1
				}
			}
		}
		delete(a.PersonsMap, key)
	}

	a.Skels2D = make(map[int][][]Obs2D)
	maxIdentitySoFar := -1
	for _, key := range a.sortedPersonKeys() {
		var identity int
		if key < len(a.PrevOrder) {
			identity = a.PrevOrder[key]
		} else if maxIdentitySoFar < 0 {
			identity = 0
		} else {
			identity = maxIdentitySoFar + 1
		}
		if identity > maxIdentitySoFar {
			maxIdentitySoFar = identity
		}
		person := a.PersonsMap[key]
		skel2d := make([][]Obs2D, a.NumViews)
		for view := 0; view < a.NumViews; view++ {
			row := make([]Obs2D, a.Def.JointSize)
			for j := 0; j < a.Def.JointSize; j++ {
				if c := person.Assign[j][view]; c != -1 {
					cand := a.Frames[view].Joints[j]
					row[j] = Obs2D{U: cand.U[c], V: cand.V[c], Conf: cand.Conf[c]}
				}
			}
			skel2d[view] = row
		}
		a.Skels2D[identity] = skel2d
	}
}

package assoc

import (
	"container/heap"
	"testing"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/detect"
	"github.com/cpmech/assoc4d/skel"
)

func identityCamAt(pos cam.Vec3) cam.Camera {
	var c cam.Camera
	k := cam.Mat3{{1000, 0, 500}, {0, 1000, 500}, {0, 0, 1}}
	r := cam.Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	t := r.MulVec(pos).Scale(-1)
	c.SetExtrinsics(k, r, t)
	return c
}

func emptyFrame(def skel.Def) detect.Frame {
	return detect.Frame{Joints: make([]detect.JointCandidates, def.JointSize), Pafs: make([]detect.PafMatrix, def.PafSize)}
}

func TestVotingParsePicksDistinctWinners(t *testing.T) {
	v := &Voting{Vote: map[int][2]int{
		1: {3, 0},
		2: {1, 5},
		3: {0, 2},
	}}
	v.Parse()
	if v.Fst[0] != 1 || v.FstCnt[0] != 3 {
		t.Fatalf("expected endpoint-0 winner 1 with count 3, got %v/%v", v.Fst[0], v.FstCnt[0])
	}
	if v.Fst[1] != 2 || v.FstCnt[1] != 5 {
		t.Fatalf("expected endpoint-1 winner 2 with count 5, got %v/%v", v.Fst[1], v.FstCnt[1])
	}
	if v.Sec[0] != 2 {
		t.Fatalf("expected endpoint-0 runner-up 2, got %v", v.Sec[0])
	}
}

func TestCliqueHeapPopsHighestScoreFirst(t *testing.T) {
	h := cliqueHeap{
		{Score: 0.2},
		{Score: 0.9},
		{Score: 0.5},
	}
	heap.Init(&h)
	top := heap.Pop(&h).(*BoneClique)
	if top.Score != 0.9 {
		t.Fatalf("expected the 0.9 clique to pop first, got %v", top.Score)
	}
}

func twoViewAssociater() *Associater {
	t := skel.Skel15
	def := skel.GetDef(t)
	cams := []cam.Camera{identityCamAt(cam.Vec3{-1, 0, 0}), identityCamAt(cam.Vec3{1, 0, 0})}
	a := NewAssociater(t, cams)
	// two joints seen in two views give 4 assigned cells, below the
	// default MinAsgnCnt of 5.
	a.MinAsgnCnt = 4

	frames := []detect.Frame{emptyFrame(def), emptyFrame(def)}
	pafIdx := 0
	ja, jb := def.PafDict[pafIdx][0], def.PafDict[pafIdx][1]

	targetA := cam.Vec3{0, 0, 5}
	targetB := cam.Vec3{0, 1, 5}
	for view := range frames {
		abcA := cams[view].Project(targetA)
		abcB := cams[view].Project(targetB)
		frames[view].Joints[ja] = detect.JointCandidates{U: []float64{abcA[0] / abcA[2]}, V: []float64{abcA[1] / abcA[2]}, Conf: []float64{1}}
		frames[view].Joints[jb] = detect.JointCandidates{U: []float64{abcB[0] / abcB[2]}, V: []float64{abcB[1] / abcB[2]}, Conf: []float64{1}}
		for pi := range frames[view].Pafs {
			endp := def.PafDict[pi]
			rows := frames[view].Joints[endp[0]].Len()
			cols := frames[view].Joints[endp[1]].Len()
			m := detect.PafMatrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
			if pi == pafIdx {
				m.Data[0] = 1
			}
			frames[view].Pafs[pi] = m
		}
	}
	a.Frames = frames
	return a
}

func TestAssociateCreatesOnePersonFromTwoViews(t *testing.T) {
	a := twoViewAssociater()
	a.Associate()

	if len(a.Skels2D) != 1 {
		t.Fatalf("expected exactly one tracked person, got %d", len(a.Skels2D))
	}
	for _, obs := range a.Skels2D {
		assignedViews := 0
		for _, row := range obs {
			for _, o := range row {
				if o.Conf > 0 {
					assignedViews++
				}
			}
		}
		if assignedViews == 0 {
			t.Fatal("expected the tracked person to carry some assigned 2D joints")
		}
	}
}

func TestCalcBoneNodesFindsStrongPaf(t *testing.T) {
	a := twoViewAssociater()
	a.Initialize()
	a.CalcBoneNodes()
	if len(a.BoneNodes[0][0]) != 1 {
		t.Fatalf("expected exactly one bone candidate for PAF 0 view 0, got %d", len(a.BoneNodes[0][0]))
	}
}

package main

import (
	"sort"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/hungarian"
	"github.com/cpmech/assoc4d/la"
	"github.com/cpmech/assoc4d/skel"
)

// shelfMapping reindexes a SKEL19 skeleton's joints into SHELF15 order,
// mirroring evaluate_shelf's MappingToShelf constant table.
var shelfMapping = [15]int{13, 7, 2, 3, 8, 14, 15, 11, 5, 6, 12, 16, 1, 4, 0}

// mapToShelf remaps a tracked SKEL19 skeleton into the SHELF15 layout
// used by the SHELF dataset's ground truth. Most joints are a straight
// reindex; SHELF15's two head markers (neck-top, face) don't exist in
// SKEL19 and are synthesized from the shoulder/ear/nose geometry instead,
// exactly like MappingToShelf.
func mapToShelf(skel19 drive.Skeleton3D) drive.Skeleton3D {
	out := drive.NewSkeleton3D(15)
	for j, src := range shelfMapping {
		out.Pos[j] = skel19.Pos[src]
		out.Conf[j] = skel19.Conf[src]
	}

	faceDir := out.Pos[12].Sub(out.Pos[14]).Cross(out.Pos[8].Sub(out.Pos[9])).Normalized()
	zDir := cam.Vec3{0, 0, 1}
	shoulderCenter := skel19.Pos[5].Add(skel19.Pos[6]).Scale(0.5)
	headCenter := skel19.Pos[9].Add(skel19.Pos[10]).Scale(0.5)

	out.Pos[12] = shoulderCenter.Add(headCenter.Sub(shoulderCenter).Scale(0.5))
	out.Pos[13] = out.Pos[12].Add(faceDir.Scale(0.125)).Add(zDir.Scale(0.145))
	return out
}

// matchedPair is one Hungarian-matched (tracked identity, ground-truth
// identity) pair for one frame.
type matchedPair struct {
	predIdentity int
	gtIdentity   int
}

// matchToGroundTruth builds the cost matrix (summed per-joint 3D
// distance, mirroring the original's topRows(3).colwise().norm().sum())
// between every SHELF15-mapped tracked person and every ground-truth
// person, then runs the Hungarian matcher over it.
func matchToGroundTruth(shelf map[int]drive.Skeleton3D, gt drive.FrameSkels) []matchedPair {
	shelfKeys := sortedIntKeys(shelf)
	gtKeys := sortedFrameSkelKeys(gt)
	if len(shelfKeys) == 0 || len(gtKeys) == 0 {
		return nil
	}

	mat := la.MatAlloc(len(shelfKeys), len(gtKeys))
	for i, pk := range shelfKeys {
		for j, gk := range gtKeys {
			mat.Set(i, j, sumJointDist(shelf[pk], gt[gk]))
		}
	}

	matches := hungarian.Solve(mat)
	out := make([]matchedPair, len(matches))
	for i, m := range matches {
		out[i] = matchedPair{predIdentity: shelfKeys[m.Row], gtIdentity: gtKeys[m.Col]}
	}
	return out
}

func sumJointDist(a, b drive.Skeleton3D) float64 {
	var sum float64
	for j := range a.Pos {
		sum += a.Pos[j].Sub(b.Pos[j]).Norm()
	}
	return sum
}

// evaluateBones scores every SHELF15 bone's PCP correctness between a
// matched predicted/ground-truth pair, mirroring Evaluate: a bone counts
// as correct when both its endpoints' position errors sum to less than
// the ground truth bone's own length.
func evaluateBones(pred, gt drive.Skeleton3D) []int {
	def := skel.GetDef(skel.Shelf15)
	c := make([]int, def.PafSize)
	for pafIdx, pair := range def.PafDict {
		ja, jb := pair[0], pair[1]
		da := pred.Pos[ja].Sub(gt.Pos[ja]).Norm()
		db := pred.Pos[jb].Sub(gt.Pos[jb]).Norm()
		length := gt.Pos[ja].Sub(gt.Pos[jb]).Norm()
		if da+db < length {
			c[pafIdx] = 1
		}
	}
	return c
}

// boneNames labels the SHELF15 bones in the same order PrintEvaluation
// lists them.
var boneNames = []string{
	"Left Upper Arm", "Right Upper Arm", "Left Lower Arm", "Right Lower Arm",
	"Left Upper Leg", "Right Upper Leg", "Left Lower Leg", "Right Lower Leg",
	"Head", "Torso",
}

func sortedIntKeys(m map[int]drive.Skeleton3D) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedFrameSkelKeys(m drive.FrameSkels) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedCorrectKeys(m map[int][][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Package track implements the per-identity skeleton lifecycle tracker
// (component C8): turning one frame's per-identity 2D joint observations
// (from package assoc) into tracked 3D skeletons, either by bare
// triangulation or by a persistent shape/pose fit that stabilizes a
// skeleton across frames.
package track

import (
	"sort"

	"github.com/cpmech/assoc4d/assoc"
	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/skel"
	"github.com/cpmech/assoc4d/tri"
)

const epsilon = 1e-9

// Updater turns one frame's per-identity 2D observations into tracked 3D
// skeletons, mirroring the SkelUpdater/SkelTriangulateUpdater/
// SkelFittingUpdater hierarchy with a Go interface plus embedding instead
// of virtual dispatch.
type Updater interface {
	Update(skels2d map[int][][]assoc.Obs2D, cams []cam.Camera)
	Skels() drive.FrameSkels
}

func sortedKeys(m map[int][][]assoc.Obs2D) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedSkelKeys(m drive.FrameSkels) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func activeJointCount(s drive.Skeleton3D) int {
	n := 0
	for _, c := range s.Conf {
		if c > epsilon {
			n++
		}
	}
	return n
}

// triangulatePerson triangulates every joint of one identity from its
// per-view 2D observations, mirroring SkelTriangulateUpdater::
// TriangulatePerson: a joint's 3D position is kept only when the
// triangulation solve's loss (its last step norm) is under thresh; the
// Convergent flag is not consulted.
func triangulatePerson(def skel.Def, skel2d [][]assoc.Obs2D, cams []cam.Camera, thresh float64) drive.Skeleton3D {
	out := drive.NewSkeleton3D(def.JointSize)
	obs := make([]tri.Observation, len(cams))
	for j := 0; j < def.JointSize; j++ {
		for view := range cams {
			o := skel2d[view][j]
			obs[view] = tri.Observation{Cam: cams[view], U: o.U, V: o.V, Conf: o.Conf}
		}
		res := tri.Solve(obs, tri.DefaultMaxIter, tri.DefaultTolerance, tri.DefaultRegularTerm)
		if res.Loss < thresh {
			out.Pos[j] = res.Pos
			out.Conf[j] = 1
		}
	}
	return out
}

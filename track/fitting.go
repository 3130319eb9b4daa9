package track

import (
	"sort"

	"github.com/cpmech/assoc4d/assoc"
	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/fit"
	"github.com/cpmech/assoc4d/la"
	"github.com/cpmech/assoc4d/skel"
)

// SkelInfo is one tracked identity's persistent model state: the current
// pose/shape parameters, the running bone-length average used to fix the
// shape once enough evidence has accumulated, and an exponentially
// updated activity score used to decide when to drop the identity,
// mirroring SkelFittingUpdater::SkelInfo.
type SkelInfo struct {
	Param      drive.Param
	BoneLen    []float64
	BoneCnt    []int
	Active     float64
	ShapeFixed bool
}

func newSkelInfo(t skel.Type) SkelInfo {
	def := skel.GetDef(t)
	return SkelInfo{
		Param:   drive.NewParam(t),
		BoneLen: make([]float64, def.JointSize-1),
		BoneCnt: make([]int, def.JointSize-1),
	}
}

// pushPrevBones folds skel's observed bone lengths into the running
// per-bone average, mirroring SkelInfo::PushPrevBones: a bone only
// contributes when both its endpoints triangulated this frame.
func (info *SkelInfo) pushPrevBones(def skel.Def, s drive.Skeleton3D) {
	for j := 1; j < def.JointSize; j++ {
		prtIdx := def.Parent[j]
		if s.Conf[j] > epsilon && s.Conf[prtIdx] > epsilon {
			length := s.Pos[j].Sub(s.Pos[prtIdx]).Norm()
			n := info.BoneCnt[j-1]
			info.BoneLen[j-1] = (float64(n)*info.BoneLen[j-1] + length) / float64(n+1)
			info.BoneCnt[j-1] = n + 1
		}
	}
}

func minBoneCnt(c []int) int {
	m := c[0]
	for _, v := range c[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// FittingUpdater tracks persons with a persistent shape/pose model: a new
// identity is triangulated frame-by-frame until its bone lengths have
// accumulated enough evidence, at which point its shape is solved once
// and fixed; from then on each frame refines pose only, regularized
// against the previous frame's pose and penalizing single-view-only
// joint observations, mirroring SkelFittingUpdater.
type FittingUpdater struct {
	TriangulateUpdater
	Solver fit.Def

	MinTriangulateJCnt int
	BoneCapacity       int
	WBone3d            float64
	WSquareShape       float64
	ShapeMaxIter       int

	WRegularPose   float64
	WTemporalTrans float64
	WTemporalPose  float64
	WJ2d           float64
	WJ3d           float64
	PoseMaxIter    int

	InitActive float64
	ActiveRate float64

	infos map[int]SkelInfo
}

// NewFittingUpdater returns an updater with the original's default
// weights/iteration counts.
func NewFittingUpdater(t skel.Type, solver fit.Def) *FittingUpdater {
	return &FittingUpdater{
		TriangulateUpdater: TriangulateUpdater{
			Type:              t,
			TriangulateThresh: 0.05,
			MinTrackJCnt:      20,
			skels:             make(drive.FrameSkels),
		},
		Solver: solver,

		// m_minTriangulateJCnt is not fixed by any distinct default in
		// the original beyond reusing the triangulate-updater's own
		// floor; kept equal to MinTrackJCnt here for the same reason.
		MinTriangulateJCnt: 20,
		BoneCapacity:       30,
		WBone3d:            1,
		WSquareShape:       1e-3,
		ShapeMaxIter:       5,

		WRegularPose:   1e-4,
		WTemporalTrans: 1e-2,
		WTemporalPose:  1e-3,
		WJ2d:           1e-5,
		WJ3d:           1,
		PoseMaxIter:    5,

		InitActive: 0.9,
		ActiveRate: 0.5,

		infos: make(map[int]SkelInfo),
	}
}

const updateThresh = 1e-4

func sortedInfoKeys(m map[int]SkelInfo) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Update runs the full per-identity lifecycle for one frame, mirroring
// SkelFittingUpdater::Update.
func (u *FittingUpdater) Update(skels2d map[int][][]assoc.Obs2D, cams []cam.Camera) {
	def := skel.GetDef(u.Type)
	prevKeys := sortedInfoKeys(u.infos)
	keys := sortedKeys(skels2d)

	nextSkels := make(drive.FrameSkels, len(u.skels))
	nextInfos := make(map[int]SkelInfo, len(u.infos))

	for pIdx, identity := range keys {
		skel2dCorr := skels2d[identity]

		if pIdx < len(prevKeys) {
			trackKey := prevKeys[pIdx]
			info := u.infos[trackKey]

			viewCnt := countViewsWithJoint(skel2dCorr)
			active := info.Active + u.ActiveRate*(2*la.Welsch(float64(u.MinTrackJCnt), float64(viewCnt))-1)
			if active > 1 {
				active = 1
			}
			info.Active = active
			if info.Active < epsilon {
				// dropped: neither nextSkels nor nextInfos gets an entry.
				continue
			}

			skelOut := u.skels[trackKey]

			if !info.ShapeFixed {
				skelOut = triangulatePerson(def, skel2dCorr, cams, u.TriangulateThresh)
				if activeJointCount(skelOut) >= u.MinTriangulateJCnt {
					info.pushPrevBones(def, skelOut)
					if minBoneCnt(info.BoneCnt) >= u.BoneCapacity {
						// BoneConf is all-ones here: every bone already has
						// boneCapacity worth of evidence at this call site, the
						// same guarantee the original encodes implicitly via
						// bone3dTarget's homogeneous (always-1) row.
						shapeTerm := fit.Term{
							WBone3d:      u.WBone3d,
							BoneLen:      append([]float64(nil), info.BoneLen...),
							BoneConf:     onesFloat(len(info.BoneLen)),
							WSquareShape: u.WSquareShape,
						}
						u.Solver.SolveShape(shapeTerm, &info.Param, u.ShapeMaxIter, updateThresh)

						poseTarget := make([]cam.Vec3, def.JointSize)
						poseConf := make([]float64, def.JointSize)
						copy(poseTarget, skelOut.Pos)
						copy(poseConf, skelOut.Conf)
						poseTerm := fit.Term{
							WJ3d:         u.WJ3d,
							J3dTarget:    poseTarget,
							J3dConf:      poseConf,
							WRegularPose: u.WRegularPose,
						}
						u.Solver.AlignRT(poseTerm, &info.Param)
						u.Solver.SolvePose(poseTerm, &info.Param, u.PoseMaxIter, false, updateThresh)
						skelOut.Pos = u.Solver.CalcJFinalFromParam(info.Param, 0)
						info.ShapeFixed = true
					}
				}
			} else {
				views := buildViews(def, skel2dCorr, cams)
				jConf := filterSingleView(def, views)

				poseTerm := fit.Term{
					WJ2d:           u.WJ2d,
					Views:          views,
					WRegularPose:   u.WRegularPose,
					ParamPrev:      info.Param,
					WTemporalTrans: u.WTemporalTrans,
					WTemporalPose:  u.WTemporalPose,
				}
				u.Solver.SolvePose(poseTerm, &info.Param, u.PoseMaxIter, false, updateThresh)
				skelOut.Pos = u.Solver.CalcJFinalFromParam(info.Param, 0)
				skelOut.Conf = jConf
				info.Active = active
			}

			nextSkels[trackKey] = skelOut
			nextInfos[trackKey] = info
			continue
		}

		person := triangulatePerson(def, skel2dCorr, cams, u.TriangulateThresh)
		if activeJointCount(person) >= u.MinTriangulateJCnt {
			info := newSkelInfo(u.Type)
			info.pushPrevBones(def, person)
			info.Active = u.InitActive
			nextSkels[identity] = person
			nextInfos[identity] = info
		}
	}

	u.skels = nextSkels
	u.infos = nextInfos
}

func countViewsWithJoint(skel2d [][]assoc.Obs2D) int {
	n := 0
	for _, row := range skel2d {
		for _, o := range row {
			if o.Conf > epsilon {
				n++
			}
		}
	}
	return n
}

func onesFloat(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func buildViews(def skel.Def, skel2d [][]assoc.Obs2D, cams []cam.Camera) []fit.View2D {
	views := make([]fit.View2D, len(cams))
	for view := range cams {
		joints := make([]fit.Obs2D, def.JointSize)
		for j, o := range skel2d[view] {
			joints[j] = fit.Obs2D{U: o.U, V: o.V, Conf: o.Conf}
		}
		views[view] = fit.View2D{Cam: cams[view], Joints: joints}
	}
	return views
}

// filterSingleView zeroes out any joint target seen by at most one view,
// mirroring SkelFittingUpdater::Update's corrCnt/jConfidence filter, and
// returns the resulting per-joint confidence vector.
func filterSingleView(def skel.Def, views []fit.View2D) []float64 {
	corrCnt := make([]int, def.JointSize)
	for _, v := range views {
		for j, o := range v.Joints {
			if o.Conf > epsilon {
				corrCnt[j]++
			}
		}
	}
	jConf := make([]float64, def.JointSize)
	for j := range jConf {
		jConf[j] = 1
	}
	for j := 0; j < def.JointSize; j++ {
		if corrCnt[j] <= 1 {
			jConf[j] = epsilon
			for v := range views {
				views[v].Joints[j] = fit.Obs2D{}
			}
		}
	}
	return jConf
}

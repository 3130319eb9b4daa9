package track

import (
	"github.com/cpmech/assoc4d/assoc"
	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/skel"
)

// TriangulateUpdater tracks persons by triangulating every joint fresh
// each frame and dropping a tracked identity the moment it no longer
// triangulates enough joints, mirroring SkelTriangulateUpdater.
type TriangulateUpdater struct {
	Type skel.Type

	TriangulateThresh float64
	MinTrackJCnt      int

	skels drive.FrameSkels
}

// NewTriangulateUpdater returns an updater with the original's default
// thresholds.
func NewTriangulateUpdater(t skel.Type) *TriangulateUpdater {
	return &TriangulateUpdater{
		Type:              t,
		TriangulateThresh: 0.05,
		MinTrackJCnt:      20,
		skels:             make(drive.FrameSkels),
	}
}

// Skels returns the current tracked 3D skeletons.
func (u *TriangulateUpdater) Skels() drive.FrameSkels { return u.skels }

// Update re-triangulates every identity present in skels2d, mirroring
// SkelTriangulateUpdater::Update: the first len(m_skels) identities (in
// ascending identity order, matching both maps' std::map iteration order)
// are treated as already-tracked and either refreshed in place (keeping
// their existing map key, exactly like assigning through a std::map
// iterator) or dropped if they fell below the joint-count floor; any
// identity beyond that position is a brand-new person, kept only if it
// triangulates enough joints from the first frame.
func (u *TriangulateUpdater) Update(skels2d map[int][][]assoc.Obs2D, cams []cam.Camera) {
	def := skel.GetDef(u.Type)
	prevKeys := sortedSkelKeys(u.skels)
	keys := sortedKeys(skels2d)

	next := make(drive.FrameSkels, len(u.skels))
	for pIdx, identity := range keys {
		person := triangulatePerson(def, skels2d[identity], cams, u.TriangulateThresh)
		active := activeJointCount(person) >= u.MinTrackJCnt
		if pIdx < len(prevKeys) {
			if active {
				next[prevKeys[pIdx]] = person
			}
			continue
		}
		if active {
			next[identity] = person
		}
	}
	u.skels = next
}

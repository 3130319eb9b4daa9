// Package skel carries the static skeleton topology registry: joint
// counts, part-affinity-field (PAF) dictionaries, kinematic parent
// arrays, hierarchy levels and draw-bone tables for every supported
// skeleton type, plus the cross-topology joint/PAF remap tables used to
// project BODY25 detections into the coarser SKEL19/17/15 topologies
// association and fitting actually run against.
package skel

import (
	"fmt"
	"strings"
)

// Type identifies a skeleton topology.
type Type int

// Supported topologies, in the same order as the original registry so
// Type values are stable across the module.
const (
	Skel19 Type = iota
	Skel17
	Skel15
	Coco18
	Body25
	Optitrack21
	Shelf15
	MpiiHand21
	numTypes
)

func (t Type) String() string {
	switch t {
	case Skel19:
		return "SKEL19"
	case Skel17:
		return "SKEL17"
	case Skel15:
		return "SKEL15"
	case Coco18:
		return "COCO18"
	case Body25:
		return "BODY25"
	case Optitrack21:
		return "OPTITRACK21"
	case Shelf15:
		return "SHELF15"
	case MpiiHand21:
		return "MPIIHAND21"
	default:
		return "UNKNOWN"
	}
}

// ParseType resolves a config-file skeleton topology name (case
// insensitive) to its Type, accepting both the canonical all-caps form
// returned by String and a common lowercase spelling.
func ParseType(name string) (Type, error) {
	switch strings.ToUpper(name) {
	case "SKEL19":
		return Skel19, nil
	case "SKEL17":
		return Skel17, nil
	case "SKEL15":
		return Skel15, nil
	case "COCO18":
		return Coco18, nil
	case "BODY25":
		return Body25, nil
	case "OPTITRACK21":
		return Optitrack21, nil
	case "SHELF15":
		return Shelf15, nil
	case "MPIIHAND21":
		return MpiiHand21, nil
	default:
		return 0, fmt.Errorf("unknown skeleton type %q", name)
	}
}

// Def is the fixed topology description for one skeleton type.
type Def struct {
	JointSize int
	PafSize   int
	ShapeSize int
	// PafDict holds, per PAF index, the (jointA, jointB) endpoint pair.
	PafDict [][2]int
	// Parent holds, per joint index, the kinematic parent index, or -1
	// for the root. Empty for topologies that never drive the kinematic
	// solver (COCO18, BODY25, OPTITRACK21, SHELF15, MPIIHAND21).
	Parent []int
	// HierarchyMap holds, per joint index, the solving level used by the
	// hierarchical pose solver's coarse-to-fine sweep. Empty for the same
	// topologies as Parent.
	HierarchyMap []int
	// DrawBone holds cosmetic skeleton-drawing bone endpoints; carried
	// for completeness even though rendering itself is out of scope.
	DrawBone [][2]int
}

var defs [numTypes]Def

func init() {
	defs[Skel19] = Def{
		JointSize: 19,
		PafSize:   18,
		ShapeSize: 10,
		PafDict: pafDictFromFlat(
			[]int{1, 2, 7, 0, 0, 3, 8, 1, 5, 11, 5, 1, 6, 12, 6, 1, 14, 13},
			[]int{0, 7, 13, 2, 3, 8, 14, 5, 11, 15, 9, 6, 12, 16, 10, 4, 17, 18}),
		Parent:       []int{-1, 0, 0, 0, 1, 1, 1, 2, 3, 4, 4, 5, 6, 7, 8, 11, 12, 14, 13},
		HierarchyMap: []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3},
		DrawBone: pafDictFromFlat(
			[]int{0, 0, 1, 1, 1, 2, 2, 3, 3, 4, 4, 5, 6, 7, 8, 11, 12, 13, 14},
			[]int{2, 3, 4, 5, 6, 5, 7, 6, 8, 9, 10, 11, 12, 13, 14, 15, 16, 18, 17}),
	}
	defs[Skel17] = Def{
		JointSize: 17,
		PafSize:   16,
		ShapeSize: 10,
		PafDict: pafDictFromFlat(
			[]int{1, 2, 7, 0, 0, 3, 8, 1, 5, 9, 1, 6, 10, 1, 12, 11},
			[]int{0, 7, 11, 2, 3, 8, 12, 5, 9, 13, 6, 10, 14, 4, 15, 16}),
		Parent:       []int{-1, 0, 0, 0, 1, 1, 1, 2, 3, 5, 6, 7, 8, 9, 10, 12, 11},
		HierarchyMap: []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3},
		DrawBone: pafDictFromFlat(
			[]int{0, 0, 1, 1, 1, 2, 2, 3, 3, 5, 6, 7, 8, 9, 10, 11, 12},
			[]int{2, 3, 4, 5, 6, 5, 7, 6, 8, 9, 10, 11, 12, 13, 14, 16, 15}),
	}
	defs[Skel15] = Def{
		JointSize: 15,
		PafSize:   14,
		ShapeSize: 10,
		PafDict: pafDictFromFlat(
			[]int{1, 2, 7, 0, 0, 3, 8, 1, 5, 9, 1, 6, 10, 1},
			[]int{0, 7, 11, 2, 3, 8, 12, 5, 9, 13, 6, 10, 14, 4}),
		Parent:       []int{-1, 0, 0, 0, 1, 1, 1, 2, 3, 5, 6, 7, 8, 9, 10},
		HierarchyMap: []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3},
		DrawBone: pafDictFromFlat(
			[]int{0, 0, 1, 1, 1, 2, 2, 3, 3, 5, 6, 7, 8, 9, 10},
			[]int{2, 3, 4, 5, 6, 5, 7, 6, 8, 9, 10, 11, 12, 13, 14}),
	}
	defs[Coco18] = Def{
		JointSize: 18,
		PafSize:   19,
		ShapeSize: 10,
		PafDict: pafDictFromFlat(
			[]int{1, 8, 9, 1, 11, 12, 1, 2, 3, 2, 1, 5, 6, 5, 1, 0, 0, 14, 15},
			[]int{8, 9, 10, 11, 12, 13, 2, 3, 4, 16, 5, 6, 7, 17, 0, 14, 15, 16, 17}),
		DrawBone: pafDictFromFlat(
			[]int{0, 0, 0, 1, 1, 2, 2, 3, 5, 5, 6, 8, 8, 9, 11, 12, 14, 15},
			[]int{1, 14, 15, 2, 5, 3, 8, 4, 6, 11, 7, 9, 11, 10, 12, 13, 16, 17}),
	}
	defs[Body25] = Def{
		JointSize: 25,
		PafSize:   26,
		ShapeSize: 10,
		PafDict: pafDictFromFlat(
			[]int{1, 9, 10, 8, 8, 12, 13, 1, 2, 3, 2, 1, 5, 6, 5, 1, 0, 0, 15, 16, 14, 19, 14, 11, 22, 11},
			[]int{8, 10, 11, 9, 12, 13, 14, 2, 3, 4, 17, 5, 6, 7, 18, 0, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}),
		DrawBone: pafDictFromFlat(
			[]int{0, 0, 0, 1, 1, 2, 2, 3, 5, 5, 6, 8, 8, 9, 10, 11, 11, 12, 13, 14, 14, 15, 16, 19, 22},
			[]int{1, 15, 16, 2, 5, 3, 9, 4, 6, 12, 7, 9, 12, 10, 11, 22, 24, 13, 14, 19, 21, 17, 18, 20, 23}),
	}
	defs[Optitrack21] = Def{
		JointSize: 21,
		DrawBone: pafDictFromFlat(
			[]int{0, 0, 0, 1, 2, 2, 2, 3, 5, 6, 7, 9, 10, 11, 13, 14, 15, 16, 17, 18},
			[]int{1, 13, 16, 2, 3, 5, 9, 4, 6, 7, 8, 10, 11, 12, 14, 15, 19, 17, 18, 20}),
	}
	defs[Shelf15] = Def{
		JointSize: 15,
		PafSize:   10,
		PafDict: pafDictFromFlat(
			[]int{9, 8, 10, 7, 3, 2, 4, 1, 12, 12},
			[]int{10, 7, 11, 6, 4, 1, 5, 0, 13, 14}),
		DrawBone: pafDictFromFlat(
			[]int{0, 1, 2, 2, 3, 3, 3, 4, 6, 7, 8, 8, 9, 9, 10, 12},
			[]int{1, 2, 8, 14, 4, 9, 14, 5, 7, 8, 9, 12, 10, 12, 11, 13}),
	}
	defs[MpiiHand21] = Def{
		JointSize: 21,
		DrawBone: pafDictFromFlat(
			[]int{0, 1, 2, 3, 0, 5, 6, 7, 0, 9, 10, 11, 0, 13, 14, 15, 0, 17, 18, 19},
			[]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}),
	}
}

func pafDictFromFlat(as, bs []int) [][2]int {
	out := make([][2]int, len(as))
	for i := range as {
		out[i] = [2]int{as[i], bs[i]}
	}
	return out
}

// GetDef returns the fixed topology description for type t.
func GetDef(t Type) Def {
	return defs[t]
}

// Mapping holds per-joint and per-PAF correspondence from a source
// topology into a (coarser) target topology; -1 means "no correspondent".
type Mapping struct {
	JointMapping []int
	PafMapping   []int
}

var mappings = map[[2]Type]Mapping{
	{Body25, Skel19}: {
		JointMapping: []int{4, 1, 5, 11, 15, 6, 12, 16, 0, 2, 7, 13, 3, 8, 14, -1, -1, 9, 10, 17, -1, -1, 18, -1, -1},
		PafMapping:   []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, -1, -1, -1, -1, 16, -1, -1, 17, -1, -1},
	},
	{Body25, Skel17}: {
		JointMapping: []int{4, 1, 5, 9, 13, 6, 10, 14, 0, 2, 7, 11, 3, 8, 12, -1, -1, -1, -1, 15, -1, -1, 16, -1, -1},
		PafMapping:   []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, -1, 10, 11, 12, -1, 13, -1, -1, -1, -1, 14, -1, -1, 15, -1, -1},
	},
	{Body25, Skel15}: {
		JointMapping: []int{4, 1, 5, 9, 13, 6, 10, 14, 0, 2, 7, 11, 3, 8, 12, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1},
		PafMapping:   []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, -1, 10, 11, 12, -1, 13, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1},
	},
}

// GetMapping returns the joint/PAF remap from srcType to tarType. Only the
// BODY25->{SKEL19,SKEL17,SKEL15} directions are defined, matching the
// original registry; callers asking for an undefined pair get an empty
// Mapping (JointMapping is nil), which they should treat as a configuration
// error rather than silently proceeding.
func GetMapping(srcType, tarType Type) Mapping {
	return mappings[[2]Type{srcType, tarType}]
}

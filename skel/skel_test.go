package skel

import "testing"

func TestDefSizesConsistent(t *testing.T) {
	cases := []Type{Skel19, Skel17, Skel15, Coco18, Body25, Shelf15}
	for _, typ := range cases {
		def := GetDef(typ)
		if len(def.PafDict) != def.PafSize {
			t.Fatalf("%v: pafDict len %d != pafSize %d", typ, len(def.PafDict), def.PafSize)
		}
		if def.Parent != nil && len(def.Parent) != def.JointSize {
			t.Fatalf("%v: parent len %d != jointSize %d", typ, len(def.Parent), def.JointSize)
		}
		if def.Parent != nil && def.Parent[0] != -1 {
			t.Fatalf("%v: root parent must be -1", typ)
		}
	}
}

func TestParentOrderingIsToposorted(t *testing.T) {
	// CalcChainWarps relies on parent[j] < j for every non-root joint.
	for _, typ := range []Type{Skel19, Skel17, Skel15} {
		def := GetDef(typ)
		for j := 1; j < def.JointSize; j++ {
			if def.Parent[j] >= j {
				t.Fatalf("%v: joint %d has parent %d >= j", typ, j, def.Parent[j])
			}
		}
	}
}

func TestMappingSizesMatchBody25(t *testing.T) {
	body25 := GetDef(Body25)
	for _, tar := range []Type{Skel19, Skel17, Skel15} {
		m := GetMapping(Body25, tar)
		if len(m.JointMapping) != body25.JointSize {
			t.Fatalf("mapping to %v: jointMapping len %d != %d", tar, len(m.JointMapping), body25.JointSize)
		}
		if len(m.PafMapping) != body25.PafSize {
			t.Fatalf("mapping to %v: pafMapping len %d != %d", tar, len(m.PafMapping), body25.PafSize)
		}
		tarDef := GetDef(tar)
		for _, j := range m.JointMapping {
			if j >= tarDef.JointSize {
				t.Fatalf("mapping to %v: joint index %d out of range", tar, j)
			}
		}
	}
}

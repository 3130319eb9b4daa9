package hungarian

import (
	"testing"

	"github.com/cpmech/assoc4d/la"
)

func TestSolveMatchesKnownOptimum(t *testing.T) {
	// optimum assignment: row0->col1(1) + row1->col0(2) + row2->col2(2) = 5
	m := la.MatAlloc(3, 3)
	costs := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	for i, row := range costs {
		for j, v := range row {
			m.Set(i, j, v)
		}
	}

	matches := Solve(m)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}

	seenRows := make(map[int]bool)
	seenCols := make(map[int]bool)
	var total float64
	for _, mt := range matches {
		if seenRows[mt.Row] || seenCols[mt.Col] {
			t.Fatalf("duplicate row/col in matching: %+v", mt)
		}
		seenRows[mt.Row] = true
		seenCols[mt.Col] = true
		total += mt.Cost
	}
	if total != 5 {
		t.Fatalf("expected optimum cost 5 (1+2+2), got %v", total)
	}
}

func TestSolveHandlesRectangularMatrix(t *testing.T) {
	m := la.MatAlloc(2, 3)
	m.Set(0, 0, 1)
	m.Set(0, 1, 9)
	m.Set(0, 2, 9)
	m.Set(1, 0, 9)
	m.Set(1, 1, 9)
	m.Set(1, 2, 1)

	matches := Solve(m)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches (bounded by the smaller dimension), got %d", len(matches))
	}
	for _, mt := range matches {
		if mt.Row >= 2 || mt.Col >= 3 {
			t.Fatalf("match out of original matrix bounds: %+v", mt)
		}
	}
}

func TestSolveEmptyMatrix(t *testing.T) {
	m := la.MatAlloc(0, 0)
	if matches := Solve(m); matches != nil {
		t.Fatalf("expected nil for an empty matrix, got %v", matches)
	}
}

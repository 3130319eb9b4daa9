// Package hungarian implements the Kuhn-Munkres assignment algorithm used
// to match tracked skeletons against ground truth for evaluation
// (component C9): square-pad the cost matrix, row/col-reduce it, then
// repeatedly cover/augment its zeros until a perfect matching emerges,
// adjusting by the smallest uncovered value whenever it doesn't.
package hungarian

import (
	"math"

	"github.com/cpmech/assoc4d/la"
)

const epsilon = 1e-9

// Match is one matched (row, col) pair from the original (unpadded) cost
// matrix, together with its original cost.
type Match struct {
	Cost     float64
	Row, Col int
}

// Solve runs the Hungarian algorithm on mat, mirroring HungarianAlgorithm
// bit-for-bit: the matrix is padded to square with zeros, reduced, and the
// zero-cover/uncovered-minimum loop iterates until every padded row has a
// starred zero; only matches that land inside the original (unpadded)
// bounds are returned.
func Solve(mat *la.Matrix) []Match {
	rowSize, colSize := mat.Rows, mat.Cols
	matSize := rowSize
	if colSize > matSize {
		matSize = colSize
	}
	if matSize == 0 {
		return nil
	}

	padded := la.MatAlloc(matSize, matSize)
	for i := 0; i < rowSize; i++ {
		for j := 0; j < colSize; j++ {
			padded.Set(i, j, mat.At(i, j))
		}
	}

	reduceRows(padded)
	reduceCols(padded)

	for {
		zeroMap := make([][]bool, matSize)
		for i := range zeroMap {
			zeroMap[i] = make([]bool, matSize)
		}
		zeroCount := make([]int, 2*matSize)
		for row := 0; row < matSize; row++ {
			for col := 0; col < matSize; col++ {
				if math.Abs(padded.At(row, col)) < epsilon {
					zeroMap[row][col] = true
					zeroCount[row]++
					zeroCount[matSize+col]++
				}
			}
		}
		for i, c := range zeroCount {
			if c == 0 {
				zeroCount[i] = matSize + 1
			}
		}

		// markMap: 0 = no zero, 1 = unstarred zero, 2 = starred (key) zero,
		// -1 = a zero crossed out by a prior star's row/col.
		markMap := make([][]int, matSize)
		for i := range markMap {
			markMap[i] = make([]int, matSize)
			for j := range markMap[i] {
				if zeroMap[i][j] {
					markMap[i][j] = 1
				}
			}
		}

		type keyElem struct{ row, col int }
		var keys []keyElem

		for {
			idx, val := minIndex(zeroCount)
			if val == matSize+1 {
				break
			}

			var keyRow, keyCol int
			if idx < matSize {
				keyRow = idx
				for keyCol = 0; markMap[keyRow][keyCol] != 1; keyCol++ {
				}
			} else {
				keyCol = idx - matSize
				for keyRow = 0; markMap[keyRow][keyCol] != 1; keyRow++ {
				}
			}

			keys = append(keys, keyElem{keyRow, keyCol})
			markMap[keyRow][keyCol] = 2
			zeroCount[keyRow] = matSize + 1
			zeroCount[matSize+keyCol] = matSize + 1

			for i := 0; i < matSize; i++ {
				if markMap[keyRow][i] == 1 {
					markMap[keyRow][i] = -1
					if zeroCount[i+matSize] == 1 {
						zeroCount[i+matSize] = matSize + 1
					} else {
						zeroCount[i+matSize]--
					}
				}
				if markMap[i][keyCol] == 1 {
					markMap[i][keyCol] = -1
					if zeroCount[i] == 1 {
						zeroCount[i] = matSize + 1
					} else {
						zeroCount[i]--
					}
				}
			}
		}

		if len(keys) == matSize {
			var matches []Match
			for _, k := range keys {
				if k.row < rowSize && k.col < colSize {
					matches = append(matches, Match{Cost: mat.At(k.row, k.col), Row: k.row, Col: k.col})
				}
			}
			return matches
		}

		// keyRows/keyCols mirror std::set<int>'s ascending-order iteration
		// via plain bool membership slices walked low-to-high, so the
		// propagation below resolves identically to the original instead
		// of depending on Go's randomized map iteration order.
		keyRows := make([]bool, matSize)
		for row := 0; row < matSize; row++ {
			starred := false
			for col := 0; col < matSize; col++ {
				if markMap[row][col] == 2 {
					starred = true
					break
				}
			}
			keyRows[row] = !starred
		}
		keyCols := make([]bool, matSize)

		for {
			updated := false
			for keyRow := 0; keyRow < matSize; keyRow++ {
				if !keyRows[keyRow] {
					continue
				}
				for keyCol := 0; keyCol < matSize && !updated; keyCol++ {
					if zeroMap[keyRow][keyCol] && !keyCols[keyCol] {
						keyCols[keyCol] = true
						updated = true
					}
				}
			}
			for keyCol := 0; keyCol < matSize; keyCol++ {
				if !keyCols[keyCol] {
					continue
				}
				for keyRow := 0; keyRow < matSize; keyRow++ {
					if markMap[keyRow][keyCol] == 2 && !keyRows[keyRow] {
						keyRows[keyRow] = true
						updated = true
					}
				}
			}
			if !updated {
				break
			}
		}

		linedRows := make([]bool, matSize)
		linedCols := make([]bool, matSize)
		for row := range linedRows {
			linedRows[row] = !keyRows[row]
		}
		copy(linedCols, keyCols)

		minValue := math.MaxFloat64
		for row := 0; row < matSize; row++ {
			if linedRows[row] {
				continue
			}
			for col := 0; col < matSize; col++ {
				if linedCols[col] {
					continue
				}
				if v := padded.At(row, col); v < minValue {
					minValue = v
				}
			}
		}

		for keyRow, in := range keyRows {
			if !in {
				continue
			}
			for col := 0; col < matSize; col++ {
				padded.Add(keyRow, col, -minValue)
			}
		}
		for keyCol, in := range keyCols {
			if !in {
				continue
			}
			for row := 0; row < matSize; row++ {
				padded.Add(row, keyCol, minValue)
			}
		}
	}
}

func reduceRows(m *la.Matrix) {
	for row := 0; row < m.Rows; row++ {
		min := m.At(row, 0)
		for col := 1; col < m.Cols; col++ {
			if v := m.At(row, col); v < min {
				min = v
			}
		}
		for col := 0; col < m.Cols; col++ {
			m.Add(row, col, -min)
		}
	}
}

func reduceCols(m *la.Matrix) {
	for col := 0; col < m.Cols; col++ {
		min := m.At(0, col)
		for row := 1; row < m.Rows; row++ {
			if v := m.At(row, col); v < min {
				min = v
			}
		}
		for row := 0; row < m.Rows; row++ {
			m.Add(row, col, -min)
		}
	}
}

func minIndex(vals []int) (int, int) {
	idx := 0
	min := vals[0]
	for i, v := range vals[1:] {
		if v < min {
			min = v
			idx = i + 1
		}
	}
	return idx, min
}

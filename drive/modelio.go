package drive

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/skel"
)

// LoadModelDir loads a skeleton model directory (joints.txt,
// jshape_blend.txt), mirroring SkelDriver's constructor, which loads both
// matrices via MathUtil::LoadMat and asserts their dimensions against the
// topology.
func LoadModelDir(dir string, t skel.Type) (Model, error) {
	def := skel.GetDef(t)

	jointsRows, jointsCols, jointsFlat, err := loadMat(filepath.Join(dir, "joints.txt"))
	if err != nil {
		return Model{}, err
	}
	if jointsCols != def.JointSize || jointsRows != 3 {
		return Model{}, chk.Err("drive: joints.txt shape %dx%d does not match topology (want 3x%d)", jointsRows, jointsCols, def.JointSize)
	}

	blendRows, blendCols, blendFlat, err := loadMat(filepath.Join(dir, "jshape_blend.txt"))
	if err != nil {
		return Model{}, err
	}
	if blendRows != 3*def.JointSize || blendCols != def.ShapeSize {
		return Model{}, chk.Err("drive: jshape_blend.txt shape %dx%d does not match topology (want %dx%d)", blendRows, blendCols, 3*def.JointSize, def.ShapeSize)
	}

	joints := make([]cam.Vec3, def.JointSize)
	for j := 0; j < def.JointSize; j++ {
		joints[j] = cam.Vec3{jointsFlat[0*def.JointSize+j], jointsFlat[1*def.JointSize+j], jointsFlat[2*def.JointSize+j]}
	}
	blend := make([][]float64, blendRows)
	for i := 0; i < blendRows; i++ {
		blend[i] = jointsSlice(blendFlat, i*blendCols, blendCols)
	}

	return Model{Type: t, Joints: joints, ShapeBlend: blend}, nil
}

func jointsSlice(flat []float64, start, n int) []float64 {
	out := make([]float64, n)
	copy(out, flat[start:start+n])
	return out
}

// loadMat reads the "<rows> <cols>\n<row-major values>" text format used
// by the original's MathUtil::LoadMat/SaveMat.
func loadMat(path string) (rows, cols int, data []float64, err error) {
	f, ferr := os.Open(path)
	if ferr != nil {
		return 0, 0, nil, chk.Err("drive: cannot open %s: %v", path, ferr)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	readInt := func() (int, error) {
		if !sc.Scan() {
			return 0, chk.Err("drive: %s: unexpected end of file", path)
		}
		return strconv.Atoi(sc.Text())
	}
	readFloat := func() (float64, error) {
		if !sc.Scan() {
			return 0, chk.Err("drive: %s: unexpected end of file", path)
		}
		return strconv.ParseFloat(sc.Text(), 64)
	}

	rows, err = readInt()
	if err != nil {
		return 0, 0, nil, err
	}
	cols, err = readInt()
	if err != nil {
		return 0, 0, nil, err
	}
	data = make([]float64, rows*cols)
	for i := range data {
		v, ferr := readFloat()
		if ferr != nil {
			return 0, 0, nil, ferr
		}
		data[i] = v
	}
	return rows, cols, data, nil
}

// saveMat writes the same format back out.
func saveMat(path string, rows, cols int, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return chk.Err("drive: cannot create %s: %v", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	defer bw.Flush()
	fmt.Fprintf(bw, "%d %d\n", rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			fmt.Fprintf(bw, "%g ", data[i*cols+j])
		}
		fmt.Fprintln(bw)
	}
	return nil
}

package drive

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/assoc4d/cam"
)

// Skeleton3D is one tracked person's 3D joints for one frame: Pos holds
// the joint position, Conf holds a per-joint confidence/validity marker
// (> 0 means "this joint is currently known"), mirroring the original's
// packed 4xJ matrix (rows 0-2 position, row 3 confidence).
type Skeleton3D struct {
	Pos  []cam.Vec3
	Conf []float64
}

// NewSkeleton3D returns a zeroed, all-invalid skeleton with jointSize joints.
func NewSkeleton3D(jointSize int) Skeleton3D {
	return Skeleton3D{Pos: make([]cam.Vec3, jointSize), Conf: make([]float64, jointSize)}
}

// FrameSkels is the per-identity 3D skeleton state for one frame.
type FrameSkels map[int]Skeleton3D

// ParseSkels reads the skeleton-state text format: "<jointSize>
// <frameCount>", then per frame "<personCount>" followed by, per person,
// "<identity>" and 4 rows of jointSize floats (x,y,z,confidence).
func ParseSkels(r io.Reader) ([]FrameSkels, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	readInt := func() (int, error) {
		if !sc.Scan() {
			return 0, chk.Err("drive: skeleton file: unexpected end of file")
		}
		return strconv.Atoi(sc.Text())
	}
	readFloat := func() (float64, error) {
		if !sc.Scan() {
			return 0, chk.Err("drive: skeleton file: unexpected end of file")
		}
		return strconv.ParseFloat(sc.Text(), 64)
	}

	jointSize, err := readInt()
	if err != nil {
		return nil, err
	}
	frameCount, err := readInt()
	if err != nil {
		return nil, err
	}

	frames := make([]FrameSkels, frameCount)
	for f := 0; f < frameCount; f++ {
		personCount, err := readInt()
		if err != nil {
			return nil, err
		}
		fs := make(FrameSkels, personCount)
		for p := 0; p < personCount; p++ {
			identity, err := readInt()
			if err != nil {
				return nil, err
			}
			skel := NewSkeleton3D(jointSize)
			rows := [4][]float64{}
			for row := 0; row < 4; row++ {
				vals := make([]float64, jointSize)
				for j := 0; j < jointSize; j++ {
					v, err := readFloat()
					if err != nil {
						return nil, err
					}
					vals[j] = v
				}
				rows[row] = vals
			}
			for j := 0; j < jointSize; j++ {
				skel.Pos[j] = cam.Vec3{rows[0][j], rows[1][j], rows[2][j]}
				skel.Conf[j] = rows[3][j]
			}
			fs[identity] = skel
		}
		frames[f] = fs
	}
	return frames, nil
}

// SerializeSkels writes the skeleton-state text format back out. Every
// frame's persons are written in ascending identity order for a
// deterministic, diffable file.
func SerializeSkels(w io.Writer, frames []FrameSkels) error {
	jointSize := 0
	for _, fs := range frames {
		for _, skel := range fs {
			jointSize = len(skel.Pos)
			break
		}
		if jointSize > 0 {
			break
		}
	}
	if jointSize == 0 {
		return chk.Err("drive: cannot serialize an empty skeleton stream")
	}

	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintf(bw, "%d\t%d\n", jointSize, len(frames))
	for _, fs := range frames {
		fmt.Fprintf(bw, "%d\n", len(fs))
		ids := make([]int, 0, len(fs))
		for id := range fs {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			skel := fs[id]
			fmt.Fprintf(bw, "%d\n", id)
			for row := 0; row < 4; row++ {
				for j := 0; j < jointSize; j++ {
					var v float64
					switch row {
					case 0:
						v = skel.Pos[j][0]
					case 1:
						v = skel.Pos[j][1]
					case 2:
						v = skel.Pos[j][2]
					case 3:
						v = skel.Conf[j]
					}
					fmt.Fprintf(bw, "%g ", v)
				}
				fmt.Fprintln(bw)
			}
		}
	}
	return nil
}

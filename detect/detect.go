// Package detect reads and writes the per-frame 2D detection file format
// (component C11): for every frame, a per-joint set of 2D candidates (u, v,
// confidence) and a per-PAF affinity matrix between candidates of its two
// endpoint joints.
package detect

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/assoc4d/skel"
)

// PAFGainExponent is applied to every PAF affinity value at load time. The
// original implementation bakes this in unconditionally (openpose.cpp's
// ParseDetections raises every PAF matrix to this power before anything
// else ever sees it), so it is not a runtime tunable — see DESIGN.md for
// why this resolves spec.md's open question about the gain.
const PAFGainExponent = 0.2

// JointCandidates holds every detected candidate for one joint in one
// view: row 0/1 are pixel (u,v), row 2 is detector confidence.
type JointCandidates struct {
	U, V, Conf []float64
}

func (j JointCandidates) Len() int { return len(j.Conf) }

// PafMatrix is the candidateA x candidateB affinity matrix for one PAF.
type PafMatrix struct {
	Rows, Cols int
	Data       []float64
}

func (m PafMatrix) At(i, j int) float64 { return m.Data[i*m.Cols+j] }

// Frame is one frame's detections for a single view.
type Frame struct {
	Joints []JointCandidates // len == skel.Def.JointSize
	Pafs   []PafMatrix       // len == skel.Def.PafSize
}

// Detection is a full detection stream for one view across all frames.
type Detection struct {
	Type   skel.Type
	Frames []Frame
}

// tokenizer reads whitespace-separated tokens across newlines, mirroring
// C++'s ifstream >> operator semantics used throughout the original file
// readers.
type tokenizer struct {
	sc *bufio.Scanner
}

func newTokenizer(r io.Reader) *tokenizer {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenizer{sc: sc}
}

// parseError is the panic payload tokenizer methods raise on malformed
// input; Parse recovers it at the top level and turns it into a plain
// error, keeping the scanning code itself free of error-threading noise.
type parseError struct{ err error }

func (t *tokenizer) int() int {
	if !t.sc.Scan() {
		panic(parseError{fmt.Errorf("unexpected end of file while reading an integer")})
	}
	v, err := strconv.Atoi(t.sc.Text())
	if err != nil {
		panic(parseError{fmt.Errorf("expected integer, got %q: %w", t.sc.Text(), err)})
	}
	return v
}

func (t *tokenizer) float() float64 {
	if !t.sc.Scan() {
		panic(parseError{fmt.Errorf("unexpected end of file while reading a float")})
	}
	v, err := strconv.ParseFloat(t.sc.Text(), 64)
	if err != nil {
		panic(parseError{fmt.Errorf("expected float, got %q: %w", t.sc.Text(), err)})
	}
	return v
}

// Parse reads a detection stream for one view. The skeleton type id at the
// head of the stream selects which topology the candidate counts and PAF
// dictionary belong to.
func Parse(r io.Reader) (det Detection, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if pe, ok := rec.(parseError); ok {
				err = chk.Err("detect: %v", pe.err)
				return
			}
			panic(rec)
		}
	}()

	tk := newTokenizer(r)
	typeID := tk.int()
	if typeID < 0 {
		return Detection{}, chk.Err("detect: negative skeleton type id %d", typeID)
	}
	det.Type = skel.Type(typeID)
	def := skel.GetDef(det.Type)
	frameCount := tk.int()

	det.Frames = make([]Frame, frameCount)
	for f := 0; f < frameCount; f++ {
		frame := Frame{
			Joints: make([]JointCandidates, def.JointSize),
			Pafs:   make([]PafMatrix, def.PafSize),
		}
		for jIdx := 0; jIdx < def.JointSize; jIdx++ {
			n := tk.int()
			jc := JointCandidates{U: make([]float64, n), V: make([]float64, n), Conf: make([]float64, n)}
			for c := 0; c < n; c++ {
				jc.U[c] = tk.float()
			}
			for c := 0; c < n; c++ {
				jc.V[c] = tk.float()
			}
			for c := 0; c < n; c++ {
				jc.Conf[c] = tk.float()
			}
			frame.Joints[jIdx] = jc
		}
		for pafIdx := 0; pafIdx < def.PafSize; pafIdx++ {
			endpoints := def.PafDict[pafIdx]
			rows := frame.Joints[endpoints[0]].Len()
			cols := frame.Joints[endpoints[1]].Len()
			m := PafMatrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
			for i := range m.Data {
				v := tk.float()
				m.Data[i] = math.Pow(v, PAFGainExponent)
			}
			frame.Pafs[pafIdx] = m
		}
		det.Frames[f] = frame
	}
	return det, nil
}

// Serialize writes a detection stream back out in the same text format.
// The stored PAF values are written back as-is (already gain-adjusted);
// round-tripping through Serialize/Parse therefore applies the gain twice,
// matching the original's own lack of an inverse transform — callers that
// need a byte-for-byte round trip should keep the pre-gain matrix
// separately rather than relying on Serialize to undo Parse.
func Serialize(w io.Writer, det Detection) error {
	def := skel.GetDef(det.Type)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	fmt.Fprintf(bw, "%d %d\n", int(det.Type), len(det.Frames))
	for _, frame := range det.Frames {
		for jIdx := 0; jIdx < def.JointSize; jIdx++ {
			jc := frame.Joints[jIdx]
			fmt.Fprintf(bw, "%d\n", jc.Len())
			writeRow(bw, jc.U)
			writeRow(bw, jc.V)
			writeRow(bw, jc.Conf)
		}
		for pafIdx := 0; pafIdx < def.PafSize; pafIdx++ {
			m := frame.Pafs[pafIdx]
			for i := 0; i < m.Rows; i++ {
				for j := 0; j < m.Cols; j++ {
					fmt.Fprintf(bw, "%g ", m.At(i, j))
				}
				fmt.Fprintln(bw)
			}
		}
	}
	return nil
}

func writeRow(w io.Writer, vals []float64) {
	for _, v := range vals {
		fmt.Fprintf(w, "%g ", v)
	}
	fmt.Fprintln(w)
}

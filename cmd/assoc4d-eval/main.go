// Command assoc4d-eval scores a tracked sequence against SHELF15 ground
// truth: every frame's tracked skeletons are remapped into SHELF15 order,
// Hungarian-matched against the ground-truth identities for that frame,
// and scored per bone with the standard PCP criterion (component C9's
// evaluation boundary, never exercised by the core association/tracking
// path).
package main

import (
	"flag"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/config"
	"github.com/cpmech/assoc4d/detect"
	"github.com/cpmech/assoc4d/drive"
	"github.com/cpmech/assoc4d/pipeline"
	"github.com/cpmech/assoc4d/skel"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	io.PfWhite("\nassoc4d-eval -- PCP evaluation against SHELF15 ground truth\n\n")

	flag.Parse()
	if len(flag.Args()) < 2 {
		chk.Panic("please provide a parameter file and a ground-truth skeleton file. Ex.: assoc4d-eval params.json gt.txt")
	}
	cfgPath := flag.Arg(0)
	gtPath := flag.Arg(1)

	cfg, err := config.Read(cfgPath)
	if err != nil {
		chk.Panic("%v", err)
	}

	camBytes, err := io.ReadFile(cfg.CameraFile)
	if err != nil {
		chk.Panic("cannot read camera file %q: %v", cfg.CameraFile, err)
	}
	camSet, err := cam.ParseSet(camBytes)
	if err != nil {
		chk.Panic("%v", err)
	}
	cams := camSet.Ordered()

	t, err := skel.ParseType(cfg.SkelType)
	if err != nil {
		chk.Panic("%v", err)
	}
	if t != skel.Skel19 {
		chk.Panic("assoc4d-eval only scores SKEL19 tracks against SHELF15 ground truth, got skelType %q", cfg.SkelType)
	}

	model, err := drive.LoadModelDir(cfg.ModelDir, t)
	if err != nil {
		chk.Panic("%v", err)
	}

	streams, err := pipeline.LoadStreams(cfg.DetectionDir, camSet.Names)
	if err != nil {
		chk.Panic("%v", err)
	}

	gtFile, err := os.Open(gtPath)
	if err != nil {
		chk.Panic("cannot open ground-truth file %q: %v", gtPath, err)
	}
	gt, err := drive.ParseSkels(gtFile)
	gtFile.Close()
	if err != nil {
		chk.Panic("%v", err)
	}

	n := len(streams[0].Frames)
	for _, s := range streams {
		if len(s.Frames) < n {
			n = len(s.Frames)
		}
	}
	if len(gt) < n {
		n = len(gt)
	}
	io.Pf("> evaluating %d frame(s)\n", n)

	frame := pipeline.New(cfg, cams, model)
	correct := make(map[int][][]int)

	for f := 0; f < n; f++ {
		views := make([]detect.Frame, len(streams))
		for view, s := range streams {
			views[view] = s.Frames[f]
		}
		tracked := frame.Step(views)

		shelf := make(map[int]drive.Skeleton3D, len(tracked))
		for identity, sk := range tracked {
			shelf[identity] = mapToShelf(sk)
		}

		matches := matchToGroundTruth(shelf, gt[f])
		for _, m := range matches {
			c := evaluateBones(shelf[m.predIdentity], gt[f][m.gtIdentity])
			correct[m.gtIdentity] = append(correct[m.gtIdentity], c)
		}
		io.Pf("> frame %d: %d matched identities\n", f, len(matches))
	}

	for _, identity := range sortedCorrectKeys(correct) {
		io.Pf("\nidentity: %d\n", identity)
		printEvaluation(correct[identity])
	}
}

// printEvaluation mirrors PrintEvaluation: per-bone correct/total counts
// and rate, followed by the average rate across bones.
func printEvaluation(rows [][]int) {
	if len(rows) == 0 {
		return
	}
	sum := make([]int, len(rows[0]))
	for _, c := range rows {
		for i, v := range c {
			sum[i] += v
		}
	}
	var avg float64
	for i, s := range sum {
		rate := float64(s) / float64(len(rows))
		name := "bone"
		if i < len(boneNames) {
			name = boneNames[i]
		}
		io.Pf("%s: %d/%d %.4f\n", name, s, len(rows), rate)
		avg += rate
	}
	io.Pf("Average: %.4f\n", avg/float64(len(sum)))
}

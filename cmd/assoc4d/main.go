// Command assoc4d drives the online 4D multi-view association and
// skeleton-fitting pipeline over a pre-computed 2D detection stream,
// writing the resulting per-frame 3D skeleton tracks to a file.
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

	io.PfWhite("\nassoc4d -- online 4D multi-view multi-person association\n\n")

	flag.Parse()
	var cfgPath string
	if len(flag.Args()) > 0 {
		cfgPath = flag.Arg(0)
	} else {
		chk.Panic("please provide a parameter file. Ex.: assoc4d params.json")
	}

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
	if len(cams) == 0 {
		chk.Panic("camera file %q defines no cameras", cfg.CameraFile)
	}

	t, err := skel.ParseType(cfg.SkelType)
	if err != nil {
		chk.Panic("%v", err)
	}

	model, err := drive.LoadModelDir(cfg.ModelDir, t)
	if err != nil {
		chk.Panic("%v", err)
	}

	io.Pf("> loading %d camera view(s) from %q\n", len(cams), cfg.DetectionDir)
	streams, err := pipeline.LoadStreams(cfg.DetectionDir, camSet.Names)
	if err != nil {
		chk.Panic("%v", err)
	}

	n := len(streams[0].Frames)
	for _, s := range streams {
		if len(s.Frames) < n {
			n = len(s.Frames)
		}
	}
	io.Pf("> tracking %d frame(s)\n", n)

	frame := pipeline.New(cfg, cams, model)
	out := make([]drive.FrameSkels, n)
	for f := 0; f < n; f++ {
		views := make([]detect.Frame, len(streams))
		for view, s := range streams {
			views[view] = s.Frames[f]
		}
		out[f] = frame.Step(views)
		io.Pf("> frame %d: %d tracked person(s)\n", f, len(out[f]))
	}

	w, err := os.Create(cfg.OutputFile)
	if err != nil {
		chk.Panic("cannot create output file %q: %v", cfg.OutputFile, err)
	}
	defer w.Close()
	if err := drive.SerializeSkels(w, out); err != nil {
		chk.Panic("%v", err)
	}
	io.Pf("> wrote %q\n", cfg.OutputFile)
}

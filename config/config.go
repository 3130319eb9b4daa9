// Package config loads the flat, JSON-tagged tunable parameter set that
// drives every other package (component C10): association weights and
// thresholds, tracker weights and iteration counts, skeleton topology, and
// the file paths the CLI needs, mirroring the teacher's inp.Simulation
// load-once-at-startup pattern.
package config

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/assoc4d/skel"
)

// Params is the full set of tunables, loaded once from a JSON file at
// startup. The defaults mirror the original KruskalAssociater and
// SkelFittingUpdater member initializers; WRegularShape and WTemporalShape
// have no counterpart there and default to 0.
type Params struct {
	// file paths. DetectionDir holds one file per camera, named
	// "<cameraName>.txt" exactly like the original's "detection/<name>.txt"
	// layout, since detections are per-view streams, not a single file.
	DetectionDir string `json:"detectionDir"`
	CameraFile   string `json:"cameraFile"`
	ModelDir     string `json:"modelDir"`
	OutputFile   string `json:"outputFile"`

	// skeleton topology, e.g. "shelf15", "skel19", "coco18", "body25"
	SkelType string `json:"skelType"`

	// association (assoc.Associater)
	MaxEpiDist     float64 `json:"maxEpiDist"`
	MaxTempDist    float64 `json:"maxTempDist"`
	MinAsgnCnt     int     `json:"minAsgnCnt"`
	NormalizeEdges bool    `json:"normalizeEdges"`
	WEpi           float64 `json:"wEpi"`
	WTemp          float64 `json:"wTemp"`
	WPaf           float64 `json:"wPaf"`
	WView          float64 `json:"wView"`
	WHier          float64 `json:"wHier"`
	CViewCnt       float64 `json:"cViewCnt"`
	MinCheckCnt    int     `json:"minCheckCnt"`

	// tracking (track.TriangulateUpdater / track.FittingUpdater)
	TriangulateThresh  float64 `json:"triangulateThresh"`
	MinTrackJCnt       int     `json:"minTrackJCnt"`
	MinTriangulateJCnt int     `json:"minTriangulateJCnt"`
	BoneCapacity       int     `json:"boneCapacity"`
	WSquareShape       float64 `json:"wSquareShape"`
	WRegularPose       float64 `json:"wRegularPose"`
	WRegularShape      float64 `json:"wRegularShape"`
	WTemporalTrans     float64 `json:"wTemporalTrans"`
	WTemporalPose      float64 `json:"wTemporalPose"`
	WTemporalShape     float64 `json:"wTemporalShape"`
	WJ2d               float64 `json:"wJ2d"`
	WJ3d               float64 `json:"wJ3d"`
	WBone3d            float64 `json:"wBone3d"`
	ShapeMaxIter       int     `json:"shapeMaxIter"`
	PoseMaxIter        int     `json:"poseMaxIter"`
	InitActive         float64 `json:"initActive"`
	ActiveRate         float64 `json:"activeRate"`
}

// SetDefault fills every field with the original's hard-coded defaults,
// to be called before Unmarshal so a config file only needs to override
// what it cares about.
func (p *Params) SetDefault() {
	p.SkelType = "shelf15"

	p.MaxEpiDist = 0.2
	p.MaxTempDist = 0.5
	p.MinAsgnCnt = 5
	p.NormalizeEdges = true
	p.WEpi = 1
	p.WTemp = 3
	p.WPaf = 1
	p.WView = 1
	p.WHier = 0.5
	p.CViewCnt = 2
	p.MinCheckCnt = 2

	p.TriangulateThresh = 0.05
	p.MinTrackJCnt = 20
	p.MinTriangulateJCnt = 20
	p.BoneCapacity = 30
	p.WSquareShape = 1e-3
	p.WRegularPose = 1e-4
	p.WRegularShape = 0
	p.WTemporalTrans = 1e-2
	p.WTemporalPose = 1e-3
	p.WTemporalShape = 0
	p.WJ2d = 1e-5
	p.WJ3d = 1
	p.WBone3d = 1
	p.ShapeMaxIter = 5
	p.PoseMaxIter = 5
	p.InitActive = 0.9
	p.ActiveRate = 0.5
}

// Read loads and validates a Params file, mirroring inp.ReadSim: defaults
// are set first, then the file's own JSON values override them, then the
// result is checked for the handful of values that must be non-degenerate
// for the rest of the module to run.
func Read(path string) (*Params, error) {
	var p Params
	p.SetDefault()

	b, err := io.ReadFile(path)
	if err != nil {
		return nil, chk.Err("config: cannot read parameter file %q:\n%v", path, err)
	}

	if err := json.Unmarshal(b, &p); err != nil {
		return nil, chk.Err("config: cannot unmarshal parameter file %q:\n%v", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the fields the rest of the module assumes are
// well-formed: a recognized skeleton topology and file paths that aren't
// empty.
func (p *Params) Validate() error {
	if _, err := skel.ParseType(p.SkelType); err != nil {
		return chk.Err("config: invalid skelType %q:\n%v", p.SkelType, err)
	}
	if p.DetectionDir == "" {
		return chk.Err("config: detectionDir must not be empty")
	}
	if p.CameraFile == "" {
		return chk.Err("config: cameraFile must not be empty")
	}
	if p.ModelDir == "" {
		return chk.Err("config: modelDir must not be empty")
	}
	if p.OutputFile == "" {
		return chk.Err("config: outputFile must not be empty")
	}
	return nil
}

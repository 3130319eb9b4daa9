package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaultPopulatesEveryWeight(t *testing.T) {
	var p Params
	p.SetDefault()

	if p.SkelType != "shelf15" {
		t.Fatalf("expected default skelType shelf15, got %q", p.SkelType)
	}
	if p.WEpi != 1 || p.WTemp != 3 || p.WPaf != 1 || p.WView != 1 || p.WHier != 0.5 {
		t.Fatalf("unexpected association weight defaults: %+v", p)
	}
	if p.MinTrackJCnt != 20 || p.BoneCapacity != 30 {
		t.Fatalf("unexpected tracker count defaults: %+v", p)
	}
}

func TestReadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	body := []byte(`{
		"detectionDir": "detections",
		"cameraFile": "cameras.json",
		"modelDir": "models",
		"outputFile": "out.json",
		"wEpi": 2.5
	}`)
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	p, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.WEpi != 2.5 {
		t.Fatalf("expected overridden wEpi 2.5, got %v", p.WEpi)
	}
	if p.WTemp != 3 {
		t.Fatalf("expected default wTemp to survive override, got %v", p.WTemp)
	}
	if p.SkelType != "shelf15" {
		t.Fatalf("expected default skelType to survive override, got %q", p.SkelType)
	}
}

func TestReadRejectsUnknownSkelType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	body := []byte(`{
		"detectionDir": "d",
		"cameraFile": "c.json",
		"modelDir": "m",
		"outputFile": "o.json",
		"skelType": "nope"
	}`)
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := Read(path); err == nil {
		t.Fatalf("expected an error for unknown skelType")
	}
}

func TestReadRejectsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := Read(path); err == nil {
		t.Fatalf("expected an error for missing file paths")
	}
}

package detect

import (
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
)

// ParseFile opens "<dir>/<name>.txt" and parses it as one view's detection
// stream, mirroring main.cpp's per-camera "detection/" + name + ".txt"
// path convention.
func ParseFile(dir, name string) (Detection, error) {
	path := filepath.Join(dir, name+".txt")
	f, err := os.Open(path)
	if err != nil {
		return Detection{}, chk.Err("detect: cannot open %q: %v", path, err)
	}
	defer f.Close()

	det, err := Parse(f)
	if err != nil {
		return Detection{}, chk.Err("detect: %q: %v", path, err)
	}
	return det, nil
}

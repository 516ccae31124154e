package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eigend/internal/common/fsutil"
	"eigend/internal/state"
)

// ScanDir scans dir (not recursively) for *.gguf files. The first file whose
// name does not contain "mmproj" is the model; a file containing "mmproj" is
// the vision projector. ok is false when no model file is present.
func ScanDir(dir string) (model, mmproj string, ok bool, err error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return "", "", false, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", "", false, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !fsutil.HasExt(e.Name(), ".gguf") {
			continue
		}
		p := filepath.Join(abs, e.Name())
		if strings.Contains(strings.ToLower(e.Name()), "mmproj") {
			mmproj = p
			continue
		}
		if model == "" {
			model = p
		}
	}
	return model, mmproj, model != "", nil
}

// DetectLegacy returns the flat-layout model of modelsDir, if any.
func DetectLegacy(modelsDir string) (state.ModelRef, bool) {
	model, mmproj, ok, err := ScanDir(modelsDir)
	if err != nil || !ok {
		return state.ModelRef{}, false
	}
	return state.ModelRef{ID: LegacyID, Path: model, MmprojPath: mmproj}, true
}

// legacyName derives a display name from the model file name.
func legacyName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" {
		return "Legacy Model"
	}
	return name
}

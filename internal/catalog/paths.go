package catalog

import (
	"path/filepath"
	"strings"

	"eigend/internal/common/fsutil"
	"eigend/internal/state"
)

// LegacyID names a model found directly in the models directory rather than
// in its own subdirectory.
const LegacyID = "legacy"

// ValidateID rejects ids that are empty or would resolve outside the models
// directory.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return invalidIDError{id: id}
	}
	return nil
}

// ModelDir is the directory holding the files of model id.
func ModelDir(modelsDir, id string) string {
	return filepath.Join(modelsDir, id)
}

// IsDownloaded reports whether every file of e is present on disk.
func IsDownloaded(modelsDir string, e Entry) bool {
	_, ok := ModelPaths(modelsDir, e)
	return ok
}

// ModelPaths returns the on-disk paths of e when all of its files exist.
func ModelPaths(modelsDir string, e Entry) (state.ModelRef, bool) {
	dir := ModelDir(modelsDir, e.ID)
	ref := state.ModelRef{ID: e.ID, Path: filepath.Join(dir, e.Files.Model.Filename)}
	if !fsutil.IsFile(ref.Path) {
		return state.ModelRef{}, false
	}
	if e.Files.Mmproj != nil {
		ref.MmprojPath = filepath.Join(dir, e.Files.Mmproj.Filename)
		if !fsutil.IsFile(ref.MmprojPath) {
			return state.ModelRef{}, false
		}
	}
	return ref, true
}

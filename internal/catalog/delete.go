package catalog

import (
	"fmt"
	"os"

	"eigend/internal/common/fsutil"
	"eigend/internal/state"
)

// Delete removes the files of a downloaded model. The model the server is
// serving and the legacy model cannot be deleted. Deleting a model that is
// not on disk is a no-op.
func (s *Source) Delete(rt *state.Runtime, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if m, ok := rt.CurrentModel(); ok && m.ID == id {
		return errDeleteActive
	}
	if id == LegacyID {
		return errDeleteLegacy
	}
	dir := ModelDir(s.modelsDir, id)
	if !fsutil.PathExists(dir) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove model %s: %w", id, err)
	}
	s.log.Info().Str("event", "model_deleted").Str("model", id).Msg("deleted model files")
	return nil
}

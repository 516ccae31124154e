package catalog

import (
	"os"

	"eigend/internal/state"
	"eigend/pkg/types"
)

// List reports every catalog model with its local status. A legacy flat
// layout model, when present, is listed first.
func (s *Source) List(rt *state.Runtime) ([]types.ModelInfo, error) {
	c, err := s.Load()
	if err != nil {
		return nil, err
	}
	current := ""
	if m, ok := rt.CurrentModel(); ok {
		current = m.ID
	}

	out := make([]types.ModelInfo, 0, len(c.Models)+1)
	if ref, ok := DetectLegacy(s.modelsDir); ok {
		out = append(out, legacyInfo(ref, current))
	}
	for _, e := range c.Models {
		info := types.ModelInfo{
			ID:           e.ID,
			Name:         e.Name,
			Description:  e.Description,
			SizeLabel:    e.SizeLabel,
			SizeBytes:    e.Files.TotalBytes(),
			Capabilities: e.Capabilities,
			IsCurrent:    e.ID == current,
		}
		if pct, ok := rt.Progress(e.ID); ok {
			info.Status = types.ModelStatusDownloading
			info.DownloadPercent = &pct
		} else if IsDownloaded(s.modelsDir, e) {
			info.Status = types.ModelStatusDownloaded
		} else {
			info.Status = types.ModelStatusNotDownloaded
		}
		out = append(out, info)
	}
	return out, nil
}

func legacyInfo(ref state.ModelRef, current string) types.ModelInfo {
	var size uint64
	for _, p := range []string{ref.Path, ref.MmprojPath} {
		if p == "" {
			continue
		}
		if st, err := os.Stat(p); err == nil {
			size += uint64(st.Size())
		}
	}
	return types.ModelInfo{
		ID:           LegacyID,
		Name:         legacyName(ref.Path),
		Description:  "Existing model from previous installation",
		SizeLabel:    "Unknown",
		SizeBytes:    size,
		Capabilities: types.ModelCapabilities{Vision: ref.MmprojPath != ""},
		Status:       types.ModelStatusDownloaded,
		IsCurrent:    current == LegacyID,
	}
}

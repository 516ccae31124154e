package catalog

import (
	"sync"

	"github.com/rs/zerolog"

	"eigend/internal/state"
)

// Source gives access to the catalog file and the models directory.
// The file is re-read on each call so edits take effect without a restart.
type Source struct {
	path      string
	bundled   string
	modelsDir string
	log       zerolog.Logger

	mu sync.Mutex // serializes create-on-first-use
}

// NewSource returns a Source for the catalog at path. bundled may name a
// catalog shipped with the daemon, copied to path on first use.
func NewSource(path, bundled, modelsDir string, log zerolog.Logger) *Source {
	return &Source{path: path, bundled: bundled, modelsDir: modelsDir, log: log}
}

// ModelsDir returns the root directory of installed models.
func (s *Source) ModelsDir() string { return s.modelsDir }

// Load returns the current catalog, creating the file when missing.
func (s *Source) Load() (Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadOrCreate(s.path, s.bundled)
}

// Lookup returns the catalog entry for id.
func (s *Source) Lookup(id string) (Entry, error) {
	if err := ValidateID(id); err != nil {
		return Entry{}, err
	}
	c, err := s.Load()
	if err != nil {
		return Entry{}, err
	}
	e, ok := c.Find(id)
	if !ok {
		return Entry{}, modelNotFoundError{id: id}
	}
	return e, nil
}

// Resolve maps a model id (catalog or legacy) to files on disk.
func (s *Source) Resolve(id string) (state.ModelRef, error) {
	if id == LegacyID {
		ref, ok := DetectLegacy(s.modelsDir)
		if !ok {
			return state.ModelRef{}, modelNotFoundError{id: id}
		}
		return ref, nil
	}
	e, err := s.Lookup(id)
	if err != nil {
		return state.ModelRef{}, err
	}
	ref, ok := ModelPaths(s.modelsDir, e)
	if !ok {
		return state.ModelRef{}, notDownloadedError{id: id}
	}
	return ref, nil
}

// ResolveStartup picks the model to serve at boot: the preferred id when it
// resolves, else the first downloaded catalog model, else a legacy model.
func (s *Source) ResolveStartup(preferredID string) (state.ModelRef, bool) {
	if preferredID != "" {
		ref, err := s.Resolve(preferredID)
		if err == nil {
			return ref, true
		}
		s.log.Warn().Str("event", "startup_model_unavailable").Str("model", preferredID).Err(err).Msg("default model unavailable")
	}
	c, err := s.Load()
	if err != nil {
		s.log.Warn().Str("event", "catalog_load_failed").Err(err).Msg("catalog")
	}
	for _, e := range c.Models {
		if ref, ok := ModelPaths(s.modelsDir, e); ok {
			return ref, true
		}
	}
	return DetectLegacy(s.modelsDir)
}

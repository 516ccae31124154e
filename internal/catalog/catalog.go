// Package catalog describes the downloadable models, where they live on disk
// and which of them are installed.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"eigend/internal/common/fsutil"
	"eigend/pkg/types"
)

// File is one downloadable artifact of a model.
type File struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	SizeBytes uint64 `json:"size_bytes"`
}

// Files groups the weights file and the optional vision projector.
type Files struct {
	Model  File  `json:"model"`
	Mmproj *File `json:"mmproj,omitempty"`
}

// List returns the files in download order.
func (f Files) List() []File {
	out := []File{f.Model}
	if f.Mmproj != nil {
		out = append(out, *f.Mmproj)
	}
	return out
}

// TotalBytes is the sum of the declared file sizes.
func (f Files) TotalBytes() uint64 {
	var n uint64
	for _, x := range f.List() {
		n += x.SizeBytes
	}
	return n
}

// Entry is one model of the catalog.
type Entry struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	SizeLabel    string                  `json:"size_label"`
	Capabilities types.ModelCapabilities `json:"capabilities"`
	Files        Files                   `json:"files"`
}

// Catalog is the JSON document listing downloadable models.
type Catalog struct {
	Version int     `json:"version"`
	Models  []Entry `json:"models"`
}

// Find returns the entry with the given id.
func (c Catalog) Find(id string) (Entry, bool) {
	for _, e := range c.Models {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Load reads and validates a catalog file.
func Load(path string) (Catalog, error) {
	var c Catalog
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for _, e := range c.Models {
		if err := ValidateID(e.ID); err != nil {
			return c, fmt.Errorf("catalog %s: %w", path, err)
		}
		for _, f := range e.Files.List() {
			if err := validateFilename(f.Filename); err != nil {
				return c, fmt.Errorf("catalog %s: model %s: %w", path, e.ID, err)
			}
		}
	}
	return c, nil
}

// LoadOrCreate loads the catalog at path. When it does not exist, the
// bundled catalog (if any) is copied there; otherwise an empty catalog is
// written.
func LoadOrCreate(path, bundled string) (Catalog, error) {
	if fsutil.PathExists(path) {
		return Load(path)
	}
	if bundled != "" && fsutil.IsFile(bundled) {
		b, err := os.ReadFile(bundled)
		if err != nil {
			return Catalog{}, fmt.Errorf("read bundled catalog: %w", err)
		}
		if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
			return Catalog{}, err
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return Catalog{}, fmt.Errorf("copy bundled catalog: %w", err)
		}
		return Load(path)
	}
	c := Catalog{Version: 1, Models: []Entry{}}
	return c, Save(path, c)
}

// Save writes the catalog as indented JSON.
func Save(path string, c Catalog) error {
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func validateFilename(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return errors.New("invalid file name: " + name)
	}
	return nil
}

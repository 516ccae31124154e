package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"eigend/internal/settings"
	"eigend/internal/state"
	"eigend/pkg/types"
)

const testCatalog = `{
  "version": 1,
  "models": [
    {
      "id": "qwen3-vl-4b",
      "name": "Qwen3 VL 4B",
      "description": "Vision model",
      "size_label": "3 GB",
      "capabilities": {"vision": true, "thinking": true},
      "files": {
        "model": {"filename": "model.gguf", "url": "http://x/model.gguf", "size_bytes": 100},
        "mmproj": {"filename": "mmproj.gguf", "url": "http://x/mmproj.gguf", "size_bytes": 50}
      }
    },
    {
      "id": "tiny",
      "name": "Tiny",
      "description": "Text only",
      "size_label": "1 GB",
      "capabilities": {"vision": false, "thinking": false},
      "files": {"model": {"filename": "tiny.gguf", "url": "http://x/tiny.gguf", "size_bytes": 10}}
    }
  ]
}`

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("gguf"), 0o644))
}

func newTestSource(t *testing.T) (*Source, string) {
	t.Helper()
	dir := t.TempDir()
	modelsDir := filepath.Join(dir, "models")
	bundled := filepath.Join(dir, "bundled.json")
	require.NoError(t, os.WriteFile(bundled, []byte(testCatalog), 0o644))
	return NewSource(filepath.Join(modelsDir, "model-catalog.json"), bundled, modelsDir, zerolog.Nop()), modelsDir
}

func newRuntime(modelsDir string) *state.Runtime {
	return state.New("http://127.0.0.1:8080", modelsDir, settings.Default())
}

func TestLoadOrCreate_CopiesBundled(t *testing.T) {
	src, modelsDir := newTestSource(t)
	c, err := src.Load()
	require.NoError(t, err)
	require.Len(t, c.Models, 2)
	require.FileExists(t, filepath.Join(modelsDir, "model-catalog.json"))
}

func TestLoadOrCreate_EmptyWhenNoBundled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.json")
	c, err := LoadOrCreate(path, "")
	require.NoError(t, err)
	require.Equal(t, 1, c.Version)
	require.Empty(t, c.Models)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, c.Version, again.Version)
}

func TestLoad_RejectsTraversal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.json")
	bad := `{"version":1,"models":[{"id":"../x","files":{"model":{"filename":"a.gguf"}}}]}`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, IsInvalidID(err))

	bad = `{"version":1,"models":[{"id":"x","files":{"model":{"filename":"../a.gguf"}}}]}`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestIsDownloaded_RequiresProjector(t *testing.T) {
	src, modelsDir := newTestSource(t)
	e, err := src.Lookup("qwen3-vl-4b")
	require.NoError(t, err)

	require.False(t, IsDownloaded(modelsDir, e))
	touch(t, filepath.Join(modelsDir, "qwen3-vl-4b", "model.gguf"))
	require.False(t, IsDownloaded(modelsDir, e), "projector missing")
	touch(t, filepath.Join(modelsDir, "qwen3-vl-4b", "mmproj.gguf"))
	require.True(t, IsDownloaded(modelsDir, e))

	ref, ok := ModelPaths(modelsDir, e)
	require.True(t, ok)
	require.Equal(t, filepath.Join(modelsDir, "qwen3-vl-4b", "mmproj.gguf"), ref.MmprojPath)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b-model.GGUF"))
	touch(t, filepath.Join(dir, "a-mmproj-f16.gguf"))
	touch(t, filepath.Join(dir, "c-model.gguf"))
	touch(t, filepath.Join(dir, "notes.txt"))

	model, mmproj, ok, err := ScanDir(dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b-model.GGUF", filepath.Base(model))
	require.Equal(t, "a-mmproj-f16.gguf", filepath.Base(mmproj))

	_, _, ok, err = ScanDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestList_StatusPrecedenceAndLegacy(t *testing.T) {
	src, modelsDir := newTestSource(t)
	rt := newRuntime(modelsDir)

	touch(t, filepath.Join(modelsDir, "tiny", "tiny.gguf"))
	touch(t, filepath.Join(modelsDir, "old-model.gguf"))
	_, ok := rt.RegisterDownload("qwen3-vl-4b")
	require.True(t, ok)
	rt.SetProgress("qwen3-vl-4b", 42.5)
	rt.SetCurrentModel(state.ModelRef{ID: "tiny", Path: filepath.Join(modelsDir, "tiny", "tiny.gguf")})

	list, err := src.List(rt)
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.Equal(t, LegacyID, list[0].ID)
	require.Equal(t, "old-model", list[0].Name)
	require.Equal(t, types.ModelStatusDownloaded, list[0].Status)
	require.False(t, list[0].Capabilities.Vision)

	require.Equal(t, types.ModelStatusDownloading, list[1].Status)
	require.NotNil(t, list[1].DownloadPercent)
	require.InDelta(t, 42.5, *list[1].DownloadPercent, 0.001)
	require.Equal(t, uint64(150), list[1].SizeBytes)

	require.Equal(t, types.ModelStatusDownloaded, list[2].Status)
	require.True(t, list[2].IsCurrent)
}

func TestDelete_Policy(t *testing.T) {
	src, modelsDir := newTestSource(t)
	rt := newRuntime(modelsDir)
	touch(t, filepath.Join(modelsDir, "tiny", "tiny.gguf"))
	rt.SetCurrentModel(state.ModelRef{ID: "tiny"})

	err := src.Delete(rt, "tiny")
	require.True(t, IsActiveModel(err))
	require.EqualError(t, err, "Cannot delete the currently active model")
	require.DirExists(t, filepath.Join(modelsDir, "tiny"))

	err = src.Delete(rt, LegacyID)
	require.True(t, IsPolicy(err))
	require.False(t, IsActiveModel(err))

	rt.SetCurrentModel(state.ModelRef{ID: "qwen3-vl-4b"})
	require.NoError(t, src.Delete(rt, "tiny"))
	require.NoDirExists(t, filepath.Join(modelsDir, "tiny"))
	require.NoError(t, src.Delete(rt, "tiny"), "second delete is a no-op")

	require.True(t, IsInvalidID(src.Delete(rt, "..")))
}

func TestResolve(t *testing.T) {
	src, modelsDir := newTestSource(t)

	_, err := src.Resolve("nope")
	require.True(t, IsModelNotFound(err))
	_, err = src.Resolve("tiny")
	require.True(t, IsNotDownloaded(err))
	_, err = src.Resolve(LegacyID)
	require.True(t, IsModelNotFound(err))

	touch(t, filepath.Join(modelsDir, "tiny", "tiny.gguf"))
	ref, err := src.Resolve("tiny")
	require.NoError(t, err)
	require.Equal(t, "tiny", ref.ID)
	require.Empty(t, ref.MmprojPath)
}

func TestResolveStartup(t *testing.T) {
	src, modelsDir := newTestSource(t)

	_, ok := src.ResolveStartup("")
	require.False(t, ok)

	touch(t, filepath.Join(modelsDir, "legacy.gguf"))
	ref, ok := src.ResolveStartup("tiny")
	require.True(t, ok)
	require.Equal(t, LegacyID, ref.ID)

	touch(t, filepath.Join(modelsDir, "tiny", "tiny.gguf"))
	ref, ok = src.ResolveStartup("")
	require.True(t, ok)
	require.Equal(t, "tiny", ref.ID)

	touch(t, filepath.Join(modelsDir, "qwen3-vl-4b", "model.gguf"))
	touch(t, filepath.Join(modelsDir, "qwen3-vl-4b", "mmproj.gguf"))
	ref, ok = src.ResolveStartup("tiny")
	require.True(t, ok)
	require.Equal(t, "tiny", ref.ID)
	ref, ok = src.ResolveStartup("")
	require.True(t, ok)
	require.Equal(t, "qwen3-vl-4b", ref.ID, "catalog order wins")
}

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileCreatesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "settings.json")
	s, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, Default(), s)
	_, err = os.Stat(p)
	require.NoError(t, err, "defaults should be written to disk")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.json")
	s := Default()
	s.Defaults.ModelID = "qwen3-vl-4b"
	s.Appearance.Theme = "light"
	s = s.WithTool("calculator", true)
	require.NoError(t, Save(p, s))

	got, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestLoad_FillsMissingFields(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"version":1,"behavior":{"sendOnEnter":false}}`), 0o644))
	s, err := Load(p)
	require.NoError(t, err)
	require.False(t, s.Behavior.SendOnEnter)
	require.Equal(t, uint32(DefaultContextLength), s.Behavior.ContextLength)
	require.Equal(t, uint32(DefaultMaxTokens), s.Behavior.MaxTokens)
	require.Equal(t, DefaultSystemPrompt, s.Defaults.SystemPrompt)
	require.NotNil(t, s.Tools.EnabledTools)
}

func TestLoad_InvalidJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(p, []byte(`{not json`), 0o644))
	_, err := Load(p)
	require.Error(t, err)
}

func TestWithTool(t *testing.T) {
	s := Default()
	on := s.WithTool("shell", true).WithTool("shell", true)
	require.Equal(t, []string{"shell"}, on.Tools.EnabledTools)
	require.True(t, on.ToolEnabled("shell"))
	require.False(t, s.ToolEnabled("shell"), "original must not be mutated")

	off := on.WithTool("shell", false)
	require.Empty(t, off.Tools.EnabledTools)
	require.True(t, on.ToolEnabled("shell"))
}

func TestNormalized_DoesNotAliasInput(t *testing.T) {
	in := AppSettings{Tools: Tools{EnabledTools: []string{"shell"}}}
	out := in.Normalized()
	require.Equal(t, uint32(DefaultContextLength), out.Behavior.ContextLength)
	require.Equal(t, 1, out.Version)
	out.Tools.EnabledTools[0] = "calculator"
	require.Equal(t, "shell", in.Tools.EnabledTools[0])
	require.Zero(t, in.Behavior.ContextLength)
}

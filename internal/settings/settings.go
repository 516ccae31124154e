// Package settings holds the user-editable application settings persisted as
// a single JSON document.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// DefaultSystemPrompt is used when the user has not customised the prompt.
const DefaultSystemPrompt = `You are Eigen, a helpful AI assistant.

Rules:
- Use Markdown for formatting.
- Use LaTeX ($...$ / $$...$$) for math.
- If you don't know, say "I don't know".`

const (
	// DefaultContextLength is passed to llama-server as --ctx-size.
	DefaultContextLength = 8192
	// DefaultMaxTokens caps a single completion.
	DefaultMaxTokens = 8192
	currentVersion   = 1
)

type Appearance struct {
	Theme       string `json:"theme" validate:"omitempty,oneof=dark light system"`
	AccentColor string `json:"accentColor"`
	FontSize    string `json:"fontSize"`
}

type Defaults struct {
	// Model started at boot; empty means pick the first downloaded model.
	ModelID      string `json:"modelId,omitempty"`
	SystemPrompt string `json:"systemPrompt"`
}

type Behavior struct {
	SendOnEnter      bool   `json:"sendOnEnter"`
	StreamingEnabled bool   `json:"streamingEnabled"`
	ContextLength    uint32 `json:"contextLength" validate:"omitempty,min=256,max=1048576"`
	MaxTokens        uint32 `json:"maxTokens" validate:"omitempty,min=16,max=1048576"`
}

type Tools struct {
	EnabledTools []string `json:"enabledTools"`
}

// AppSettings is the whole settings document.
type AppSettings struct {
	Version    int        `json:"version"`
	Appearance Appearance `json:"appearance"`
	Defaults   Defaults   `json:"defaults"`
	Behavior   Behavior   `json:"behavior"`
	Tools      Tools      `json:"tools"`
}

// Default returns the settings used on first start and after a reset.
func Default() AppSettings {
	return AppSettings{
		Version: currentVersion,
		Appearance: Appearance{
			Theme:       "dark",
			AccentColor: "#3b82f6",
			FontSize:    "medium",
		},
		Defaults: Defaults{SystemPrompt: DefaultSystemPrompt},
		Behavior: Behavior{
			SendOnEnter:      true,
			StreamingEnabled: true,
			ContextLength:    DefaultContextLength,
			MaxTokens:        DefaultMaxTokens,
		},
		Tools: Tools{EnabledTools: []string{}},
	}
}

// Clone returns a deep copy safe to hand out across goroutines.
func (s AppSettings) Clone() AppSettings {
	out := s
	out.Tools.EnabledTools = slices.Clone(s.Tools.EnabledTools)
	if out.Tools.EnabledTools == nil {
		out.Tools.EnabledTools = []string{}
	}
	return out
}

// ToolEnabled reports whether id is in the enabled tool list.
func (s AppSettings) ToolEnabled(id string) bool {
	return slices.Contains(s.Tools.EnabledTools, id)
}

// WithTool returns a copy with the tool enabled or disabled.
func (s AppSettings) WithTool(id string, enabled bool) AppSettings {
	out := s.Clone()
	idx := slices.Index(out.Tools.EnabledTools, id)
	switch {
	case enabled && idx < 0:
		out.Tools.EnabledTools = append(out.Tools.EnabledTools, id)
	case !enabled && idx >= 0:
		out.Tools.EnabledTools = slices.Delete(out.Tools.EnabledTools, idx, idx+1)
	}
	return out
}

// Normalized returns a copy with missing fields filled from the defaults.
func (s AppSettings) Normalized() AppSettings {
	out := s.Clone()
	out.normalize()
	return out
}

// normalize fills zero numeric fields that older documents may lack.
func (s *AppSettings) normalize() {
	if s.Version == 0 {
		s.Version = currentVersion
	}
	if s.Behavior.ContextLength == 0 {
		s.Behavior.ContextLength = DefaultContextLength
	}
	if s.Behavior.MaxTokens == 0 {
		s.Behavior.MaxTokens = DefaultMaxTokens
	}
	if s.Tools.EnabledTools == nil {
		s.Tools.EnabledTools = []string{}
	}
}

// Load reads settings from path. A missing file is created with defaults.
func Load(path string) (AppSettings, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := Default()
		if err := Save(path, s); err != nil {
			return s, err
		}
		return s, nil
	}
	if err != nil {
		return AppSettings{}, fmt.Errorf("read settings: %w", err)
	}
	s := Default()
	if err := json.Unmarshal(b, &s); err != nil {
		return AppSettings{}, fmt.Errorf("parse settings: %w", err)
	}
	s.normalize()
	return s, nil
}

// Save writes settings to path atomically.
func Save(path string, s AppSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

package app

import (
	"fmt"

	"eigend/internal/settings"
	"eigend/internal/tools"
	"eigend/pkg/types"
)

// Settings returns a copy of the current settings.
func (a *App) Settings() settings.AppSettings { return a.rt.Settings() }

// SaveSettings persists s and makes it current. Running turns and the
// running server keep the values they started with.
func (a *App) SaveSettings(s settings.AppSettings) (settings.AppSettings, error) {
	a.settingsMu.Lock()
	defer a.settingsMu.Unlock()
	return a.saveLocked(s)
}

// ResetSettings restores and persists the defaults.
func (a *App) ResetSettings() (settings.AppSettings, error) {
	a.settingsMu.Lock()
	defer a.settingsMu.Unlock()
	return a.saveLocked(settings.Default())
}

func (a *App) saveLocked(s settings.AppSettings) (settings.AppSettings, error) {
	s = s.Normalized()
	if err := settings.Save(a.settingsPath, s); err != nil {
		return settings.AppSettings{}, err
	}
	a.rt.SetSettings(s)
	a.log.Info().Str("event", "settings_saved").Msg("settings updated")
	return s, nil
}

// Tools lists every built-in tool with its enabled flag.
func (a *App) Tools() []types.ToolInfo {
	return tools.Infos(a.rt.Settings().Tools.EnabledTools)
}

// SetToolEnabled enables or disables a tool and persists the change.
func (a *App) SetToolEnabled(id string, enabled bool) error {
	if _, ok := tools.Get(id); !ok {
		return unknownToolError{id: id}
	}
	a.settingsMu.Lock()
	defer a.settingsMu.Unlock()
	if _, err := a.saveLocked(a.rt.Settings().WithTool(id, enabled)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	a.log.Info().Str("event", "tool_toggled").Str("tool", id).Bool("enabled", enabled).Msg("tool updated")
	return nil
}

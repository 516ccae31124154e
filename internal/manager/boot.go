package manager

import (
	"context"

	"eigend/internal/events"
	"eigend/pkg/types"
)

// Resolver picks the model to serve at startup.
type Resolver interface {
	// ResolveStartup returns the preferred model when it is downloaded,
	// otherwise the first downloaded model, otherwise a legacy flat file.
	ResolveStartup(preferredID string) (Target, bool)
}

// Boot selects the startup model and starts serving it in the background.
// It returns the chosen target, or false when no model is installed, in
// which case model:no_model is emitted and nothing is spawned.
func (m *Manager) Boot(ctx context.Context, r Resolver) (Target, bool) {
	preferred := m.rt.Settings().Defaults.ModelID
	t, ok := r.ResolveStartup(preferred)
	if !ok {
		m.log.Info().Str("event", "no_model").Msg("no model installed; starting without llama-server")
		m.pub.Publish(events.Event{Name: events.ModelNoModel, Payload: types.ModelStatePayload{}})
		return Target{}, false
	}
	m.rt.SetCurrentModel(t)
	m.pub.Publish(events.Event{Name: events.ModelLoading, Payload: types.ModelStatePayload{ModelID: t.ID}})
	go func() {
		if err := m.StartOrSwitch(ctx, t); err != nil {
			m.pub.Publish(events.Event{Name: events.ModelError, Payload: types.ModelStatePayload{ModelID: t.ID, Error: err.Error()}})
		}
	}()
	return t, true
}

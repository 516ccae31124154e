package app

import (
	"context"

	"eigend/internal/events"
	"eigend/internal/manager"
	"eigend/pkg/types"
)

// Status reports the inference server lifecycle and active downloads.
func (a *App) Status() types.StatusResponse { return a.mgr.Status() }

// Ready reports whether the inference server is accepting requests.
func (a *App) Ready() bool { return a.rt.Ready() }

// SanityCheck reports whether the llama-server binary is resolvable.
func (a *App) SanityCheck() manager.SanityReport { return a.mgr.SanityCheck() }

// ListModels returns catalog and legacy models with their local status.
func (a *App) ListModels() ([]types.ModelInfo, error) { return a.catalog.List(a.rt) }

// CurrentModel returns the model the server was last asked to serve.
func (a *App) CurrentModel() types.CurrentModelResponse {
	id, _ := a.mgr.CurrentModel()
	return types.CurrentModelResponse{ModelID: id, Ready: a.rt.Ready()}
}

// SwitchModel resolves modelID and restarts the inference server with it,
// blocking until it is ready or fails. The switch is not abandoned when
// the caller goes away; only shutdown interrupts it.
func (a *App) SwitchModel(ctx context.Context, modelID string) error {
	t, err := a.catalog.Resolve(modelID)
	if err != nil {
		return err
	}
	a.log.Info().Str("event", "switch_requested").Str("model", modelID).Msg("switching model")
	done := make(chan error, 1)
	go func() { done <- a.mgr.StartOrSwitch(a.base, t) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Caller left; the switch completes in the background and reports
		// through model:switching events.
		return ctx.Err()
	}
}

// StartDownload begins downloading a catalog model in the background.
// Progress and outcome are reported through download:* events.
func (a *App) StartDownload(modelID string) error {
	return a.dl.Start(a.base, modelID)
}

// CancelDownload requests cancellation of an in-flight download.
func (a *App) CancelDownload(modelID string) bool { return a.dl.Cancel(modelID) }

// DeleteModel removes a downloaded catalog model. The active model and
// the legacy model are rejected.
func (a *App) DeleteModel(modelID string) error {
	if err := a.catalog.Delete(a.rt, modelID); err != nil {
		return err
	}
	a.pub.Publish(events.Event{Name: events.ModelsChanged, Payload: struct{}{}})
	return nil
}

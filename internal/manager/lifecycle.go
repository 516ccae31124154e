package manager

import (
	"context"

	"eigend/internal/events"
	"eigend/internal/metrics"
	"eigend/pkg/types"
)

// StartOrSwitch stops the running subprocess (if any), records t as the
// current model and starts a new llama-server for it, blocking until the
// server is healthy, the startup timeout elapses, or ctx is done.
//
// Readiness is cleared before the old process is touched, so no caller ever
// observes ready=true for the wrong model. The current model is recorded
// before spawning, so a failed attempt still reports what was intended.
func (m *Manager) StartOrSwitch(ctx context.Context, t Target) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	m.rt.SetReady(false)
	metrics.SetReady(false)
	if old := m.rt.SwapProcess(nil); old != nil {
		m.publishSwitch(t.ID, SwitchStopping, nil)
		if err := old.Terminate(); err != nil {
			m.log.Warn().Str("event", "stop_failed").Int("pid", old.Pid()).Err(err).Msg("previous llama-server may leak")
		} else {
			m.log.Info().Str("event", "spawn_stop").Int("pid", old.Pid()).Msg("previous llama-server stopped")
		}
	}

	m.rt.SetCurrentModel(t)
	m.setPhase(PhaseStarting, "")
	m.publishSwitch(t.ID, SwitchStarting, nil)

	p, err := m.spawn(t, m.rt.Settings())
	if err != nil {
		m.fail(t, err)
		return err
	}
	m.rt.SwapProcess(p)
	m.setPhase(PhaseProbing, "")

	if err := m.probeUntilReady(ctx, m.startupTimeout, p); err != nil {
		// Do not leave a half-started server holding the port.
		if m.rt.Process() == p {
			m.rt.SwapProcess(nil)
		}
		if terr := p.Terminate(); terr != nil {
			m.log.Warn().Int("pid", p.pid).Err(terr).Msg("terminate after failed start")
		}
		m.fail(t, err)
		return err
	}
	if !m.markReady(p) {
		// Stop ran while we were probing.
		metrics.ServerSwitchesTotal.WithLabelValues(metrics.OutcomeCancelled).Inc()
		return errNotRunning
	}
	metrics.ServerSwitchesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	m.publishSwitch(t.ID, SwitchReady, nil)
	return nil
}

// Stop terminates the running subprocess. It is idempotent.
func (m *Manager) Stop() error {
	m.rt.SetReady(false)
	metrics.SetReady(false)
	old := m.rt.SwapProcess(nil)
	if old == nil {
		return nil
	}
	m.setPhase(PhaseStopped, "")
	if err := old.Terminate(); err != nil {
		m.log.Warn().Str("event", "stop_failed").Int("pid", old.Pid()).Err(err).Msg("stop llama-server")
		return err
	}
	m.log.Info().Str("event", "spawn_stop").Int("pid", old.Pid()).Msg("llama-server stopped")
	return nil
}

func (m *Manager) fail(t Target, err error) {
	m.setPhase(PhaseFailed, err.Error())
	metrics.ServerSwitchesTotal.WithLabelValues(metrics.OutcomeError).Inc()
	m.log.Error().Str("event", "spawn_failed").Str("model", t.ID).Err(err).Msg("llama-server did not become ready")
	msg := err.Error()
	m.publishSwitch(t.ID, SwitchError, &msg)
}

func (m *Manager) publishSwitch(modelID, status string, errMsg *string) {
	m.pub.Publish(events.Event{
		Name:    events.ModelSwitching,
		Payload: types.ModelSwitchPayload{ModelID: modelID, Status: status, Error: errMsg},
	})
}

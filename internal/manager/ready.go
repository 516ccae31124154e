package manager

import (
	"context"
	"net/http"
	"time"

	"eigend/internal/events"
	"eigend/internal/metrics"
	"eigend/pkg/types"
)

const maxProbeTimeout = 2 * time.Second

// WaitUntilReady probes the running subprocess until its health endpoint
// answers 2xx or timeout elapses. On success it marks the runtime ready and
// emits model:ready.
func (m *Manager) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	p, _ := m.rt.Process().(*llamaProcess)
	if p == nil {
		return errNotRunning
	}
	if err := m.probeUntilReady(ctx, timeout, p); err != nil {
		return err
	}
	m.markReady(p)
	return nil
}

// markReady flips readiness if p is still the installed process.
func (m *Manager) markReady(p *llamaProcess) bool {
	if m.rt.Process() != p {
		return false
	}
	m.rt.SetReady(true)
	metrics.SetReady(true)
	m.setPhase(PhaseReady, "")
	model, _ := m.rt.CurrentModel()
	m.log.Info().Str("event", "spawn_ready").Str("model", model.ID).Int("pid", p.pid).
		Str("url", m.rt.ServerAddress()).Msg("llama-server ready")
	m.pub.Publish(events.Event{Name: events.ModelReady, Payload: types.ModelStatePayload{ModelID: model.ID}})
	return true
}

// probeUntilReady polls GET <addr>/health every probe interval. A refused
// connection and a non-2xx answer are retried identically; only the deadline
// ends the loop. If p is non-nil, its exit aborts the wait early.
func (m *Manager) probeUntilReady(ctx context.Context, timeout time.Duration, p *llamaProcess) error {
	if timeout <= 0 {
		timeout = m.startupTimeout
	}
	var exited <-chan struct{}
	if p != nil {
		exited = p.done
	}
	healthURL := m.rt.ServerAddress() + "/health"
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()
	for {
		if m.probeOnce(ctx, healthURL) {
			return nil
		}
		if time.Now().After(deadline) {
			return startupTimeoutError{addr: m.rt.ServerAddress(), timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return exitedEarlyError{err: p.waitErr, tail: p.stderr.Tail()}
		case <-ticker.C:
		}
	}
}

func (m *Manager) probeOnce(ctx context.Context, healthURL string) bool {
	pt := 2 * m.probeInterval
	if pt > maxProbeTimeout {
		pt = maxProbeTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, pt)
	defer cancel()
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

package manager

import (
	"net/http"
	"sync"
	"time"

	"eigend/internal/events"
	"eigend/internal/state"

	"github.com/rs/zerolog"
)

// Manager owns the llama-server subprocess lifecycle.
type Manager struct {
	rt  *state.Runtime
	pub events.Publisher
	log zerolog.Logger

	llamaBin       string
	extraArgs      []string
	startupTimeout time.Duration
	probeInterval  time.Duration
	stopGrace      time.Duration
	httpClient     *http.Client

	// switchMu serialises StartOrSwitch calls so two switches never race
	// to install processes. Stop does not take it.
	switchMu sync.Mutex

	mu        sync.RWMutex
	phase     Phase
	err       string
	startTime time.Time
}

// Ready reports whether the server passed its health probe.
func (m *Manager) Ready() bool { return m.rt.Ready() }

// CurrentModel returns the id of the model most recently requested.
func (m *Manager) CurrentModel() (string, bool) {
	ref, ok := m.rt.CurrentModel()
	if !ok {
		return "", false
	}
	return ref.ID, true
}

// StartupTimeout is the default readiness deadline used by StartOrSwitch.
func (m *Manager) StartupTimeout() time.Duration { return m.startupTimeout }

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	model, has := m.rt.CurrentModel()
	pid := 0
	if p := m.rt.Process(); p != nil {
		pid = p.Pid()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Phase: m.phase, Model: model, HasModel: has, PID: pid, Err: m.err}
}

func (m *Manager) setPhase(p Phase, errMsg string) {
	m.mu.Lock()
	m.phase = p
	m.err = errMsg
	m.mu.Unlock()
}

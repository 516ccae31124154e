package manager

import (
	"net/http"
	"time"

	"eigend/internal/events"
	"eigend/internal/state"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultLlamaBin       = "llama-server"
	defaultStartupTimeout = 120 * time.Second
	defaultProbeInterval  = 500 * time.Millisecond
	defaultStopGrace      = 2 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Runtime is required; the subprocess listens on its ServerAddress.
	Runtime   *state.Runtime
	Publisher events.Publisher
	Logger    *zerolog.Logger

	LlamaBin       string
	LlamaExtraArgs []string
	StartupTimeout time.Duration
	ProbeInterval  time.Duration
	// StopGrace is how long Stop waits after SIGTERM before killing.
	StopGrace time.Duration
	// HTTPClient is used for health probes. Requests carry their own deadlines.
	HTTPClient *http.Client
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.Runtime == nil {
		panic("manager: ManagerConfig.Runtime is required")
	}
	m := &Manager{
		rt:        cfg.Runtime,
		pub:       events.Safe(cfg.Publisher),
		log:       zerolog.Nop(),
		phase:     PhaseStopped,
		startTime: time.Now(),
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	m.llamaBin = cfg.LlamaBin
	if m.llamaBin == "" {
		m.llamaBin = defaultLlamaBin
	}
	m.extraArgs = append([]string(nil), cfg.LlamaExtraArgs...)
	m.startupTimeout = cfg.StartupTimeout
	if m.startupTimeout <= 0 {
		m.startupTimeout = defaultStartupTimeout
	}
	m.probeInterval = cfg.ProbeInterval
	if m.probeInterval <= 0 {
		m.probeInterval = defaultProbeInterval
	}
	m.stopGrace = cfg.StopGrace
	if m.stopGrace <= 0 {
		m.stopGrace = defaultStopGrace
	}
	m.httpClient = cfg.HTTPClient
	if m.httpClient == nil {
		// Timeout=0: every probe carries a context deadline.
		m.httpClient = &http.Client{Timeout: 0}
	}
	return m
}

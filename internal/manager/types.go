package manager

import "eigend/internal/state"

// Phase is the lifecycle phase of the most recent serving attempt.
type Phase string

const (
	PhaseStopped  Phase = "stopped"
	PhaseStarting Phase = "starting"
	PhaseProbing  Phase = "probing"
	PhaseReady    Phase = "ready"
	PhaseFailed   Phase = "failed"
)

// Target is the model a StartOrSwitch call should serve.
type Target = state.ModelRef

// Status values carried by model:switching events.
const (
	SwitchStopping = "stopping"
	SwitchStarting = "starting"
	SwitchReady    = "ready"
	SwitchError    = "error"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	Phase    Phase
	Model    Target
	HasModel bool
	PID      int
	Err      string
}

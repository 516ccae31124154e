// Package manager supervises the llama-server subprocess that serves the
// currently selected model. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: lifecycle phases and the switch target.
//   - errors.go: error types and predicates (IsSpawnFailed, IsStartupTimeout, ...).
//   - process.go: spawning, output draining and termination of the subprocess.
//   - lifecycle.go: StartOrSwitch and Stop.
//   - ready.go: health probing (WaitUntilReady).
//   - boot.go: startup model selection.
//   - status_report.go, sanity.go: read-only reporting.
//
// All shared state lives in state.Runtime; the manager only mutates the
// process handle, the readiness flag and the current model.
package manager

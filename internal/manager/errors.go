package manager

import (
	"errors"
	"fmt"
	"time"
)

// spawnFailedError signals that the llama-server binary could not be started
// (missing binary, bad permissions). The HTTP layer maps it to 503.
type spawnFailedError struct {
	bin string
	err error
}

func (e spawnFailedError) Error() string {
	return fmt.Sprintf("failed to spawn llama-server (%s): %v", e.bin, e.err)
}

func (e spawnFailedError) Unwrap() error { return e.err }

// IsSpawnFailed reports whether err indicates the subprocess could not be started.
func IsSpawnFailed(err error) bool {
	var e spawnFailedError
	return errors.As(err, &e)
}

// startupTimeoutError signals the health probe never succeeded in time.
type startupTimeoutError struct {
	addr    string
	timeout time.Duration
}

func (e startupTimeoutError) Error() string {
	return fmt.Sprintf("server startup timeout: %s not healthy after %s", e.addr, e.timeout)
}

// IsStartupTimeout reports whether err is a readiness timeout.
func IsStartupTimeout(err error) bool {
	var e startupTimeoutError
	return errors.As(err, &e)
}

// exitedEarlyError signals that the subprocess exited before becoming ready.
type exitedEarlyError struct {
	err  error
	tail string
}

func (e exitedEarlyError) Error() string {
	msg := "llama-server exited before ready"
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	if e.tail != "" {
		msg += "; output tail: " + e.tail
	}
	return msg
}

func (e exitedEarlyError) Unwrap() error { return e.err }

// IsExitedEarly reports whether the subprocess died during startup.
func IsExitedEarly(err error) bool {
	var e exitedEarlyError
	return errors.As(err, &e)
}

// errNotRunning is returned by WaitUntilReady when there is nothing to probe.
var errNotRunning = errors.New("llama-server is not running")

// IsNotRunning reports whether err indicates no subprocess is running.
func IsNotRunning(err error) bool { return errors.Is(err, errNotRunning) }

package manager

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"eigend/internal/settings"
)

// llamaProcess is a spawned llama-server. It implements state.ProcessHandle.
type llamaProcess struct {
	cmd    *exec.Cmd
	pid    int
	grace  time.Duration
	stderr *lineLogger

	done    chan struct{}
	waitErr error
}

func (p *llamaProcess) Pid() int { return p.pid }

// Exited is closed once the process has been reaped.
func (p *llamaProcess) Exited() <-chan struct{} { return p.done }

// Terminate sends SIGTERM, waits up to the grace period, then kills.
// Calling it on an exited process is a no-op.
func (p *llamaProcess) Terminate() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// SIGTERM is unsupported on some platforms; go straight to kill.
		return p.kill()
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(p.grace):
		return p.kill()
	}
}

func (p *llamaProcess) kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill llama-server pid %d: %w", p.pid, err)
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(p.grace):
		return fmt.Errorf("llama-server pid %d did not exit after kill", p.pid)
	}
}

// buildArgs returns the llama-server command line for t.
func buildArgs(host, port string, t Target, s settings.AppSettings, extra []string) []string {
	args := []string{
		"-m", t.Path,
		"--host", host,
		"--port", port,
		"--ctx-size", strconv.FormatUint(uint64(s.Behavior.ContextLength), 10),
		"--n-predict", strconv.FormatUint(uint64(s.Behavior.MaxTokens), 10),
	}
	if t.MmprojPath != "" {
		args = append(args, "--mmproj", t.MmprojPath)
	}
	return append(args, extra...)
}

// hostPort splits the runtime server address into the values passed to
// --host and --port.
func hostPort(addr string) (string, string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", "", fmt.Errorf("parse server address %q: %w", addr, err)
	}
	host, port := u.Hostname(), u.Port()
	if host == "" || port == "" {
		return "", "", fmt.Errorf("server address %q must include host and port", addr)
	}
	return host, port, nil
}

// spawn starts llama-server for t. Output is drained for the whole life of
// the process by the exec package's copy goroutines.
func (m *Manager) spawn(t Target, s settings.AppSettings) (*llamaProcess, error) {
	host, port, err := hostPort(m.rt.ServerAddress())
	if err != nil {
		return nil, spawnFailedError{bin: m.llamaBin, err: err}
	}
	args := buildArgs(host, port, t, s, m.extraArgs)
	cmd := exec.Command(m.llamaBin, args...)
	procLog := m.log.With().Str("component", "llama-server").Logger()
	stderr := newLineLogger(procLog, "stderr")
	cmd.Stdout = newLineLogger(procLog, "stdout")
	cmd.Stderr = stderr
	cmd.WaitDelay = m.stopGrace
	if err := cmd.Start(); err != nil {
		return nil, spawnFailedError{bin: m.llamaBin, err: err}
	}
	p := &llamaProcess{
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		grace:  m.stopGrace,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	m.log.Info().Str("event", "spawn_start").Str("model", t.ID).Str("path", t.Path).
		Int("pid", p.pid).Str("host", host).Str("port", port).Msg("llama-server started")
	return p, nil
}

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"
)

const maxShellOutput = 100_000

var dangerousPatterns = []string{
	"rm -rf /",
	"rm -rf ~",
	"mkfs",
	"dd if=",
	":(){:|:&};:",
	"chmod -r 777 /",
	"chown -r",
	"> /dev/sd",
	"curl | sh",
	"curl | bash",
	"wget | sh",
	"wget | bash",
}

func (e *Executor) shell(ctx context.Context, callID string, a args) Result {
	command, ok := a.str("command")
	if !ok {
		return missing(callID, "command")
	}
	lower := strings.ToLower(command)
	for _, p := range dangerousPatterns {
		if strings.Contains(lower, p) {
			return failure(callID, "Blocked potentially dangerous command pattern: %s", p)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.shellTimeout)
	defer cancel()
	name, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		name, flag = "cmd", "/C"
	}
	cmd := exec.CommandContext(ctx, name, flag, command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			return failure(callID, "Command timed out after %d seconds", int(e.shellTimeout.Seconds()))
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		default:
			return failure(callID, "Failed to spawn command: %v", err)
		}
	}
	e.log.Debug().Str("event", "shell_exit").Int("exit_code", exitCode).Msg("shell command finished")
	return success(callID, shellOutput(stdout.String(), stderr.String(), exitCode))
}

// shellOutput merges both streams and notes a non-zero exit code. A
// failing command is still a successful tool call.
func shellOutput(stdout, stderr string, exitCode int) string {
	out := stdout
	if stderr != "" {
		if out != "" {
			out += "\n\n--- stderr ---\n"
		}
		out += stderr
	}
	if out == "" {
		out = fmt.Sprintf("Command completed with exit code %d", exitCode)
	} else if exitCode != 0 {
		out += fmt.Sprintf("\n\nExit code: %d", exitCode)
	}
	if len(out) > maxShellOutput {
		cut := maxShellOutput
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + "\n\n... (output truncated)"
	}
	return out
}

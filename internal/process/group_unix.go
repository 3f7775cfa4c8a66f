//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// IsolateGroup runs cmd in its own process group and makes context
// cancellation kill the whole group, not just the direct child. A
// renderer that forks helpers would otherwise survive a canceled run.
// cmd must carry a context (exec.CommandContext).
func IsolateGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return os.ErrProcessDone
		}
		// Best-effort group kill (negative PID targets the group).
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		return os.ErrProcessDone
	}
}

//go:build windows

package process

import (
	"os"
	"os/exec"
	"strconv"
)

// IsolateGroup makes context cancellation terminate the child and its
// descendants. Windows lacks POSIX process groups; taskkill /T walks
// the process tree instead.
// cmd must carry a context (exec.CommandContext).
func IsolateGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return os.ErrProcessDone
		}
		// Best-effort tree kill. /F = force, /T = include children.
		_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(cmd.Process.Pid)).Run()
		return os.ErrProcessDone
	}
}

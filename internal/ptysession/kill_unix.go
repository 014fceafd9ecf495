//go:build unix

package ptysession

import (
	"os/exec"
	"syscall"
)

// killGroup kills the whole process group. The child is a session leader
// (pty.Start sets Setsid), so its pid is also the group id.
func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

//go:build !windows

package shell

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the shell in its own group so a timeout kills the
// whole pipeline, not only sh.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}

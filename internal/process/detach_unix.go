//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// detach puts the shell into its own process group so a backgrounded
// directive does not receive the terminal's signals aimed at cronrunner.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

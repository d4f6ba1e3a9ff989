//go:build !windows

package procs

import (
	"os/exec"
	"syscall"
)

// detach starts the child in a new session. Stdio stays nil so the child gets
// /dev/null and inherits no other descriptors.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

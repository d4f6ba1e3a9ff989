//go:build !windows

package procs

import "golang.org/x/sys/unix"

// ProcessAlive sends signal 0 to pid. Any error, including EPERM, counts as dead.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return unix.Kill(pid, 0) == nil
}

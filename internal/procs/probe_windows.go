//go:build windows

package procs

import "golang.org/x/sys/windows"

// ProcessAlive opens pid with SYNCHRONIZE access and closes it immediately.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		return false
	}
	_ = windows.CloseHandle(h)
	return true
}

//go:build !windows

package supervisor

import (
	"errors"
	"syscall"
)

// terminate asks the managed process group to exit gracefully.
func terminate(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// kill forcefully terminates the managed process group.
func kill(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

// isNoProcess reports whether a signal failed because the process is
// already gone, which stop tolerates silently.
func isNoProcess(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}

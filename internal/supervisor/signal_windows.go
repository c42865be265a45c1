//go:build windows

package supervisor

import (
	"errors"
	"os"
)

// Windows has no SIGTERM delivery for unrelated processes; both steps of
// the escalation collapse into TerminateProcess.
func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func kill(pid int) error { return terminate(pid) }

func isNoProcess(err error) bool {
	return errors.Is(err, os.ErrProcessDone)
}

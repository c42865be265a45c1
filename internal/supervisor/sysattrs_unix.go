//go:build !windows

package supervisor

import "syscall"

// sysProcAttr puts the managed process in its own process group so the
// stop escalation can signal the whole group.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// State describes what the lock file says about the managed process.
type State int

const (
	// Absent means no lock file exists; nothing is supervised.
	Absent State = iota
	// Running means the lock file exists and its PID is a live process.
	Running
	// Stale means the lock file exists but its PID is not alive. The
	// previous run terminated without a clean shutdown.
	Stale
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stale:
		return "stale"
	default:
		return "absent"
	}
}

// ErrLocked is returned by Acquire when the lock file already exists.
var ErrLocked = errors.New("lock already held")

// Lock is a single PID-file lock. Acquire uses O_CREATE|O_EXCL so two
// concurrent acquirers cannot both win; everything else is plain
// last-writer-wins file I/O, which is enough for a human-paced CLI.
type Lock struct {
	Path string
}

func New(path string) *Lock { return &Lock{Path: path} }

// Status reports the lock state and, when a lock file exists, the PID it
// holds. A lock file that cannot be parsed is reported as Stale with PID 0
// so the normal repair path clears it.
func (l *Lock) Status() (State, int, error) {
	b, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Absent, 0, nil
		}
		return Absent, 0, fmt.Errorf("read lock %s: %w", l.Path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return Stale, 0, nil
	}
	if Alive(pid) {
		return Running, pid, nil
	}
	return Stale, pid, nil
}

// Acquire creates the lock file with pid, failing with ErrLocked when the
// file already exists. pid may be 0 to claim the lock before the managed
// process exists; the caller is expected to Finalize with the real PID
// right after launch. A 0-PID lock left behind by an interrupted run reads
// back as Stale and is repaired on the next command.
func (l *Lock) Acquire(pid int) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o750); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return ErrLocked
		}
		return fmt.Errorf("acquire lock %s: %w", l.Path, err)
	}
	_, werr := f.WriteString(strconv.Itoa(pid))
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("write lock %s: %w", l.Path, werr)
	}
	return cerr
}

// Finalize overwrites the lock with the real PID of the launched process.
// Only valid after a successful Acquire by the same invocation.
func (l *Lock) Finalize(pid int) error {
	if err := os.WriteFile(l.Path, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return fmt.Errorf("finalize lock %s: %w", l.Path, err)
	}
	return nil
}

// Release removes the lock file. Safe to call when absent.
func (l *Lock) Release() error {
	err := os.Remove(l.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w", l.Path, err)
	}
	return nil
}

// Alive asks the OS whether pid exists, via gopsutil rather than signal
// probing or process-table parsing.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/loykin/botctl/internal/config"
	"github.com/loykin/botctl/internal/envfile"
	"github.com/loykin/botctl/internal/lock"
	"github.com/loykin/botctl/internal/logger"
	"github.com/loykin/botctl/internal/pyenv"
)

var (
	// ErrAlreadyRunning is returned by Start when a live instance holds
	// the lock. Starting a second instance would steal the bot token's
	// exclusive long-polling connection.
	ErrAlreadyRunning = errors.New("bot already running")
	// ErrNotRunning marks stop/restart finding nothing to stop. Callers
	// treat it as a successful no-op, not a failure.
	ErrNotRunning = errors.New("bot not running")
	// ErrLaunchFailed means the bot process could not be spawned. The
	// lock is left Absent.
	ErrLaunchFailed = errors.New("bot launch failed")
)

// restartDelay lets OS-level resources (sockets, file handles) settle
// between stop and relaunch.
const restartDelay = time.Second

// Status is a read-only snapshot of the lock state.
type Status struct {
	State lock.State
	PID   int
}

// Supervisor orchestrates the lifecycle of a single detached bot process:
// at most one live instance, provisioning before launch, graceful stop
// with bounded escalation.
type Supervisor struct {
	cfg *config.Config
	lck *lock.Lock
	env *pyenv.Env
	log *slog.Logger
}

func New(cfg *config.Config, log *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg: cfg,
		lck: lock.New(cfg.Resolve(cfg.PIDFile)),
		env: &pyenv.Env{
			Dir:         cfg.Resolve(cfg.VenvDir),
			Manifest:    cfg.Resolve(cfg.Manifest),
			Python:      cfg.Python,
			ProbeModule: cfg.ProbeModule,
		},
		log: log,
	}
}

// SetInstallOutput directs venv and pip output, typically to stdout so the
// operator sees install progress.
func (s *Supervisor) SetInstallOutput(w io.Writer) { s.env.Output = w }

// Status reports the lock state without mutating anything.
func (s *Supervisor) Status() (Status, error) {
	st, pid, err := s.lck.Status()
	return Status{State: st, PID: pid}, err
}

// Start provisions the environment and launches the bot detached from this
// invocation's lifetime. A Stale lock is cleared with a warning; a Running
// lock aborts with ErrAlreadyRunning before any side effect.
func (s *Supervisor) Start(ctx context.Context) error {
	st, pid, err := s.lck.Status()
	if err != nil {
		return err
	}
	switch st {
	case lock.Running:
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	case lock.Stale:
		s.log.Warn("previous run did not shut down cleanly; clearing stale lock", "pid", pid)
		if err := s.lck.Release(); err != nil {
			return err
		}
	}
	if err := s.env.EnsureEnvironment(ctx); err != nil {
		return err
	}
	if err := s.env.EnsureDependencies(ctx, false); err != nil {
		return err
	}
	// Claim the lock before launching so a concurrent start loses here
	// instead of racing between the status read and the PID write. An
	// interrupted invocation leaves a 0-PID lock that reads back Stale.
	if err := s.lck.Acquire(0); err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return ErrAlreadyRunning
		}
		return err
	}
	pid, err = s.launch()
	if err != nil {
		_ = s.lck.Release()
		return err
	}
	if err := s.lck.Finalize(pid); err != nil {
		return err
	}
	s.log.Info("bot started", "pid", pid, "log", s.cfg.Resolve(s.cfg.LogFile))
	return nil
}

func (s *Supervisor) launch() (int, error) {
	out, err := logger.OpenProcessLog(s.cfg.Resolve(s.cfg.LogFile))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	// Parent-side handle only; the child keeps its own descriptor.
	defer func() { _ = out.Close() }()

	env := envfile.New()
	files := make([]string, 0, len(s.cfg.EnvFiles))
	for _, p := range s.cfg.EnvFiles {
		files = append(files, s.cfg.Resolve(p))
	}
	if err := env.LoadFiles(files...); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	args := append([]string{s.cfg.Script}, s.cfg.Args...)
	// #nosec G204 -- the command comes from the operator's own config
	cmd := exec.Command(s.env.Interpreter(), args...)
	cmd.Dir = s.cfg.WorkDir
	cmd.Env = env.Merge(s.cfg.Env)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	pid := cmd.Process.Pid
	// Detach: nothing waits on the bot; it outlives this invocation.
	_ = cmd.Process.Release()
	return pid, nil
}

// Stop terminates the running bot with SIGTERM, escalating to SIGKILL
// after the grace period, then releases the lock unconditionally. Absent
// and Stale states are no-ops beyond lock cleanup.
func (s *Supervisor) Stop(ctx context.Context) error {
	st, pid, err := s.lck.Status()
	if err != nil {
		return err
	}
	switch st {
	case lock.Absent:
		return ErrNotRunning
	case lock.Stale:
		s.log.Warn("previous run did not shut down cleanly; nothing to signal", "pid", pid)
		if err := s.lck.Release(); err != nil {
			return err
		}
		s.log.Info("stale lock cleared")
		return nil
	}
	s.log.Info("stopping bot", "pid", pid, "grace", s.cfg.StopGrace)
	if err := terminate(pid); err != nil && !isNoProcess(err) {
		_ = s.lck.Release()
		return fmt.Errorf("signal bot (pid %d): %w", pid, err)
	}
	if !waitGone(ctx, pid, s.cfg.StopGrace) {
		s.log.Warn("bot did not exit within grace period; killing", "pid", pid)
		if err := kill(pid); err != nil && !isNoProcess(err) {
			s.log.Warn("force kill failed", "pid", pid, "error", err)
		}
	}
	if err := s.lck.Release(); err != nil {
		return err
	}
	s.log.Info("bot stopped")
	return nil
}

// Restart is stop, a short settle delay, then start. The exit status of
// the whole operation reflects the start phase.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	select {
	case <-time.After(restartDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Start(ctx)
}

// Update forces a dependency reinstall regardless of the recorded
// fingerprint. The running bot, if any, is not touched; a restart is
// needed to pick up the new packages.
func (s *Supervisor) Update(ctx context.Context) error {
	if err := s.env.EnsureEnvironment(ctx); err != nil {
		return err
	}
	if err := s.env.EnsureDependencies(ctx, true); err != nil {
		return err
	}
	s.log.Info("dependencies reinstalled; restart the bot to pick them up")
	return nil
}

// waitGone polls for process exit until the grace period lapses.
func waitGone(ctx context.Context, pid int, grace time.Duration) bool {
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !lock.Alive(pid) {
			return true
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return !lock.Alive(pid)
		}
	}
	return !lock.Alive(pid)
}

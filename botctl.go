// Package botctl supervises a single long-running bot process: start,
// stop, restart, status and dependency updates with idempotent,
// crash-tolerant semantics. It guarantees at most one live instance via a
// PID-file lock and keeps the bot's virtualenv in sync with its
// requirements manifest using a content fingerprint.
package botctl

import (
	"context"
	"io"
	"log/slog"

	"github.com/loykin/botctl/internal/config"
	"github.com/loykin/botctl/internal/lock"
	"github.com/loykin/botctl/internal/pyenv"
	"github.com/loykin/botctl/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type Status = supervisor.Status

type State = lock.State

const (
	Absent  = lock.Absent
	Running = lock.Running
	Stale   = lock.Stale
)

var (
	ErrAlreadyRunning     = supervisor.ErrAlreadyRunning
	ErrNotRunning         = supervisor.ErrNotRunning
	ErrLaunchFailed       = supervisor.ErrLaunchFailed
	ErrManifestNotFound   = pyenv.ErrManifestNotFound
	ErrInstallFailed      = pyenv.ErrInstallFailed
	ErrEnvironmentMissing = pyenv.ErrEnvironmentMissing
)

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Supervisor struct{ inner *supervisor.Supervisor }

func New(cfg *Config, log *slog.Logger) *Supervisor {
	return &Supervisor{inner: supervisor.New(cfg, log)}
}

func (s *Supervisor) SetInstallOutput(w io.Writer)      { s.inner.SetInstallOutput(w) }
func (s *Supervisor) Start(ctx context.Context) error   { return s.inner.Start(ctx) }
func (s *Supervisor) Stop(ctx context.Context) error    { return s.inner.Stop(ctx) }
func (s *Supervisor) Restart(ctx context.Context) error { return s.inner.Restart(ctx) }
func (s *Supervisor) Update(ctx context.Context) error  { return s.inner.Update(ctx) }
func (s *Supervisor) Status() (Status, error)           { return s.inner.Status() }

// LoadConfig reads a TOML config file; DefaultConfig returns the
// conventional bot layout (bot.py, requirements.txt, venv/, bot.pid).
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

func DefaultConfig() *Config { return config.Default() }

package pyenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

var (
	// ErrEnvironmentMissing means the virtualenv could not be created or
	// its interpreter is gone.
	ErrEnvironmentMissing = errors.New("runtime environment missing")
	// ErrInstallFailed means pip install did not complete; the fingerprint
	// record is left untouched so the next run retries.
	ErrInstallFailed = errors.New("dependency install failed")
)

const recordName = ".requirements.sha256"

// Env provisions an isolated Python virtualenv and keeps its installed
// packages in sync with a requirements manifest, gated by a content
// fingerprint so unchanged manifests never trigger a reinstall.
type Env struct {
	Dir         string    // virtualenv root
	Manifest    string    // requirements file
	Python      string    // interpreter used to create the venv (default python3)
	ProbeModule string    // module import used as a cheap liveness probe
	Output      io.Writer // destination for venv/pip output (default discard)
}

// RecordPath is where the manifest fingerprint is persisted, under the
// environment's private area.
func (e *Env) RecordPath() string { return filepath.Join(e.Dir, recordName) }

func (e *Env) python() string {
	if e.Python != "" {
		return e.Python
	}
	return "python3"
}

func (e *Env) output() io.Writer {
	if e.Output != nil {
		return e.Output
	}
	return io.Discard
}

// Interpreter returns the path of the virtualenv's own python binary.
func (e *Env) Interpreter() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Dir, "Scripts", "python.exe")
	}
	return filepath.Join(e.Dir, "bin", "python")
}

// Exists reports whether the virtualenv looks usable (its interpreter is
// present). It says nothing about installed packages.
func (e *Env) Exists() bool {
	_, err := os.Stat(e.Interpreter())
	return err == nil
}

// EnsureEnvironment creates the virtualenv if absent. Idempotent.
func (e *Env) EnsureEnvironment(ctx context.Context) error {
	if e.Exists() {
		return nil
	}
	cmd := exec.CommandContext(ctx, e.python(), "-m", "venv", e.Dir)
	cmd.Stdout = e.output()
	cmd.Stderr = e.output()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s -m venv: %v", ErrEnvironmentMissing, e.python(), err)
	}
	if !e.Exists() {
		return fmt.Errorf("%w: no interpreter at %s after venv creation", ErrEnvironmentMissing, e.Interpreter())
	}
	return nil
}

// EnsureDependencies installs the manifest's packages into the virtualenv
// when the fingerprint record is missing or mismatched, when the import
// probe fails, or when force is set. The fingerprint is committed only
// after a successful install.
func (e *Env) EnsureDependencies(ctx context.Context, force bool) error {
	if !e.Exists() {
		return fmt.Errorf("%w: %s", ErrEnvironmentMissing, e.Dir)
	}
	need := force
	if !need {
		ok, err := UpToDate(e.RecordPath(), e.Manifest)
		if err != nil {
			return err
		}
		need = !ok
	}
	if !need && e.ProbeModule != "" && !e.probeOK(ctx) {
		// Fingerprint matches but the environment lost the package
		// (manual corruption); reinstall.
		need = true
	}
	if !need {
		return nil
	}
	if _, err := Fingerprint(e.Manifest); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, e.Interpreter(), "-m", "pip", "install", "-r", e.Manifest)
	cmd.Stdout = e.output()
	cmd.Stderr = e.output()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: pip install -r %s: %v", ErrInstallFailed, e.Manifest, err)
	}
	return Commit(e.RecordPath(), e.Manifest)
}

// probeOK imports ProbeModule with the venv interpreter.
func (e *Env) probeOK(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, e.Interpreter(), "-c", "import "+e.ProbeModule)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run() == nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c := Default()
	if c.Name != "bot" || c.Script != "bot.py" || c.PIDFile != "bot.pid" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.VenvDir != "venv" || c.Manifest != "requirements.txt" {
		t.Fatalf("unexpected env defaults: %+v", c)
	}
	if c.Python != "python3" || c.ProbeModule != "aiogram" {
		t.Fatalf("unexpected interpreter defaults: %+v", c)
	}
	if c.StopGrace != 5*time.Second {
		t.Fatalf("unexpected grace default: %v", c.StopGrace)
	}
	if c.LogFile != "bot.log" {
		t.Fatalf("unexpected log default: %v", c.LogFile)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "botctl.toml")
	content := `
name = "movies"
script = "main.py"
args = ["--verbose"]
workdir = "/srv/movies"
pidfile = "run/movies.pid"
venv_dir = ".venv"
requirements = "reqs.txt"
probe_module = "telebot"
stop_grace = "2s"
env = ["APP_MODE=prod"]
env_files = [".env"]
log_file = "out/movies.log"

[log]
level = "debug"
file = "out/botctl.log"
max_size_mb = 5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != "movies" || c.Script != "main.py" || len(c.Args) != 1 {
		t.Fatalf("process fields not parsed: %+v", c)
	}
	if c.StopGrace != 2*time.Second {
		t.Fatalf("duration not parsed: %v", c.StopGrace)
	}
	if c.VenvDir != ".venv" || c.Manifest != "reqs.txt" || c.ProbeModule != "telebot" {
		t.Fatalf("env fields not parsed: %+v", c)
	}
	if c.Log.Level != "debug" || c.Log.File != "out/botctl.log" || c.Log.MaxSizeMB != 5 {
		t.Fatalf("log section not parsed: %+v", c.Log)
	}
	// Unset fields still get defaults.
	if c.Python != "python3" {
		t.Fatalf("expected default python, got %q", c.Python)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestResolve(t *testing.T) {
	c := Default()
	c.WorkDir = "/srv/bot"
	if got := c.Resolve("bot.pid"); got != filepath.Join("/srv/bot", "bot.pid") {
		t.Fatalf("relative not joined: %s", got)
	}
	if got := c.Resolve("/tmp/x.pid"); got != "/tmp/x.pid" {
		t.Fatalf("absolute must pass through: %s", got)
	}
	if got := c.Resolve(""); got != "" {
		t.Fatalf("empty must pass through: %s", got)
	}
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "botctl.toml")
	content := fmt.Sprintf("workdir = %q\n", dir)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := buildRoot()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHasLifecycleCommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{"start": false, "stop": false, "restart": false, "status": false, "update": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing %q command", name)
		}
	}
}

func TestUnknownCommandFails(t *testing.T) {
	out, err := execute(t, "frobnicate")
	if err == nil {
		t.Fatalf("expected non-zero result for unknown command")
	}
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("expected help text, got %q", out)
	}
}

func TestStatusStopped(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	out, err := execute(t, "status", "--config", cfg)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "bot stopped") {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestStatusRunning(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	pid := os.Getpid()
	if err := os.WriteFile(filepath.Join(dir, "bot.pid"), []byte(fmt.Sprintf("%d", pid)), 0o600); err != nil {
		t.Fatalf("write pidfile: %v", err)
	}
	out, err := execute(t, "status", "--config", cfg)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, fmt.Sprintf("running (pid %d)", pid)) {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestStatusStale(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "bot.pid"), []byte("0"), 0o600); err != nil {
		t.Fatalf("write pidfile: %v", err)
	}
	out, err := execute(t, "status", "--config", cfg)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "stale lock") {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestStopWhenNothingRuns(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	out, err := execute(t, "stop", "--config", cfg)
	if err != nil {
		t.Fatalf("stop must be a successful no-op, got %v", err)
	}
	if !strings.Contains(out, "bot already stopped") {
		t.Fatalf("unexpected stop output: %q", out)
	}
}

func TestBadConfigPathFails(t *testing.T) {
	if _, err := execute(t, "status", "--config", filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Session.MaxStack != DefaultMaxStack || cfg.Session.InstructionLimit != 0 || cfg.Log.Level != "warning" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Verbosity() != -1 {
		t.Fatalf("expected verbosity -1, got %d", cfg.Verbosity())
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hymn.toml", `
[session]
script = "main.hm"
max-stack = 64
instruction-limit = 10000
trace = true

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Script != "main.hm" || cfg.Session.MaxStack != 64 || cfg.Session.InstructionLimit != 10000 || !cfg.Session.Trace {
		t.Fatalf("unexpected session %+v", cfg.Session)
	}
	if cfg.Verbosity() != 2 {
		t.Fatalf("expected debug verbosity, got %d", cfg.Verbosity())
	}
	abs, _ := filepath.Abs(dir)
	if cfg.Dir != abs {
		t.Fatalf("expected dir %s, got %s", abs, cfg.Dir)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hymn.yaml", `
session:
  script: repl
  instruction-limit: 500
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Script != "repl" || cfg.Session.InstructionLimit != 500 {
		t.Fatalf("unexpected session %+v", cfg.Session)
	}
	if cfg.Session.MaxStack != DefaultMaxStack {
		t.Fatalf("unset keys must keep defaults, got max-stack %d", cfg.Session.MaxStack)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		want   string
	}{
		{"unknown toml key", "[session]\nstack = 3\n", "toml", "unknown keys: session.stack"},
		{"unknown yaml key", "session:\n  stack: 3\n", "yaml", "field stack not found"},
		{"bad max stack", "[session]\nmax-stack = 0\n", "toml", "session.max-stack"},
		{"negative limit", "session:\n  instruction-limit: -1\n", "yaml", "session.instruction-limit"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "toml", "log.level"},
		{"bad format", "", "json", "unsupported config format"},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.data), tt.format)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestParseEmptyYAML(t *testing.T) {
	cfg, err := Parse(nil, "yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Session.MaxStack != DefaultMaxStack {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, "[session]\nscript = \"found\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if cfg == nil || cfg.Session.Script != "found" {
		t.Fatalf("expected config from parent dir, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !strings.Contains(err.Error(), "cannot read") {
		t.Fatalf("expected read error, got %v", err)
	}
}

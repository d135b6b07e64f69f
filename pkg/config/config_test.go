package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

var envNames = []string{
	"TYPY_ENFORCE", "TYPY_STRICT", "TYPY_TAB_WIDTH", "TYPY_KEYWORDS", "TYPY_OUTPUT_DIR",
	"TYPY_JOBS", "TYPY_KEEP_GOING", "TYPY_INCREMENTAL", "TYPY_VERIFY", "TYPY_PYTHON",
	"TYPY_WATCH_DEBOUNCE_MS", "TYPY_VERBOSITY", "TYPY_COLOR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envNames {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Compile.TabWidth != 4 || cfg.Build.Jobs != runtime.GOMAXPROCS(0) || cfg.Run.Python != "python3" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Logging.Verbosity != VerbosityNone || cfg.Logging.Color != "auto" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Build.CacheFile != ".typy-cache.yaml" || cfg.Watch.DebounceMs != 200 {
		t.Errorf("unexpected build defaults: %+v", cfg.Build)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
compile:
  strict: true
  tab_width: 8
  keywords: [Logger, models.User]
build:
  output_dir: out
  jobs: 3
  keep_going: true
run:
  entry: app/main.py
logging:
  verbosity: full
  color: never
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Compile.Strict || cfg.Compile.Enforce || cfg.Compile.TabWidth != 8 {
		t.Errorf("compile = %+v", cfg.Compile)
	}
	if diff := cmp.Diff([]string{"Logger", "models.User"}, cfg.Compile.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
	if cfg.Build.OutputDir != "out" || cfg.Build.Jobs != 3 || !cfg.Build.KeepGoing {
		t.Errorf("build = %+v", cfg.Build)
	}
	if cfg.Run.Entry != "app/main.py" || cfg.Logging.Verbosity != VerbosityFull || cfg.Logging.Color != "never" {
		t.Errorf("run/logging = %+v %+v", cfg.Run, cfg.Logging)
	}

	opts, err := cfg.CompilerOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.Strict || opts.TabWidth != 8 || !opts.Registry.Has("Logger") || !opts.Registry.Has("models.User") {
		t.Errorf("CompilerOptions = %+v", opts)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "build:\n  jobs: 2\nlogging:\n  verbosity: summary\n")
	t.Setenv("TYPY_ENFORCE", "yes")
	t.Setenv("TYPY_JOBS", "7")
	t.Setenv("TYPY_KEYWORDS", "Node, Tree")
	t.Setenv("TYPY_VERBOSITY", "full")
	t.Setenv("TYPY_OUTPUT_DIR", "build/py")
	t.Setenv("TYPY_PYTHON", "/usr/bin/python3.12")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Compile.Enforce || cfg.Build.Jobs != 7 || cfg.Logging.Verbosity != VerbosityFull {
		t.Errorf("env not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"Node", "Tree"}, cfg.Compile.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
	if cfg.Build.OutputDir != "build/py" || cfg.Run.Python != "/usr/bin/python3.12" {
		t.Errorf("env paths not applied: %+v %+v", cfg.Build, cfg.Run)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "enforce and strict", mutate: func(c *Config) { c.Compile.Enforce, c.Compile.Strict = true, true }, errSub: "mutually exclusive"},
		{name: "tab width", mutate: func(c *Config) { c.Compile.TabWidth = 0 }, errSub: "tab_width"},
		{name: "bad keyword", mutate: func(c *Config) { c.Compile.Keywords = []string{"not a type"} }, errSub: "compile.keywords"},
		{name: "directive keyword", mutate: func(c *Config) { c.Compile.Keywords = []string{"skip"} }, errSub: "collides"},
		{name: "jobs", mutate: func(c *Config) { c.Build.Jobs = 0 }, errSub: "build.jobs"},
		{name: "cache file", mutate: func(c *Config) { c.Build.Incremental, c.Build.CacheFile = true, " " }, errSub: "cache_file"},
		{name: "debounce", mutate: func(c *Config) { c.Watch.DebounceMs = 0 }, errSub: "debounce_ms"},
		{name: "color", mutate: func(c *Config) { c.Logging.Color = "blue" }, errSub: "logging.color"},
		{name: "absolute entry", mutate: func(c *Config) { c.Run.Entry = "/abs/main.py" }, errSub: "run.entry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.errSub == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Fatalf("Validate error = %v, want containing %q", err, tt.errSub)
			}
		})
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing explicit config should fail")
	}
	if _, err := Load(writeConfig(t, "logging:\n  verbosity: loud\n")); err == nil || !strings.Contains(err.Error(), "loud") {
		t.Errorf("bad verbosity error = %v", err)
	}
	if _, err := Load(writeConfig(t, "compile:\n  enforce: true\n  strict: true\n")); err == nil {
		t.Error("enforce+strict in file should fail validation")
	}
}

func TestVerbosity(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Verbosity
	}{
		{"none", VerbosityNone},
		{"Summary", VerbositySummary},
		{" full ", VerbosityFull},
		{"2", VerbosityFull},
	} {
		got, err := ParseVerbosity(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseVerbosity(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseVerbosity("3"); err == nil {
		t.Error("ParseVerbosity(3) should fail")
	}

	out, err := yaml.Marshal(LoggingConfig{Verbosity: VerbositySummary, Color: "auto"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "verbosity: summary") {
		t.Errorf("marshalled = %s", out)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	if got := Discover(dir); got != "" {
		t.Errorf("Discover on empty dir = %q", got)
	}
	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "main.typy")
	if err := os.WriteFile(src, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if got := Discover(dir); got != path {
		t.Errorf("Discover(dir) = %q, want %q", got, path)
	}
	if got := Discover(src); got != path {
		t.Errorf("Discover(file) = %q, want %q", got, path)
	}
}

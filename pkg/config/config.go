// Package config loads typyc settings from typy.yaml and TYPY_* environment
// variables. Command-line flags are applied on top by the caller, which then
// calls Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"typyc/pkg/compiler"
)

// DefaultFile is the config file looked up in the build root.
const DefaultFile = "typy.yaml"

const (
	defaultTabWidth   = compiler.DefaultTabWidth
	defaultCacheFile  = ".typy-cache.yaml"
	defaultPython     = "python3"
	defaultDebounceMs = 200
)

// Verbosity controls how much the tool reports.
type Verbosity int

const (
	VerbosityNone    Verbosity = iota // errors only
	VerbositySummary                  // one line per file plus totals
	VerbosityFull                     // every rewritten line
)

var verbosityNames = [...]string{
	VerbosityNone:    "none",
	VerbositySummary: "summary",
	VerbosityFull:    "full",
}

func (v Verbosity) String() string {
	if v >= 0 && int(v) < len(verbosityNames) {
		return verbosityNames[v]
	}
	return fmt.Sprintf("Verbosity(%d)", int(v))
}

// ParseVerbosity accepts a level name or its number.
func ParseVerbosity(s string) (Verbosity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range verbosityNames {
		if s == name || s == strconv.Itoa(i) {
			return Verbosity(i), nil
		}
	}
	return VerbosityNone, fmt.Errorf("unknown verbosity %q (want none, summary or full)", s)
}

func (v *Verbosity) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseVerbosity(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*v = parsed
	return nil
}

func (v Verbosity) MarshalYAML() (any, error) { return v.String(), nil }

type CompileConfig struct {
	Enforce  bool     `yaml:"enforce"`
	Strict   bool     `yaml:"strict"`
	TabWidth int      `yaml:"tab_width"`
	Keywords []string `yaml:"keywords"`
}

type BuildConfig struct {
	// OutputDir mirrors the source tree when set; otherwise outputs sit beside sources.
	OutputDir   string `yaml:"output_dir"`
	Jobs        int    `yaml:"jobs"`
	KeepGoing   bool   `yaml:"keep_going"`
	Incremental bool   `yaml:"incremental"`
	CacheFile   string `yaml:"cache_file"`
	Verify      bool   `yaml:"verify"`
	Changed     bool   `yaml:"changed"`
}

type RunConfig struct {
	Python string   `yaml:"python"`
	Entry  string   `yaml:"entry"`
	Args   []string `yaml:"args"`
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Verbosity Verbosity `yaml:"verbosity"`
	Color     string    `yaml:"color"` // auto, always or never
}

type Config struct {
	Compile CompileConfig `yaml:"compile"`
	Build   BuildConfig   `yaml:"build"`
	Run     RunConfig     `yaml:"run"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the built-in settings with environment overrides applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg
}

// Load reads path, applies defaults and environment overrides, and validates
// the result. An empty path loads no file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		// #nosec G304 -- path comes from the command line.
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Discover returns the config file for a build rooted at path, or "" if none
// exists. A file path is looked up in its directory.
func Discover(path string) string {
	dir := path
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		dir = filepath.Dir(path)
	}
	candidate := filepath.Join(dir, DefaultFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.Compile.TabWidth <= 0 {
		cfg.Compile.TabWidth = defaultTabWidth
	}
	if cfg.Build.Jobs <= 0 {
		cfg.Build.Jobs = runtime.GOMAXPROCS(0)
	}
	if strings.TrimSpace(cfg.Build.CacheFile) == "" {
		cfg.Build.CacheFile = defaultCacheFile
	}
	if strings.TrimSpace(cfg.Run.Python) == "" {
		cfg.Run.Python = defaultPython
	}
	if cfg.Watch.DebounceMs <= 0 {
		cfg.Watch.DebounceMs = defaultDebounceMs
	}
	if strings.TrimSpace(cfg.Logging.Color) == "" {
		cfg.Logging.Color = "auto"
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Compile.Enforce = envBool("TYPY_ENFORCE", cfg.Compile.Enforce)
	cfg.Compile.Strict = envBool("TYPY_STRICT", cfg.Compile.Strict)
	if n, ok := envInt("TYPY_TAB_WIDTH"); ok {
		cfg.Compile.TabWidth = n
	}
	if v := strings.TrimSpace(os.Getenv("TYPY_KEYWORDS")); v != "" {
		for _, kw := range strings.Split(v, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				cfg.Compile.Keywords = append(cfg.Compile.Keywords, kw)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("TYPY_OUTPUT_DIR")); v != "" {
		cfg.Build.OutputDir = v
	}
	if n, ok := envInt("TYPY_JOBS"); ok && n > 0 {
		cfg.Build.Jobs = n
	}
	cfg.Build.KeepGoing = envBool("TYPY_KEEP_GOING", cfg.Build.KeepGoing)
	cfg.Build.Incremental = envBool("TYPY_INCREMENTAL", cfg.Build.Incremental)
	cfg.Build.Verify = envBool("TYPY_VERIFY", cfg.Build.Verify)

	if v := strings.TrimSpace(os.Getenv("TYPY_PYTHON")); v != "" {
		cfg.Run.Python = v
	}
	if n, ok := envInt("TYPY_WATCH_DEBOUNCE_MS"); ok {
		cfg.Watch.DebounceMs = n
	}
	if v := strings.TrimSpace(os.Getenv("TYPY_VERBOSITY")); v != "" {
		if lvl, err := ParseVerbosity(v); err == nil {
			cfg.Logging.Verbosity = lvl
		}
	}
	if v := strings.TrimSpace(os.Getenv("TYPY_COLOR")); v != "" {
		cfg.Logging.Color = strings.ToLower(v)
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Validate rejects contradictory or out-of-range settings.
func Validate(cfg *Config) error {
	if cfg.Compile.Enforce && cfg.Compile.Strict {
		return errors.New("compile.enforce and compile.strict are mutually exclusive (strict already enforces)")
	}
	if cfg.Compile.TabWidth < 1 || cfg.Compile.TabWidth > 16 {
		return fmt.Errorf("compile.tab_width must be between 1 and 16, got %d", cfg.Compile.TabWidth)
	}
	if _, err := compiler.NewRegistry(cfg.Compile.Keywords...); err != nil {
		return fmt.Errorf("compile.keywords: %w", err)
	}
	if cfg.Build.Jobs < 1 {
		return fmt.Errorf("build.jobs must be > 0, got %d", cfg.Build.Jobs)
	}
	if cfg.Build.Incremental && strings.TrimSpace(cfg.Build.CacheFile) == "" {
		return errors.New("build.cache_file is required when build.incremental=true")
	}
	if cfg.Watch.DebounceMs <= 0 {
		return errors.New("watch.debounce_ms must be > 0")
	}
	if cfg.Logging.Verbosity < VerbosityNone || cfg.Logging.Verbosity > VerbosityFull {
		return fmt.Errorf("logging.verbosity out of range: %d", int(cfg.Logging.Verbosity))
	}
	switch cfg.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.color must be auto, always or never, got %q", cfg.Logging.Color)
	}
	if e := cfg.Run.Entry; e != "" && filepath.IsAbs(e) {
		return fmt.Errorf("run.entry must be relative to the build root, got %q", e)
	}
	return nil
}

// CompilerOptions builds the per-file compiler settings. trace may be nil.
func (c *Config) CompilerOptions(trace func(line int, src, out string)) (compiler.Options, error) {
	reg, err := compiler.NewRegistry(c.Compile.Keywords...)
	if err != nil {
		return compiler.Options{}, err
	}
	return compiler.Options{
		Enforce:  c.Compile.Enforce,
		Strict:   c.Compile.Strict,
		TabWidth: c.Compile.TabWidth,
		Registry: reg,
		Trace:    trace,
	}, nil
}

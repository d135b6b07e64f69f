package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"typyc/pkg/build"
	"typyc/pkg/config"
	"typyc/pkg/gitscope"
	"typyc/pkg/logx"
	"typyc/pkg/pyverify"
)

// compileFlags are shared by build and watch. Flags left unset fall back to
// typy.yaml and TYPY_* settings.
type compileFlags struct {
	configFile  string
	enforce     bool
	strict      bool
	verbose     int
	quiet       bool
	out         string
	jobs        int
	keepGoing   bool
	incremental bool
	changed     bool
	verify      bool
	tabWidth    int
	keywords    []string
}

func (f *compileFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "config file (default <root>/"+config.DefaultFile+" if present)")
	fs.BoolVar(&f.enforce, "enforce", false, "inject runtime type checks that warn on mismatch")
	fs.BoolVar(&f.strict, "strict", false, "inject runtime type checks that raise on mismatch")
	fs.CountVarP(&f.verbose, "verbose", "v", "report each file (-v) or every rewritten line (-vv)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "report errors only")
	fs.StringVarP(&f.out, "out", "o", "", "mirror outputs under this directory instead of beside sources")
	fs.IntVarP(&f.jobs, "jobs", "j", 0, "files compiled in parallel (default GOMAXPROCS)")
	fs.BoolVar(&f.keepGoing, "keep-going", false, "compile every file and report all failures")
	fs.BoolVar(&f.incremental, "incremental", false, "skip sources unchanged since the last build")
	fs.BoolVar(&f.changed, "changed", false, "only compile sources modified in the git worktree")
	fs.BoolVar(&f.verify, "verify", false, "parse generated Python before writing it")
	fs.IntVar(&f.tabWidth, "tab-width", 0, "columns a tab advances to")
	fs.StringSliceVar(&f.keywords, "keyword", nil, "extra type token that starts a declaration (repeatable)")
}

func (f *compileFlags) validate() error {
	if f.enforce && f.strict {
		return errors.New("--enforce and --strict are mutually exclusive")
	}
	if f.quiet && f.verbose > 0 {
		return errors.New("--quiet and --verbose are mutually exclusive")
	}
	return nil
}

// load resolves the effective configuration for a build rooted at root.
func (f *compileFlags) load(cmd *cobra.Command, root string) (*config.Config, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	path := f.configFile
	if path == "" {
		path = config.Discover(root)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	switch {
	case f.strict:
		cfg.Compile.Strict, cfg.Compile.Enforce = true, false
	case f.enforce:
		cfg.Compile.Enforce, cfg.Compile.Strict = true, false
	}
	switch {
	case f.quiet:
		cfg.Logging.Verbosity = config.VerbosityNone
	case f.verbose > 0:
		cfg.Logging.Verbosity = config.Verbosity(min(f.verbose, int(config.VerbosityFull)))
	}
	if changed("out") {
		cfg.Build.OutputDir = f.out
	}
	if changed("jobs") {
		cfg.Build.Jobs = f.jobs
	}
	if changed("keep-going") {
		cfg.Build.KeepGoing = f.keepGoing
	}
	if changed("incremental") {
		cfg.Build.Incremental = f.incremental
	}
	if changed("changed") {
		cfg.Build.Changed = f.changed
	}
	if changed("verify") {
		cfg.Build.Verify = f.verify
	}
	if changed("tab-width") {
		cfg.Compile.TabWidth = f.tabWidth
	}
	cfg.Compile.Keywords = append(cfg.Compile.Keywords, f.keywords...)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func settingsKey(cfg *config.Config) string {
	return fmt.Sprintf("enforce=%t strict=%t tab=%d keywords=%s",
		cfg.Compile.Enforce, cfg.Compile.Strict, cfg.Compile.TabWidth, strings.Join(cfg.Compile.Keywords, ","))
}

// newBuilder wires cfg into a builder for root. only, when non-nil, further
// restricts the sources built.
func newBuilder(cfg *config.Config, root string, lg *logx.Logger, only map[string]bool) (*build.Builder, error) {
	copts, err := cfg.CompilerOptions(nil)
	if err != nil {
		return nil, err
	}
	rootDir, err := rootDirOf(root)
	if err != nil {
		return nil, err
	}

	opts := build.Options{
		Root:      root,
		OutputDir: cfg.Build.OutputDir,
		Jobs:      cfg.Build.Jobs,
		KeepGoing: cfg.Build.KeepGoing,
		Compiler:  copts,
		Settings:  settingsKey(cfg),
		Only:      only,
		Log:       lg,
	}
	if cfg.Build.Incremental {
		path := cfg.Build.CacheFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(rootDir, path)
		}
		if opts.Cache, err = build.OpenCache(path); err != nil {
			return nil, err
		}
	}
	if cfg.Build.Verify {
		opts.Verifier = pyverify.New()
	}
	if cfg.Build.Changed {
		dirty, err := gitscope.Changed(rootDir)
		if err != nil {
			return nil, err
		}
		if opts.Only != nil {
			for p := range opts.Only {
				if !dirty[p] {
					delete(opts.Only, p)
				}
			}
		} else {
			opts.Only = dirty
		}
		lg.Infof("%d changed source(s) in the worktree", len(opts.Only))
	}
	return build.New(opts)
}

func rootDirOf(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

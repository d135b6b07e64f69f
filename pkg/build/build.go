// Package build drives compilation of a file or directory tree: it discovers
// .typy sources, compiles them in parallel, and writes each output atomically.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"typyc/pkg/compiler"
	"typyc/pkg/logx"
	"typyc/pkg/utils"
)

// Verifier checks generated output before it is written.
type Verifier interface {
	Verify(ctx context.Context, path string, src []byte) error
}

type Options struct {
	// Root is a single .typy file or a directory searched recursively.
	Root      string
	OutputDir string
	Jobs      int
	// KeepGoing compiles every file and reports all failures; otherwise the
	// first failure cancels the rest of the batch.
	KeepGoing bool
	Compiler  compiler.Options
	// Settings identifies everything besides the source that shapes the
	// output; it is folded into cache digests.
	Settings string

	Cache    *Cache          // nil disables incremental builds
	Verifier Verifier        // optional
	Only     map[string]bool // absolute source paths to build; nil builds all
	Log      *logx.Logger
}

// Status is what happened to one source.
type Status int

const (
	Compiled  Status = iota
	Cached           // unchanged since the last build; output left alone
	Protected        // protect-file; nothing written
)

func (s Status) String() string {
	switch s {
	case Compiled:
		return "compiled"
	case Cached:
		return "cached"
	case Protected:
		return "protected"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Result struct {
	Source   string
	Output   string
	Status   Status
	Warnings []compiler.Diagnostic
}

type Report struct {
	Results []Result
}

// Count returns how many results have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Output returns the output path recorded for src, if it was built.
func (r *Report) Output(src string) (string, bool) {
	for _, res := range r.Results {
		if res.Source == src && res.Status != Protected {
			return res.Output, true
		}
	}
	return "", false
}

type Builder struct {
	opts    Options
	rootDir string
	log     *logx.Logger
}

// New returns a builder for opts. Root is resolved to an absolute path.
func New(opts Options) (*Builder, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	opts.Root = root
	rootDir := root
	if !fi.IsDir() {
		if !utils.IsSource(root) {
			return nil, fmt.Errorf("%s: not a %s file", root, utils.SourceExt)
		}
		rootDir = filepath.Dir(root)
	}
	if opts.OutputDir != "" {
		if opts.OutputDir, err = filepath.Abs(opts.OutputDir); err != nil {
			return nil, err
		}
	}
	if opts.Jobs <= 0 {
		opts.Jobs = 1
	}
	lg := opts.Log
	if lg == nil {
		lg = logx.Discard()
	}
	return &Builder{opts: opts, rootDir: rootDir, log: lg}, nil
}

// Root is the absolute file or directory being built.
func (b *Builder) Root() string { return b.opts.Root }

// SingleFile reports whether the build covers one file rather than a tree.
func (b *Builder) SingleFile() bool { return b.opts.Root != b.rootDir }

// RootDir is the directory output paths are computed relative to.
func (b *Builder) RootDir() string { return b.rootDir }

// OutputPath maps an absolute source path to its output path.
func (b *Builder) OutputPath(src string) (string, error) {
	return utils.OutputPath(b.rootDir, src, b.opts.OutputDir)
}

// Sources lists the .typy files the build covers, sorted.
func (b *Builder) Sources() ([]string, error) {
	var files []string
	if b.SingleFile() {
		files = []string{b.opts.Root}
	} else {
		var err error
		if files, err = Discover(b.rootDir, b.opts.OutputDir); err != nil {
			return nil, err
		}
	}
	if b.opts.Only == nil {
		return files, nil
	}
	out := files[:0]
	for _, f := range files {
		if b.opts.Only[f] {
			out = append(out, f)
		}
	}
	return out, nil
}

// Discover walks root for .typy files, skipping hidden directories, Python
// caches and skipDir (the output tree).
func Discover(root, skipDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "__pycache__" || path == skipDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if utils.IsSource(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Build compiles every source. The report lists results in source order; on
// failure it still holds whatever finished.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	files, err := b.Sources()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(files))
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Jobs)
	for i, src := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.compileFile(gctx, src)
			if err != nil {
				if !b.opts.KeepGoing {
					return err
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	werr := g.Wait()
	if werr == nil {
		werr = ctx.Err()
	}

	report := &Report{}
	for _, r := range results {
		if r != nil {
			report.Results = append(report.Results, *r)
		}
	}
	if b.opts.Cache != nil {
		if err := b.opts.Cache.Save(); err != nil {
			b.log.Warnf("saving build cache: %v", err)
		}
	}

	if werr == nil && len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		werr = errors.Join(errs...)
	}
	if werr != nil {
		return report, werr
	}
	b.log.Infof("%d compiled, %d unchanged, %d protected", report.Count(Compiled), report.Count(Cached), report.Count(Protected))
	return report, nil
}

func (b *Builder) rel(path string) string {
	if r, err := filepath.Rel(b.rootDir, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}

func (b *Builder) compileFile(ctx context.Context, src string) (Result, error) {
	name := b.rel(src)
	out, err := b.OutputPath(src)
	if err != nil {
		return Result{}, err
	}
	res := Result{Source: src, Output: out}

	data, err := os.ReadFile(src)
	if err != nil {
		return Result{}, err
	}

	cache := b.opts.Cache
	digest := Digest(b.opts.Settings, data)
	if cache != nil && cache.Fresh(name, digest) && exists(out) {
		res.Status = Cached
		b.log.Tracef("%s unchanged", name)
		return res, nil
	}

	opts := b.opts.Compiler
	opts.Trace = b.log.LineTracer(name)
	unit, err := compiler.Compile(string(data), opts)
	if err != nil {
		if cache != nil {
			cache.Forget(name)
		}
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}
	res.Warnings = unit.Warnings
	for _, w := range unit.Warnings {
		b.log.Warnf("%s: %s", name, w)
	}
	if unit.Protected {
		if cache != nil {
			cache.Forget(name)
		}
		res.Status = Protected
		b.log.Infof("%s is protected, skipped", name)
		return res, nil
	}

	py := unit.Bytes()
	if b.opts.Verifier != nil {
		if err := b.opts.Verifier.Verify(ctx, out, py); err != nil {
			if cache != nil {
				cache.Forget(name)
			}
			return Result{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Result{}, err
	}
	if err := writeFile(out, py, 0o644); err != nil {
		return Result{}, fmt.Errorf("%s: write %s: %w", name, out, err)
	}
	if cache != nil {
		cache.Record(name, digest)
	}
	b.log.Infof("compiled %s -> %s", name, b.rel(out))
	return res, nil
}

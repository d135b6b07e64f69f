// Package watch rebuilds .typy sources when they change on disk.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"typyc/pkg/logx"
	"typyc/pkg/utils"
)

type Options struct {
	Dir      string
	Debounce time.Duration
	// Skip is a directory never watched, normally the output tree.
	Skip string
	Log  *logx.Logger
}

// RebuildFunc receives the absolute paths of sources created, written,
// renamed or removed since the previous call, sorted.
type RebuildFunc func(ctx context.Context, changed []string)

type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher
	log     *logx.Logger
	pending map[string]bool
}

// New starts watching opts.Dir recursively. Watches are in place when New
// returns.
func New(opts Options) (*Watcher, error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	opts.Dir = dir
	if opts.Skip != "" {
		if opts.Skip, err = filepath.Abs(opts.Skip); err != nil {
			return nil, err
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	lg := opts.Log
	if lg == nil {
		lg = logx.Discard()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{opts: opts, watcher: fw, log: lg, pending: make(map[string]bool)}
	if _, err := w.addRecursive(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops the underlying watcher. Run returns once it notices.
func (w *Watcher) Close() error { return w.watcher.Close() }

// Run delivers debounced change batches to rebuild until ctx is done or the
// watcher is closed. Calls to rebuild never overlap.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(w.opts.Debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.opts.Debounce)
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.log.Infof("watching %s (debounce %s)", w.opts.Dir, w.opts.Debounce)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timerC:
			timerC = nil
			changed := w.drain()
			if len(changed) > 0 {
				rebuild(ctx, changed)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("watcher error: %v", err)
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handle(evt) {
				resetTimer()
			}
		}
	}
}

// handle records evt and reports whether it touched a source.
func (w *Watcher) handle(evt fsnotify.Event) bool {
	if strings.TrimSpace(evt.Name) == "" || w.skipped(evt.Name) {
		return false
	}
	touched := false
	if evt.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(evt.Name); err == nil && fi.IsDir() {
			if hiddenDir(filepath.Base(evt.Name)) {
				return false
			}
			found, err := w.addRecursive(evt.Name)
			if err != nil {
				w.log.Warnf("watch %s: %v", evt.Name, err)
			}
			for _, src := range found {
				w.pending[src] = true
				touched = true
			}
			return touched
		}
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if !utils.IsSource(evt.Name) || strings.HasPrefix(filepath.Base(evt.Name), ".") {
		return false
	}
	w.pending[evt.Name] = true
	return true
}

func (w *Watcher) drain() []string {
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	sort.Strings(out)
	clear(w.pending)
	return out
}

func (w *Watcher) skipped(path string) bool {
	if w.opts.Skip == "" {
		return false
	}
	return path == w.opts.Skip || strings.HasPrefix(path, w.opts.Skip+string(filepath.Separator))
}

// addRecursive watches root and every directory below it, returning the
// sources already present.
func (w *Watcher) addRecursive(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if utils.IsSource(path) {
				found = append(found, path)
			}
			return nil
		}
		if path != root && hiddenDir(d.Name()) || w.skipped(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	return found, err
}

func hiddenDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__"
}

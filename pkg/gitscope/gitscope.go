// Package gitscope limits a build to the .typy sources that differ from the
// last commit: modified, staged, or untracked.
package gitscope

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"

	"typyc/pkg/utils"
)

// ErrNotRepository is returned when dir is not inside a git worktree.
var ErrNotRepository = errors.New("not inside a git repository")

// Changed returns the absolute paths of changed .typy files under dir, keyed
// for use as a build filter. Deleted files are not included.
func Changed(dir string) (map[string]bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	top := wt.Filesystem.Root()
	out := make(map[string]bool)
	for path, fs := range status {
		if fs.Worktree == git.Deleted || fs.Staging == git.Deleted {
			continue
		}
		if fs.Worktree == git.Unmodified && fs.Staging == git.Unmodified {
			continue
		}
		abs := filepath.Join(top, filepath.FromSlash(path))
		if !utils.IsSource(abs) || !within(dir, abs) {
			continue
		}
		out[abs] = true
	}
	return out, nil
}

// List returns Changed as a sorted slice.
func List(dir string) ([]string, error) {
	set, err := Changed(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source and output extensions.
const (
	SourceExt = ".typy"
	OutputExt = ".py"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReplaceExt swaps path's extension for ext, or appends ext if there is none.
func ReplaceExt(path, ext string) string {
	old := filepath.Ext(path)
	if old == "" {
		return path + ext
	}
	return strings.TrimSuffix(path, old) + ext
}

// IsSource reports whether path names a .typy file.
func IsSource(path string) bool {
	return filepath.Ext(path) == SourceExt
}

// OutputPath maps src (inside root) to its .py file. With an empty outDir the
// output sits beside the source; otherwise the tree under root is mirrored
// under outDir.
func OutputPath(root, src, outDir string) (string, error) {
	if outDir == "" {
		return ReplaceExt(src, OutputExt), nil
	}
	rel, err := filepath.Rel(root, src)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", src, root)
	}
	return filepath.Join(outDir, ReplaceExt(rel, OutputExt)), nil
}

package build

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// readYAML decodes the manifest at path into out. A manifest that does not
// exist yet leaves out untouched.
func readYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	return yaml.Unmarshal(b, out)
}

func writeYAML(path string, v any, mode os.FileMode) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, b, mode)
}

// writeFile replaces path with b in one rename. A generated module may be
// imported by a running interpreter or watcher rebuild at any moment, and an
// aborted build must leave the previous output in place, so the bytes go to
// a sibling temp file first.
func writeFile(path string, b []byte, mode os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	_, err = f.Write(b)
	if err == nil {
		err = f.Chmod(mode)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

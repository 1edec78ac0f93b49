package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"eventfeed/internal/model"
)

// WriteRecord stores rec as <dir>/<rec.ID>.yaml. An existing file is kept
// unless overwrite is set; the returned bool reports whether a file was
// written. The record is validated first and written atomically.
func WriteRecord(dir string, rec model.EventRecord, overwrite bool) (bool, error) {
	if rec.ID == "" {
		return false, errors.New("record id is empty")
	}
	if filepath.Base(rec.ID) != rec.ID {
		return false, fmt.Errorf("record id %q is not a plain file name", rec.ID)
	}

	Normalize(&rec)
	if err := Validate(&rec); err != nil {
		return false, fmt.Errorf("record %s: %w", rec.ID, err)
	}

	path := filepath.Join(dir, rec.ID+".yaml")
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return false, err
	}

	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// WriteFileAtomic writes data to a temp file in the same directory and renames
// it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".eventfeed-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

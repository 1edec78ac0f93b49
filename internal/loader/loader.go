package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"eventfeed/internal/lifecycle"
	appLog "eventfeed/internal/log"
	"eventfeed/internal/model"
)

// FileError records why a single file was rejected.
type FileError struct {
	File string
	Err  error
}

func (e FileError) Error() string {
	return "File " + e.File + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error { return e.Err }

// Report summarizes one directory load.
type Report struct {
	Dir      string
	Loaded   int
	Rejected []FileError
}

// Err joins all rejections, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Rejected))
	for _, fe := range r.Rejected {
		errs = append(errs, fe)
	}
	return errors.Join(errs...)
}

// IsRecordFile reports whether name is an event record file. Files whose
// name contains ".example" are templates and skipped.
func IsRecordFile(name string) bool {
	if strings.Contains(name, ".example") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// Load reads every record file in dir. Files that fail to decode or validate
// are reported and skipped so one broken file never hides the others. A
// missing directory yields an empty list. Records are sorted by start,
// newest first; ties are ordered by id.
func Load(dir string) ([]model.EventRecord, Report, error) {
	report := Report{Dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Warn("events directory not found", "dir", dir)
			return []model.EventRecord{}, report, nil
		}
		return nil, report, err
	}

	records := make([]model.EventRecord, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsRecordFile(e.Name()) {
			continue
		}

		rec, err := readRecord(filepath.Join(dir, e.Name()))
		if err != nil {
			report.Rejected = append(report.Rejected, FileError{File: e.Name(), Err: err})
			continue
		}
		records = append(records, rec)
	}

	sortByStartDesc(records)
	report.Loaded = len(records)

	if len(report.Rejected) > 0 {
		for _, fe := range report.Rejected {
			appLog.Error("event record rejected", fe.Err, "file", fe.File)
		}
		appLog.Warn("events loaded with validation errors", "dir", dir, "loaded", report.Loaded, "rejected", len(report.Rejected))
	} else {
		appLog.Info("events loaded", "dir", dir, "loaded", report.Loaded)
	}

	return records, report, nil
}

func readRecord(path string) (model.EventRecord, error) {
	var rec model.EventRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}

	// Unknown keys are ignored; "id" in a body never overrides the file name.
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("YAML parse error - %w", err)
	}

	Normalize(&rec)
	if err := Validate(&rec); err != nil {
		return rec, err
	}

	base := filepath.Base(path)
	rec.ID = strings.TrimSuffix(base, filepath.Ext(base))
	return rec, nil
}

func sortByStartDesc(records []model.EventRecord) {
	starts := make(map[string]time.Time, len(records))
	for _, r := range records {
		// Validated records always parse; a zero time sorts last.
		t, _ := lifecycle.ParseEventDate(r.Date.Start, r.Date.StartTime)
		starts[r.ID] = t
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := starts[records[i].ID], starts[records[j].ID]
		if !a.Equal(b) {
			return a.After(b)
		}
		return records[i].ID < records[j].ID
	})
}

package loader

import (
	"errors"
	"sync"
	"time"

	"eventfeed/internal/lifecycle"
	"eventfeed/internal/model"
)

// ErrNotFound is returned by Store.Find for an unknown id.
var ErrNotFound = errors.New("event not found")

// Store loads a directory once on first use and serves the same records for
// the rest of the process lifetime. Lifecycle states are recomputed on
// every read.
type Store struct {
	dir string

	once    sync.Once
	records []model.EventRecord
	byID    map[string]int
	report  Report
	err     error
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) load() {
	s.once.Do(func() {
		s.records, s.report, s.err = Load(s.dir)
		s.byID = make(map[string]int, len(s.records))
		for i, r := range s.records {
			s.byID[r.ID] = i
		}
	})
}

// Records returns the cached records sorted newest first. Callers must not
// modify the returned slice.
func (s *Store) Records() ([]model.EventRecord, error) {
	s.load()
	return s.records, s.err
}

// Report returns the result of the initial load.
func (s *Store) Report() Report {
	s.load()
	return s.report
}

// Events classifies every cached record against now.
func (s *Store) Events(now time.Time) ([]model.ClassifiedEvent, error) {
	recs, err := s.Records()
	if err != nil {
		return nil, err
	}
	return lifecycle.ClassifyAll(recs, now), nil
}

// Find classifies the record with the given id against now.
func (s *Store) Find(id string, now time.Time) (model.ClassifiedEvent, error) {
	if _, err := s.Records(); err != nil {
		return model.ClassifiedEvent{}, err
	}
	i, ok := s.byID[id]
	if !ok {
		return model.ClassifiedEvent{}, ErrNotFound
	}
	return lifecycle.Classify(s.records[i], now), nil
}

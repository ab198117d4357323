// Package snapshot loads and stores the records the engine computes over.
//
// A snapshot is a single YAML (or JSON, which YAML accepts) document. The
// engine never mutates it; the Holder swaps whole snapshots on reload.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"agenda/internal/config"
	appLog "agenda/internal/log"
	"agenda/internal/model"
)

// Snapshot is one consistent set of records.
type Snapshot struct {
	Actions  []model.Action    `yaml:"actions" json:"actions"`
	Meetings []model.Meeting   `yaml:"meetings" json:"meetings"`
	Entries  []model.TimeEntry `yaml:"entries" json:"entries"`
	Tags     []model.Tag       `yaml:"tags" json:"tags"`

	// Settings may be omitted; the engine then uses defaults.
	Settings *model.Settings `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// Validate checks the records whose invalid state would break placement
// or expansion. Problems are joined so every bad record is reported.
func (s *Snapshot) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(s.Meetings))
	for _, m := range s.Meetings {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
		if m.ID != "" && seen[m.ID] {
			errs = append(errs, &model.ValidationError{Entity: "meeting", ID: m.ID, Field: "id", Reason: "duplicate id"})
		}
		seen[m.ID] = true
	}
	return errors.Join(errs...)
}

// Load reads the snapshot at path. A missing file yields an empty snapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{}, nil
		}
		return nil, err
	}

	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return &s, nil
}

// Save writes s to path atomically.
func Save(path string, s *Snapshot) error {
	if s == nil {
		return errors.New("snapshot is nil")
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(path, data)
}

// Holder serves the current snapshot to concurrent readers and replaces it
// on Reload.
type Holder struct {
	path string

	mu       sync.RWMutex
	current  *Snapshot
	loadedAt time.Time
}

// NewHolder returns a holder for path. Call Reload to populate it; until
// then Get returns an empty snapshot.
func NewHolder(path string) *Holder {
	return &Holder{path: path, current: &Snapshot{}}
}

// Get returns the current snapshot. Callers must not modify it.
func (h *Holder) Get() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// LoadedAt reports when the current snapshot was loaded.
func (h *Holder) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}

// Set replaces the current snapshot.
func (h *Holder) Set(s *Snapshot) {
	h.mu.Lock()
	h.current = s
	h.loadedAt = time.Now()
	h.mu.Unlock()
}

// Reload reads the file again. On failure the previous snapshot is kept.
func (h *Holder) Reload() error {
	s, err := Load(h.path)
	if err != nil {
		appLog.Error("snapshot reload failed", err, "path", h.path)
		return err
	}
	h.Set(s)
	appLog.Info("snapshot loaded",
		"path", h.path,
		"actions", len(s.Actions),
		"meetings", len(s.Meetings),
		"entries", len(s.Entries),
		"tags", len(s.Tags),
	)
	return nil
}

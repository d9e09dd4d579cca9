// Package history records verification runs so that verdicts can be compared
// across builds. Runs are stored either in a YAML file in the state directory
// or in a SQLite database.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// HistoryFileName is the name of the YAML history file inside the state directory.
const HistoryFileName = "history.yaml"

// HistoryEntry is one recorded verification run.
type HistoryEntry struct {
	ID        string         `yaml:"id" json:"id"`
	Timestamp time.Time      `yaml:"timestamp" json:"timestamp"`
	Module    string         `yaml:"module" json:"module"`
	Path      string         `yaml:"path" json:"path"`
	Revision  string         `yaml:"revision,omitempty" json:"revision,omitempty"`
	Verdict   report.Verdict `yaml:"verdict" json:"verdict"`
	Errors    int            `yaml:"errors" json:"errors"`
	Warnings  int            `yaml:"warnings" json:"warnings"`
	Duration  string         `yaml:"duration" json:"duration"`
}

// HistoryFile is the on-disk layout of the YAML backend.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// NewEntry builds an entry for a finished verification of the module at path.
func NewEntry(r *report.Report, path string, at time.Time) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: at,
		Module:    r.Module,
		Path:      path,
		Revision:  r.Revision,
		Verdict:   r.Verdict,
		Errors:    r.Errors,
		Warnings:  r.Warnings,
		Duration:  r.Duration.String(),
	}
}

// LoadHistory reads the history file from stateDir. A missing file is an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	path := filepath.Join(stateDir, HistoryFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &HistoryFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history file %s: %w", path, err)
	}
	return &history, nil
}

// SaveHistory writes the history file atomically, creating stateDir if needed.
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	path := filepath.Join(stateDir, HistoryFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

package history

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names a history storage backend.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// ValidBackends lists all history backends.
var ValidBackends = []Backend{BackendFile, BackendSQLite}

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	for _, valid := range ValidBackends {
		if Backend(s) == valid {
			return valid, nil
		}
	}
	return "", fmt.Errorf("invalid history backend %q: valid options are file, sqlite", s)
}

// SQLiteFileName is the database file used by the sqlite backend inside the state directory.
const SQLiteFileName = "history.db"

// Store persists history entries.
type Store interface {
	// Record stores an entry, pruning the oldest entries beyond the configured maximum.
	Record(ctx context.Context, entry HistoryEntry) error
	// List returns up to limit entries, newest first. A limit <= 0 returns all entries.
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
	// Close releases the store's resources.
	Close() error
}

// Open opens the store for backend in stateDir.
func Open(backend Backend, stateDir string, maxEntries int) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewWriter(stateDir, maxEntries), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(stateDir, SQLiteFileName), maxEntries)
	default:
		_, err := ParseBackend(string(backend))
		return nil, err
	}
}

// newestFirst returns at most limit entries from the end of entries, reversed.
func newestFirst(entries []HistoryEntry, limit int) []HistoryEntry {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]HistoryEntry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}

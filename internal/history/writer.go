package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Writer is the YAML file backend. It provides thread-safe history logging with
// automatic pruning.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain.
	MaxEntries int

	mu sync.Mutex
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
	}
}

// Record appends an entry to the history file, pruning the oldest entries.
func (w *Writer) Record(ctx context.Context, entry HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	// Prune oldest entries if over limit
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (w *Writer) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return nil, err
	}
	return newestFirst(history.Entries, limit), nil
}

// Close is a no-op for the file backend.
func (w *Writer) Close() error { return nil }

// LogEntry records an entry, writing any error to warn instead of returning it.
// History is best effort and never fails a verification.
func LogEntry(ctx context.Context, store Store, entry HistoryEntry, warn io.Writer) {
	if warn == nil {
		warn = os.Stderr
	}
	if err := store.Record(ctx, entry); err != nil {
		fmt.Fprintf(warn, "Warning: failed to log history: %v\n", err)
	}
}

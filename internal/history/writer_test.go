package history

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(module string) HistoryEntry {
	return HistoryEntry{
		ID:        module + "-id",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Module:    module,
		Path:      "/src/" + module,
		Verdict:   report.VerdictPass,
		Duration:  "30ms",
	}
}

func TestHistoryWriter_Record(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setupStore  func(t *testing.T, stateDir string)
		maxEntries  int
		wantEntries int
	}{
		"record to empty history": {
			setupStore:  func(t *testing.T, stateDir string) {},
			maxEntries:  500,
			wantEntries: 1,
		},
		"record to existing history": {
			setupStore: func(t *testing.T, stateDir string) {
				history := &HistoryFile{Entries: []HistoryEntry{entry("existing")}}
				require.NoError(t, SaveHistory(stateDir, history))
			},
			maxEntries:  500,
			wantEntries: 2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			stateDir := t.TempDir()
			tc.setupStore(t, stateDir)

			writer := NewWriter(stateDir, tc.maxEntries)
			require.NoError(t, writer.Record(context.Background(), entry("orders")))

			history, err := LoadHistory(stateDir)
			require.NoError(t, err)
			assert.Len(t, history.Entries, tc.wantEntries)
		})
	}
}

func TestHistoryWriter_Pruning(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existingEntries int
		maxEntries      int
		wantEntries     int
		wantOldest      string
	}{
		"no pruning needed": {
			existingEntries: 5,
			maxEntries:      10,
			wantEntries:     6,
			wantOldest:      "mod-0",
		},
		"prune oldest when max exceeded": {
			existingEntries: 10,
			maxEntries:      10,
			wantEntries:     10,
			wantOldest:      "mod-1",
		},
		"prune multiple when well over max": {
			existingEntries: 12,
			maxEntries:      10,
			wantEntries:     10,
			wantOldest:      "mod-3",
		},
		"zero max keeps everything": {
			existingEntries: 12,
			maxEntries:      0,
			wantEntries:     13,
			wantOldest:      "mod-0",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			stateDir := t.TempDir()
			entries := make([]HistoryEntry, tc.existingEntries)
			for i := range entries {
				entries[i] = entry(fmt.Sprintf("mod-%d", i))
			}
			require.NoError(t, SaveHistory(stateDir, &HistoryFile{Entries: entries}))

			writer := NewWriter(stateDir, tc.maxEntries)
			require.NoError(t, writer.Record(context.Background(), entry("new")))

			loaded, err := LoadHistory(stateDir)
			require.NoError(t, err)
			assert.Len(t, loaded.Entries, tc.wantEntries)
			assert.Equal(t, tc.wantOldest, loaded.Entries[0].Module)
			assert.Equal(t, "new", loaded.Entries[len(loaded.Entries)-1].Module)
		})
	}
}

func TestHistoryWriter_List(t *testing.T) {
	t.Parallel()

	writer := NewWriter(t.TempDir(), 0)
	ctx := context.Background()
	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, writer.Record(ctx, entry(m)))
	}

	tests := map[string]struct {
		limit int
		want  []string
	}{
		"all":          {limit: 0, want: []string{"c", "b", "a"}},
		"limited":      {limit: 2, want: []string{"c", "b"}},
		"over the top": {limit: 10, want: []string{"c", "b", "a"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := writer.List(ctx, tc.limit)
			require.NoError(t, err)
			var modules []string
			for _, e := range got {
				modules = append(modules, e.Module)
			}
			assert.Equal(t, tc.want, modules)
		})
	}
}

func TestHistoryWriter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	writer := NewWriter(stateDir, 100)

	var wg sync.WaitGroup
	numWriters := 10
	entriesPerWriter := 5

	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func(writerID int) {
			defer wg.Done()
			for j := 0; j < entriesPerWriter; j++ {
				assert.NoError(t, writer.Record(context.Background(), entry(fmt.Sprintf("w%d-%d", writerID, j))))
			}
		}(i)
	}
	wg.Wait()

	history, err := LoadHistory(stateDir)
	require.NoError(t, err)
	assert.Len(t, history.Entries, numWriters*entriesPerWriter)
}

func TestLogEntry_NonFatalErrors(t *testing.T) {
	t.Parallel()

	// A regular file where the state directory should be fails even for root.
	stateDir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(stateDir, []byte("not a directory"), 0o644))
	writer := NewWriter(stateDir, 500)

	var warn bytes.Buffer
	LogEntry(context.Background(), writer, entry("orders"), &warn)
	assert.Contains(t, warn.String(), "Warning: failed to log history")

	data, err := os.ReadFile(stateDir)
	require.NoError(t, err)
	assert.Equal(t, "not a directory", string(data))
}

func TestLoadHistory_Corrupt(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	require.NoError(t, SaveHistory(stateDir, &HistoryFile{}))
	writeRaw(t, stateDir, "entries: {not: [a list")

	_, err := LoadHistory(stateDir)
	assert.ErrorContains(t, err, "parsing history file")
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	r := &report.Report{
		Module:   "orders",
		Revision: "abc1234",
		Verdict:  report.VerdictFail,
		Errors:   2,
		Warnings: 1,
		Duration: 1500 * time.Millisecond,
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e := NewEntry(r, "/src/orders", at)
	assert.Len(t, e.ID, 36)
	assert.Equal(t, "orders", e.Module)
	assert.Equal(t, "/src/orders", e.Path)
	assert.Equal(t, "abc1234", e.Revision)
	assert.Equal(t, report.VerdictFail, e.Verdict)
	assert.Equal(t, 2, e.Errors)
	assert.Equal(t, 1, e.Warnings)
	assert.Equal(t, "1.5s", e.Duration)
	assert.Equal(t, at, e.Timestamp)

	assert.NotEqual(t, e.ID, NewEntry(r, "/src/orders", at).ID)
}

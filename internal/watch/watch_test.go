package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string) (*atomic.Int32, context.CancelFunc, <-chan error) {
	t.Helper()

	w, err := New(dir, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { runs.Add(1) })
	}()
	t.Cleanup(cancel)
	return &runs, cancel, done
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runs, cancel, done := startWatcher(t, dir)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte("module: orders\n"), 0o644))
	}

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "a burst of writes should trigger one run")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runs, _, _ := startWatcher(t, dir)

	sub := filepath.Join(dir, "fragments")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)

	before := runs.Load()
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.yaml"), []byte("types: {}\n"), 0o644))
	assert.Eventually(t, func() bool { return runs.Load() > before }, 3*time.Second, 10*time.Millisecond)
}

func TestNew_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		event fsnotify.Event
		want  bool
	}{
		"write":       {event: fsnotify.Event{Name: "/m/model.yaml", Op: fsnotify.Write}, want: true},
		"create":      {event: fsnotify.Event{Name: "/m/a.yaml", Op: fsnotify.Create}, want: true},
		"remove":      {event: fsnotify.Event{Name: "/m/a.yaml", Op: fsnotify.Remove}, want: true},
		"chmod only":  {event: fsnotify.Event{Name: "/m/a.yaml", Op: fsnotify.Chmod}, want: false},
		"hidden file": {event: fsnotify.Event{Name: "/m/.a.yaml.swp", Op: fsnotify.Write}, want: false},
		"backup file": {event: fsnotify.Event{Name: "/m/a.yaml~", Op: fsnotify.Write}, want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, relevant(tt.event))
		})
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

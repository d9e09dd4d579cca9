package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd(t *testing.T) {
	t.Parallel()

	blockedConfig := func(t *testing.T) string {
		dir := t.TempDir()
		stateFile := filepath.Join(dir, "state")
		require.NoError(t, os.WriteFile(stateFile, []byte("not a directory"), 0o644))
		path := filepath.Join(dir, "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("state_dir: "+stateFile+"\n"), 0o644))
		return path
	}

	tests := map[string]struct {
		config     func(t *testing.T) string
		wantCode   int
		wantStdout []string
		wantStderr string
	}{
		"healthy": {
			config:   func(t *testing.T) string { return writeConfig(t, "") },
			wantCode: ExitSuccess,
			wantStdout: []string{
				"✓ Configuration: loaded and valid",
				"✓ State directory:",
				"✓ History: file backend, 0 entries",
				"○ Git revision: not available",
				"✓ Notifications: disabled",
			},
		},
		"sqlite history": {
			config:     func(t *testing.T) string { return writeConfig(t, "history:\n  backend: sqlite\n") },
			wantCode:   ExitSuccess,
			wantStdout: []string{"✓ History: sqlite backend, 0 entries"},
		},
		"invalid config": {
			config:     func(t *testing.T) string { return writeConfig(t, "workers: 0\n") },
			wantCode:   ExitLoadError,
			wantStdout: []string{"✗ Configuration: failed to load configuration"},
			wantStderr: "health checks failed: Configuration",
		},
		"state dir is a file": {
			config:     blockedConfig,
			wantCode:   ExitLoadError,
			wantStdout: []string{"✗ State directory: cannot create"},
			wantStderr: "health checks failed: State directory",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			code, stdout, stderr := runCLI(t, "doctor", t.TempDir(), "--config", tt.config(t))
			assert.Equal(t, tt.wantCode, code, stderr)
			for _, want := range tt.wantStdout {
				assert.Contains(t, stdout, want)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			}
		})
	}
}

func TestDoctorCmd_TooManyArgs(t *testing.T) {
	t.Parallel()

	code, _, _ := runCLI(t, "doctor", "a", "b")
	assert.Equal(t, ExitInvalidArguments, code)
}

package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	clierrors "github.com/ariel-frischer/modelverifier/internal/errors"
	"github.com/ariel-frischer/modelverifier/internal/model"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const passingManifest = `
module: orders
messages:
  commands: [CreateOrder]
  events: [OrderCreated]
types:
  aggregates:
    - name: acme.Order
      handlers:
        - {method: handle, kind: command, message: CreateOrder, produces: [OrderCreated]}
        - {method: on, kind: apply, message: OrderCreated, access: private}
`

const failingManifest = `
module: billing
types:
  aggregates:
    - name: acme.Invoice
`

// warningManifest passes at the standard level and fails at strict.
const warningManifest = `
module: catalog
messages:
  commands: [AddItem]
  events: [ItemAdded]
types:
  aggregates:
    - name: acme.Catalog
      handlers:
        - {method: handle, kind: command, message: AddItem, produces: [ItemAdded]}
        - {method: on, kind: apply, message: ItemAdded, access: private}
  projections:
    - name: acme.CatalogView
`

func writeModule(t *testing.T, dir, manifest string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte(manifest), 0o644))
	return dir
}

// writeConfig writes a project config whose state_dir lives under the test's
// temporary directory and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := fmt.Sprintf("state_dir: %s\n%s", filepath.Join(dir, "state"), extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCLI executes a fresh command tree and returns the exit code and output.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := execute(context.Background(), root, args, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRootCmd_Commands(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"verify", "watch", "pipeline", "rules", "history", "config", "doctor", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, "frobnicate")
	assert.Equal(t, ExitInvalidArguments, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":                 {err: nil, want: ExitSuccess},
		"argument error":      {err: clierrors.NewArgumentError("bad"), want: ExitInvalidArguments},
		"configuration error": {err: clierrors.NewConfigError("bad"), want: ExitConfigError},
		"load failure":        {err: clierrors.ModuleLoadFailed("x", fmt.Errorf("gone")), want: ExitLoadError},
		"verification":        {err: clierrors.VerificationFailed("orders", 2), want: ExitVerificationFailed},
		"runtime":             {err: clierrors.Wrap(fmt.Errorf("disk"), clierrors.Runtime), want: ExitVerificationFailed},
		"wrapped load error":  {err: fmt.Errorf("verify: %w", &model.LoadError{Path: "x"}), want: ExitLoadError},
		"cobra error":         {err: fmt.Errorf("unknown flag: --nope"), want: ExitInvalidArguments},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
		want []string
	}{
		"plain": {
			args: []string{"version", "--plain"},
			want: []string{"modelverifier dev (development build)", "commit: unknown", "go: "},
		},
		"pretty": {
			args: []string{"version"},
			want: []string{"Version", "dev (development build)", "Platform", SourceURL},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			code, stdout, _ := runCLI(t, tt.args...)
			require.Equal(t, ExitSuccess, code)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

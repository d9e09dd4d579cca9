package cli

import (
	"strings"
	"testing"

	"github.com/ariel-frischer/modelverifier/internal/rules"
	"github.com/ariel-frischer/modelverifier/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesCmd(t *testing.T) {
	t.Parallel()

	total := rules.Builtin().Len()

	tests := map[string]struct {
		args        []string
		wantCount   int
		wantAbsent  []string
		wantPresent string
		wantFooter  string
	}{
		"standard lists every rule": {
			wantCount:   total,
			wantPresent: rules.ProjectionSubscribes + "  ",
			wantFooter:  "level standard (warnings: on, promote_warnings: off)",
		},
		"basic drops warning rules": {
			args:       []string{"--level", "basic"},
			wantCount:  total - 2,
			wantAbsent: []string{rules.HandlerAccess, rules.ProjectionSubscribes},
			wantFooter: "level basic (warnings: off, promote_warnings: off)",
		},
		"strict promotes warnings": {
			args:        []string{"--level", "strict"},
			wantCount:   total,
			wantAbsent:  []string{"  warning  "},
			wantPresent: rules.HandlerAccess,
			wantFooter:  "level strict (warnings: on, promote_warnings: on)",
		},
		"disabled rule": {
			args:       []string{"--disable", rules.SignalOrigin},
			wantCount:  total - 1,
			wantAbsent: []string{rules.SignalOrigin},
			wantFooter: "level standard",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"rules", "--config", writeConfig(t, "")}, tt.args...)
			code, stdout, stderr := runCLI(t, args...)
			require.Equal(t, ExitSuccess, code, stderr)

			lines := strings.Split(strings.TrimSpace(stdout), "\n")
			assert.Equal(t, tt.wantCount, len(lines)-2, "one line per rule plus a blank line and the total")
			assert.Contains(t, lines[len(lines)-1], "rule(s)")
			assert.Contains(t, lines[len(lines)-1], tt.wantFooter)
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, stdout, absent)
			}
			if tt.wantPresent != "" {
				assert.Contains(t, stdout, tt.wantPresent)
			}
		})
	}
}

func TestRulesCmd_UnknownRule(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, "rules", "--disable", "nope", "--config", writeConfig(t, ""))
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "unknown rule id(s): nope")
}

func TestApplyProfile_DuplicateRule(t *testing.T) {
	t.Parallel()

	catalog := rules.BuiltinRules()
	catalog = append(catalog, catalog[0])

	_, err := applyProfile(verification.VerificationConfig{}, catalog)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
	assert.Contains(t, err.Error(), "rule registry setup failed")

	var dup *rules.DuplicateRuleError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, catalog[0].ID, dup.ID)
}

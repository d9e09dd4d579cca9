package notify

import (
	"sync"
	"testing"

	"github.com/ariel-frischer/modelverifier/internal/report"
	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	mu     sync.Mutex
	visual []Notification
	sounds []string
}

func (s *recordingSender) SendVisual(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visual = append(s.visual, n)
	return nil
}

func (s *recordingSender) SendSound(soundFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds = append(s.sounds, soundFile)
	return nil
}

func (s *recordingSender) VisualAvailable() bool { return true }
func (s *recordingSender) SoundAvailable() bool  { return true }

func verdict(module string, v report.Verdict) *report.Report {
	r := &report.Report{Module: module, Verdict: v}
	if v == report.VerdictFail {
		r.Errors = 1
	}
	return r
}

func newTestHandler(config NotificationConfig) (*Handler, *recordingSender) {
	sender := &recordingSender{}
	h := NewHandlerWithSender(config, sender)
	h.interactive = func() bool { return true }
	h.ci = func() bool { return false }
	return h, sender
}

func enabledConfig() NotificationConfig {
	cfg := DefaultConfig()
	cfg.Enabled = true
	return cfg
}

func TestHandler_OnReport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		config    NotificationConfig
		sequence  []report.Verdict
		wantSent  []bool
		wantTypes []NotificationType
	}{
		"first pass is silent": {
			config:   enabledConfig(),
			sequence: []report.Verdict{report.VerdictPass},
			wantSent: []bool{false},
		},
		"first failure notifies": {
			config:    enabledConfig(),
			sequence:  []report.Verdict{report.VerdictFail},
			wantSent:  []bool{true},
			wantTypes: []NotificationType{TypeFailure},
		},
		"only changes notify": {
			config:    enabledConfig(),
			sequence:  []report.Verdict{report.VerdictPass, report.VerdictFail, report.VerdictFail, report.VerdictPass, report.VerdictPass},
			wantSent:  []bool{false, true, false, true, false},
			wantTypes: []NotificationType{TypeFailure, TypeSuccess},
		},
		"recovery disabled": {
			config: func() NotificationConfig {
				cfg := enabledConfig()
				cfg.OnRecovery = false
				return cfg
			}(),
			sequence:  []report.Verdict{report.VerdictFail, report.VerdictPass},
			wantSent:  []bool{true, false},
			wantTypes: []NotificationType{TypeFailure},
		},
		"disabled": {
			config:   DefaultConfig(),
			sequence: []report.Verdict{report.VerdictFail, report.VerdictPass},
			wantSent: []bool{false, false},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h, sender := newTestHandler(tt.config)

			for i, v := range tt.sequence {
				assert.Equal(t, tt.wantSent[i], h.OnReport(verdict("orders", v)), "report %d", i)
			}

			var types []NotificationType
			for _, n := range sender.visual {
				types = append(types, n.NotificationType)
				assert.Equal(t, "modelverifier: orders", n.Title)
			}
			assert.Equal(t, tt.wantTypes, types)
		})
	}
}

func TestHandler_ModulesAreTrackedSeparately(t *testing.T) {
	t.Parallel()

	h, sender := newTestHandler(enabledConfig())
	assert.True(t, h.OnReport(verdict("orders", report.VerdictFail)))
	assert.True(t, h.OnReport(verdict("billing", report.VerdictFail)))
	assert.False(t, h.OnReport(verdict("orders", report.VerdictFail)))
	assert.Len(t, sender.visual, 2)
}

func TestHandler_OutputType(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		outputType OutputType
		wantVisual int
		wantSounds int
	}{
		"visual": {outputType: OutputVisual, wantVisual: 1},
		"sound":  {outputType: OutputSound, wantSounds: 1},
		"both":   {outputType: OutputBoth, wantVisual: 1, wantSounds: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := enabledConfig()
			cfg.Type = tt.outputType
			cfg.SoundFile = "/tmp/ding.wav"
			h, sender := newTestHandler(cfg)

			h.OnReport(verdict("orders", report.VerdictFail))
			assert.Len(t, sender.visual, tt.wantVisual)
			assert.Len(t, sender.sounds, tt.wantSounds)
			if tt.wantSounds > 0 {
				assert.Equal(t, "/tmp/ding.wav", sender.sounds[0])
			}
		})
	}
}

func TestHandler_SkippedInCI(t *testing.T) {
	t.Parallel()

	h, sender := newTestHandler(enabledConfig())
	h.ci = func() bool { return true }
	assert.False(t, h.OnReport(verdict("orders", report.VerdictFail)))
	assert.Empty(t, sender.visual)
}

func TestHandler_SkippedWithoutTerminal(t *testing.T) {
	t.Parallel()

	h, sender := newTestHandler(enabledConfig())
	h.interactive = func() bool { return false }
	assert.False(t, h.OnReport(verdict("orders", report.VerdictFail)))
	assert.Empty(t, sender.visual)
}

func TestValidOutputType(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"sound", "visual", "both"} {
		assert.True(t, ValidOutputType(valid), valid)
	}
	assert.False(t, ValidOutputType("smoke-signal"))
}

func TestAppleScriptString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"say \"hi\" \\ bye"`, appleScriptString(`say "hi" \ bye`))
}

func TestIsCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, isCI())
}

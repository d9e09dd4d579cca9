package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/modelverifier/internal/rules"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// OutputFormat names a report rendering.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// ValidFormats lists all output formats.
var ValidFormats = []OutputFormat{OutputText, OutputJSON, OutputYAML}

// ParseOutputFormat parses a format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	for _, valid := range ValidFormats {
		if OutputFormat(s) == valid {
			return valid, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q: valid options are text, json, yaml", s)
}

// moduleGroup labels violations that are not attached to a type.
const moduleGroup = "(module)"

// Format renders the report as plain text. The output is a pure function of the report.
func Format(r *Report) string {
	return formatText(r, plain)
}

// palette colors parts of the text rendering.
type palette struct {
	pass, fail, err, warn, dim func(a ...any) string
}

var plain = palette{
	pass: fmt.Sprint,
	fail: fmt.Sprint,
	err:  fmt.Sprint,
	warn: fmt.Sprint,
	dim:  fmt.Sprint,
}

func colored() palette {
	return palette{
		pass: color.New(color.FgGreen, color.Bold).SprintFunc(),
		fail: color.New(color.FgRed, color.Bold).SprintFunc(),
		err:  color.New(color.FgRed).SprintFunc(),
		warn: color.New(color.FgYellow).SprintFunc(),
		dim:  color.New(color.Faint).SprintFunc(),
	}
}

func formatText(r *Report, p palette) string {
	var b strings.Builder

	verdict := p.pass("PASS")
	if !r.Passed() {
		verdict = p.fail("FAIL")
	}
	fmt.Fprintf(&b, "Module %s: %s (%s, %s)\n", r.Module, verdict,
		plural(r.Errors, "error"), plural(r.Warnings, "warning"))
	if r.Revision != "" {
		fmt.Fprintf(&b, "%s\n", p.dim("revision "+r.Revision))
	}

	for _, g := range r.groups() {
		name := g.name
		if name == "" {
			name = moduleGroup
		}
		if g.source != "" {
			fmt.Fprintf(&b, "\n  %s %s\n", name, p.dim("("+g.source+")"))
		} else {
			fmt.Fprintf(&b, "\n  %s\n", name)
		}
		for _, v := range g.violations {
			sev := p.warn(fmt.Sprintf("%-7s", v.Severity))
			if v.IsError() {
				sev = p.err(fmt.Sprintf("%-7s", v.Severity))
			}
			fmt.Fprintf(&b, "    %s [%s] %s\n", sev, v.RuleID, v.Message)
		}
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// reportView is the serialized shape of a Report.
type reportView struct {
	Module     string          `json:"module" yaml:"module"`
	Revision   string          `json:"revision,omitempty" yaml:"revision,omitempty"`
	Verdict    Verdict         `json:"verdict" yaml:"verdict"`
	Errors     int             `json:"errors" yaml:"errors"`
	Warnings   int             `json:"warnings" yaml:"warnings"`
	DurationMS int64           `json:"duration_ms" yaml:"duration_ms"`
	Violations []violationView `json:"violations" yaml:"violations"`
}

type violationView struct {
	Rule     string         `json:"rule" yaml:"rule"`
	Kind     rules.Kind     `json:"kind" yaml:"kind"`
	Severity rules.Severity `json:"severity" yaml:"severity"`
	Type     string         `json:"type,omitempty" yaml:"type,omitempty"`
	Source   string         `json:"source,omitempty" yaml:"source,omitempty"`
	Message  string         `json:"message" yaml:"message"`
}

func (r *Report) view() reportView {
	out := reportView{
		Module:     r.Module,
		Revision:   r.Revision,
		Verdict:    r.Verdict,
		Errors:     r.Errors,
		Warnings:   r.Warnings,
		DurationMS: r.Duration.Milliseconds(),
		Violations: make([]violationView, 0, len(r.Violations)),
	}
	for _, v := range r.Violations {
		vv := violationView{
			Rule:     v.RuleID,
			Kind:     v.Kind,
			Severity: v.Severity,
			Type:     v.TypeName(),
			Message:  v.Message,
		}
		if v.Type != nil {
			vv.Source = v.Type.Source.String()
		}
		out.Violations = append(out.Violations, vv)
	}
	return out
}

// FormatJSON renders the report as indented JSON.
func FormatJSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r.view(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return append(data, '\n'), nil
}

// FormatYAML renders the report as YAML.
func FormatYAML(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r.view()); err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the report in the given format to w. Text output is colored
// unless color output is disabled.
func Write(w io.Writer, r *Report, format OutputFormat) error {
	var data []byte
	switch format {
	case OutputText, "":
		p := plain
		if !color.NoColor {
			p = colored()
		}
		data = []byte(formatText(r, p))
	case OutputJSON:
		var err error
		if data, err = FormatJSON(r); err != nil {
			return err
		}
	case OutputYAML:
		var err error
		if data, err = FormatYAML(r); err != nil {
			return err
		}
	default:
		_, err := ParseOutputFormat(string(format))
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// WriteAll renders several reports. A single report is written as by Write.
// Otherwise text reports are separated by a blank line, JSON is an array and
// YAML is a stream of documents.
func WriteAll(w io.Writer, reports []*Report, format OutputFormat) error {
	if len(reports) == 1 {
		return Write(w, reports[0], format)
	}
	switch format {
	case OutputJSON:
		views := make([]reportView, 0, len(reports))
		for _, r := range reports {
			views = append(views, r.view())
		}
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling reports: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, r := range reports {
			if err := enc.Encode(r.view()); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	}
	for i, r := range reports {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
		if err := Write(w, r, format); err != nil {
			return err
		}
	}
	return nil
}

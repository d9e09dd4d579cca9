package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Display reports the progress of named steps to a writer.
// On a TTY each step shows a spinner until it finishes; otherwise only the
// final line is written. Display is safe for sequential use by one goroutine.
type Display struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols

	mu      sync.Mutex
	spinner *spinner.Spinner
	step    string
	started time.Time
	now     func() time.Time
}

// NewDisplay creates a Display for out with the given capabilities.
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
		now:     time.Now,
	}
}

// Start begins a step. A step still running is stopped without a result line.
func (d *Display) Start(step string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	d.step = step
	d.started = d.now()

	if !d.caps.IsTTY {
		return
	}
	d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(d.out))
	d.spinner.Suffix = " " + step
	d.spinner.Start()
}

// Succeed ends the current step with a check mark and detail.
func (d *Display) Succeed(detail string) {
	d.finish(d.symbols.Checkmark, color.FgGreen, detail)
}

// Fail ends the current step with a failure mark and detail.
func (d *Display) Fail(detail string) {
	d.finish(d.symbols.Failure, color.FgRed, detail)
}

func (d *Display) finish(symbol string, attr color.Attribute, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	if d.step == "" {
		return
	}
	if d.caps.SupportsColor {
		symbol = color.New(attr, color.Bold).Sprint(symbol)
	}
	elapsed := d.now().Sub(d.started).Round(time.Millisecond)
	line := fmt.Sprintf("%s %s (%s)", symbol, d.step, elapsed)
	if detail != "" {
		line += ": " + detail
	}
	fmt.Fprintln(d.out, line)
	d.step = ""
}

func (d *Display) stopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

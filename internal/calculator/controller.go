package calculator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// StatusCopied is flashed after the summary reached the clipboard.
	StatusCopied = "Summary copied to clipboard."
	// StatusCopyFailed is flashed when the clipboard rejected the write.
	StatusCopyFailed = "Copy failed. Select and copy manually."
	// DefaultStatusDelay is how long a status message stays visible.
	DefaultStatusDelay = 2500 * time.Millisecond
)

// ErrNoClipboard is returned by CopySummary when no clipboard is bound.
var ErrNoClipboard = errors.New("no clipboard available")

// Sink receives the rendered text of one display region.
type Sink interface {
	SetText(text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(text string)

// SetText calls f(text).
func (f SinkFunc) SetText(text string) { f(text) }

// Sinks maps every display region to the handle that shows it. Nil sinks are
// skipped.
type Sinks struct {
	Medicine           Sink
	Fees               Sink
	Preparation        Sink
	Transport          Sink
	PreparationPercent Sink
	TransportPercent   Sink
	Total              Sink
	Status             Sink
}

func (s Sinks) write(d Display) {
	setText(s.Medicine, d.Medicine)
	setText(s.Fees, d.Fees)
	setText(s.Preparation, d.Preparation)
	setText(s.Transport, d.Transport)
	setText(s.PreparationPercent, d.PreparationPercent)
	setText(s.TransportPercent, d.TransportPercent)
	setText(s.Total, d.Total)
}

func setText(s Sink, text string) {
	if s != nil {
		s.SetText(text)
	}
}

// InputForm is the editable side of the calculator surface.
type InputForm interface {
	Values() RawInputs
	Clear()
}

// InputEvents delivers input-changed notifications carrying the four raw
// field values.
type InputEvents interface {
	OnChange(handler func(RawInputs))
}

// Clipboard writes plain text to a system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

// WriteText calls f(ctx, text).
func (f ClipboardFunc) WriteText(ctx context.Context, text string) error { return f(ctx, text) }

// Option configures a Calculator.
type Option func(*Calculator)

// WithClipboard binds the clipboard used by CopySummary.
func WithClipboard(c Clipboard) Option {
	return func(calc *Calculator) { calc.clipboard = c }
}

// WithPractitioner sets the name used in the summary title.
func WithPractitioner(name string) Option {
	return func(calc *Calculator) {
		if strings.TrimSpace(name) != "" {
			calc.practitioner = name
		}
	}
}

// WithStatusDelay overrides how long status messages stay visible.
func WithStatusDelay(d time.Duration) Option {
	return func(calc *Calculator) {
		if d > 0 {
			calc.statusDelay = d
		}
	}
}

// Calculator binds the pure pipeline to an input form and a set of display
// sinks. Sink writes are serialized, so sinks need no locking of their own
// as long as only one Calculator writes to them.
type Calculator struct {
	form         InputForm
	sinks        Sinks
	formatter    Formatter
	clipboard    Clipboard
	practitioner string
	statusDelay  time.Duration

	mu          sync.Mutex
	statusTimer *time.Timer
	statusGen   uint64
}

// New returns a Calculator reading form and writing sinks.
func New(form InputForm, sinks Sinks, f Formatter, opts ...Option) *Calculator {
	c := &Calculator{
		form:         form,
		sinks:        sinks,
		formatter:    f,
		practitioner: DefaultPractitioner,
		statusDelay:  DefaultStatusDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind registers the calculator as the handler of input-changed events.
func (c *Calculator) Bind(events InputEvents) {
	events.OnChange(func(raw RawInputs) {
		c.Render(raw)
	})
}

// Calculate recomputes from the current form values and refreshes the
// display.
func (c *Calculator) Calculate() Result {
	return c.Render(c.form.Values())
}

// Render runs the pipeline for raw and writes every display region.
func (c *Calculator) Render(raw RawInputs) Result {
	res := Compute(raw, c.formatter)

	c.mu.Lock()
	c.sinks.write(res.Display)
	c.mu.Unlock()

	return res
}

// Reset clears the form, refreshes the display and clears any status message.
func (c *Calculator) Reset() Result {
	c.form.Clear()
	res := c.Calculate()

	c.mu.Lock()
	c.cancelStatusLocked()
	setText(c.sinks.Status, "")
	c.mu.Unlock()

	return res
}

// SummaryText builds the plain-text summary of the current form values.
func (c *Calculator) SummaryText() string {
	in := c.form.Values().Normalize()
	return Summary(c.practitioner, in, Derive(in), c.formatter)
}

// CopySummary writes the summary to the clipboard once and flashes the
// outcome on the status sink. The returned error only reports what happened;
// the user-facing outcome is the status message.
func (c *Calculator) CopySummary(ctx context.Context) error {
	err := c.attemptCopy(ctx, c.SummaryText())
	if err != nil {
		c.flashStatus(StatusCopyFailed)
		return fmt.Errorf("copy summary: %w", err)
	}
	c.flashStatus(StatusCopied)
	return nil
}

func (c *Calculator) attemptCopy(ctx context.Context, text string) error {
	if c.clipboard == nil {
		return ErrNoClipboard
	}
	return c.clipboard.WriteText(ctx, text)
}

// flashStatus shows msg and schedules it to be cleared. A pending clear is
// cancelled first, and the generation check keeps a timer that already fired
// from clearing a newer message.
func (c *Calculator) flashStatus(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelStatusLocked()
	setText(c.sinks.Status, msg)

	gen := c.statusGen
	c.statusTimer = time.AfterFunc(c.statusDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.statusGen != gen {
			return
		}
		setText(c.sinks.Status, "")
		c.statusTimer = nil
	})
}

func (c *Calculator) cancelStatusLocked() {
	c.statusGen++
	if c.statusTimer != nil {
		c.statusTimer.Stop()
		c.statusTimer = nil
	}
}

// Close cancels a pending status clear.
func (c *Calculator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelStatusLocked()
}

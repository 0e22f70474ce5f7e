// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package render draws session output on a terminal with pterm. Reasoning is
// dimmed, SQL is printed as-is, and a spinner covers the wait before the first
// fragment arrives.
package render

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"sqlpilot/cli/internal/logging"
	"sqlpilot/cli/internal/session"
	"sqlpilot/cli/internal/stream"
)

// Options configures a Terminal.
type Options struct {
	Out io.Writer
	Err io.Writer
	// Spinner enables the waiting animation. Disable it when Out is not a TTY.
	Spinner bool
	// Host names the model endpoint in error hints.
	Host string
}

// Terminal is a session.Sink that writes to a console.
type Terminal struct {
	out     io.Writer
	err     io.Writer
	spinner bool
	host    string

	mu        sync.Mutex
	stop      func()
	wroteText bool
	endsLine  bool

	reasoning *pterm.Style
	header    *pterm.Style
	marker    *pterm.Style
}

var _ session.Sink = (*Terminal)(nil)

// NewTerminal returns a Terminal writing to opts.Out and opts.Err, defaulting
// to stdout and stderr.
func NewTerminal(opts Options) *Terminal {
	t := &Terminal{
		out:       opts.Out,
		err:       opts.Err,
		spinner:   opts.Spinner,
		host:      opts.Host,
		reasoning: pterm.NewStyle(pterm.FgGray),
		header:    pterm.NewStyle(pterm.FgCyan, pterm.Bold),
		marker:    pterm.NewStyle(pterm.FgGreen, pterm.Bold),
	}
	if t.out == nil {
		t.out = os.Stdout
	}
	if t.err == nil {
		t.err = os.Stderr
	}
	return t
}

// Begin starts the waiting spinner.
func (t *Terminal) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wroteText = false
	t.endsLine = true
	if t.spinner {
		t.stop = StartSpinner(t.out, "Thinking...", Frames, 120*time.Millisecond)
	}
}

// Event prints one display unit, stopping the spinner on the first one.
func (t *Terminal) Event(ev stream.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopSpinner()

	switch ev.Kind {
	case stream.EventReasoningHeader:
		t.write(t.header.Sprint(ev.Text), ev.Text)
	case stream.EventReasoning:
		t.write(t.reasoning.Sprint(ev.Text), ev.Text)
	case stream.EventTransition:
		t.write(t.marker.Sprint(ev.Text), ev.Text)
	case stream.EventContent:
		t.write(ev.Text, ev.Text)
	}
}

// End prints the outcome of a turn.
func (t *Terminal) End(res *session.Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopSpinner()

	if t.wroteText && !t.endsLine {
		pterm.Fprintln(t.out)
	}
	if err != nil {
		pterm.Fprintln(t.err)
		pterm.Fprintln(t.err, logging.FormatError(err, t.host))
		return
	}
	if res == nil {
		return
	}
	pterm.Fprintln(t.out)
	if res.Path != "" {
		pterm.Fprintln(t.out, pterm.Success.Sprintf("Saved to %s", res.Path))
	}
	if res.SaveErr != nil {
		pterm.Fprintln(t.err, pterm.Warning.Sprint(logging.PresentError("SQL was not saved", res.SaveErr)))
	}
	pterm.Fprintln(t.out, t.reasoning.Sprintf("(%s)", res.Duration.Round(100*time.Millisecond)))
}

// Notice prints informational text.
func (t *Terminal) Notice(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopSpinner()
	pterm.Fprintln(t.out, text)
}

// write emits styled and records whether plain ended with a newline.
func (t *Terminal) write(styled, plain string) {
	if plain == "" {
		return
	}
	pterm.Fprint(t.out, styled)
	t.wroteText = true
	t.endsLine = plain[len(plain)-1] == '\n'
}

func (t *Terminal) stopSpinner() {
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

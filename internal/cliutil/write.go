// Package cliutil provides utilities for CLI operations.
package cliutil

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil { //nolint:gosec // G705 - CLI tool, not a web server
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// Status writes one-line status messages for a command. Success lines are
// green, warnings yellow and failures red when colour is enabled.
type Status struct {
	w       io.Writer
	success *color.Color
	warn    *color.Color
	failure *color.Color
}

// NewStatus returns a Status writing to f, coloured only when f is a terminal.
func NewStatus(f *os.File) *Status {
	return NewStatusWriter(f, IsTerminal(f))
}

// NewStatusWriter returns a Status writing to w with colour forced on or off.
func NewStatusWriter(w io.Writer, colored bool) *Status {
	s := &Status{
		w:       w,
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{s.success, s.warn, s.failure} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// Infof writes an uncoloured line.
func (s *Status) Infof(format string, args ...any) {
	Writef(s.w, format+"\n", args...)
}

// Successf writes a success line prefixed with a check mark.
func (s *Status) Successf(format string, args ...any) {
	s.line(s.success, "✓ ", format, args...)
}

// Warnf writes a warning line.
func (s *Status) Warnf(format string, args ...any) {
	s.line(s.warn, "Warning: ", format, args...)
}

// Failuref writes a failure line prefixed with a cross.
func (s *Status) Failuref(format string, args ...any) {
	s.line(s.failure, "✗ ", format, args...)
}

func (s *Status) line(c *color.Color, prefix, format string, args ...any) {
	if _, err := c.Fprintf(s.w, prefix+format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		return
	}
	Writef(s.w, "\n")
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

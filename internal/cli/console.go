package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
)

// Console prints user-facing status messages to stderr so stdout stays
// clean for tables and exports. A quiet console prints nothing but errors.
type Console struct {
	Quiet bool
	out   io.Writer
}

// NewConsole returns a console writing to stderr.
func NewConsole(quiet bool) *Console {
	return &Console{Quiet: quiet, out: os.Stderr}
}

// NewConsoleWriter returns a console writing to w.
func NewConsoleWriter(w io.Writer, quiet bool) *Console {
	return &Console{Quiet: quiet, out: w}
}

func (c *Console) Info(format string, a ...any) {
	if c.Quiet {
		return
	}
	pterm.Info.WithWriter(c.out).Printfln(format, a...)
}

func (c *Console) Success(format string, a ...any) {
	if c.Quiet {
		return
	}
	pterm.Success.WithWriter(c.out).Printfln(format, a...)
}

func (c *Console) Warning(format string, a ...any) {
	if c.Quiet {
		return
	}
	pterm.Warning.WithWriter(c.out).Printfln(format, a...)
}

// Error is printed even when quiet.
func (c *Console) Error(format string, a ...any) {
	pterm.Error.WithWriter(c.out).Printfln(format, a...)
}

// Status is a running spinner with updatable text.
type Status struct {
	spinner *pterm.SpinnerPrinter
}

// Status starts a spinner. It is a no-op for quiet consoles.
func (c *Console) Status(message string) *Status {
	if c.Quiet {
		return &Status{}
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(c.out).WithRemoveWhenDone(true).Start(message)
	if err != nil {
		return &Status{}
	}
	return &Status{spinner: spinner}
}

// Update replaces the spinner text.
func (s *Status) Update(message string) {
	if s.spinner != nil {
		s.spinner.UpdateText(message)
	}
}

// Progress shows bytes consumed against the expected total.
func (s *Status) Progress(label string, current, total int64) {
	if s.spinner == nil {
		return
	}
	if total > 0 {
		s.spinner.UpdateText(fmt.Sprintf("%s %s / %s", label, FormatBytes(current), FormatBytes(total)))
		return
	}
	s.spinner.UpdateText(fmt.Sprintf("%s %s", label, FormatBytes(current)))
}

// Stop clears the spinner.
func (s *Status) Stop() {
	if s.spinner != nil {
		_ = s.spinner.Stop()
	}
}

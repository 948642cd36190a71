// Package presenter provides consistent CLI output for user-facing
// messages: success, warning, error, and informational output with color
// support and a quiet mode. Tool responses never go through here; this is
// for the human running the CLI.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode controls whether output is colorized.
type ColorMode int

const (
	// ColorAuto lets the color package detect terminal capabilities.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output.
	ColorAlways
	// ColorNever disables colored output.
	ColorNever
)

// TerminalPresenter writes formatted messages to a terminal.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	quiet       bool
}

// New creates a presenter on stdout/stderr with color mode detected from
// the environment (NO_COLOR and SKILLCORTEX_COLOR).
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a presenter with explicit writers and color mode.
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &TerminalPresenter{output: output, errorOutput: errorOutput}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch os.Getenv("SKILLCORTEX_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// SetQuiet suppresses everything except errors.
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// Error writes an error with optional context to stderr. Errors are shown
// even in quiet mode.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}
	c := color.New(color.FgRed, color.Bold)
	if context != "" {
		c.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		c.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success writes a success message.
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Warning writes a warning message.
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

// Info writes a plain informational message.
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, message)
}

// Section writes an underlined section header.
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	c := color.New(color.Bold)
	c.Fprintf(p.output, "%s\n", title)
	c.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

var defaultPresenter = New()

// Error writes an error via the default presenter.
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success writes a success message via the default presenter.
func Success(message string) { defaultPresenter.Success(message) }

// Warning writes a warning via the default presenter.
func Warning(message string) { defaultPresenter.Warning(message) }

// Info writes an informational message via the default presenter.
func Info(message string) { defaultPresenter.Info(message) }

// Section writes a section header via the default presenter.
func Section(title string) { defaultPresenter.Section(title) }

// SetQuiet toggles quiet mode on the default presenter.
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }

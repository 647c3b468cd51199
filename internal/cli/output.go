// Package cli provides colored status output for the grading command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// Colorize returns text wrapped in color when w is a terminal.
func Colorize(w io.Writer, text string, color string) string {
	if !isTerminal(w) {
		return text
	}
	return color + text + ColorReset
}

// Success prints a success message
func Success(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Colorize(w, "✓", ColorGreen), message)
}

// Error prints an error message
func Error(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Colorize(w, "✗", ColorRed), message)
}

// Warning prints a warning message
func Warning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Colorize(w, "⚠", ColorYellow), message)
}

// Info prints an info message
func Info(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", Colorize(w, "ℹ", ColorBlue), message)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue, event types and ids
	colorMuted   = 245 // medium gray, timestamps
	colorSuccess = 71  // green
	colorFailure = 167 // red
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// RenderSuccess returns s in green.
func RenderSuccess(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorSuccess, s)
}

// RenderFailure returns s in red.
func RenderFailure(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorFailure, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

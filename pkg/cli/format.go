// Package cli provides shared terminal formatting for the driftwatch CLI:
// ANSI color helpers, column-aligned tables, and renderers for validation
// reports, snapshot diffs, health checks, and topology issues.
package cli

import (
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

// Green wraps s in ANSI green. Returns s unchanged when NO_COLOR is set.
func Green(s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

// Yellow wraps s in ANSI yellow. Returns s unchanged when NO_COLOR is set.
func Yellow(s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

// Red wraps s in ANSI red. Returns s unchanged when NO_COLOR is set.
func Red(s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[31m" + s + "\033[0m"
}

// Bold wraps s in ANSI bold. Returns s unchanged when NO_COLOR is set.
func Bold(s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

// Dim wraps s in ANSI dim. Returns s unchanged when NO_COLOR is set.
func Dim(s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}

// Severity colors a validation or topology severity label: critical and
// high in red, medium and low in yellow, info dimmed. Unknown labels pass
// through unchanged.
func Severity(sev string) string {
	switch sev {
	case "critical", "high":
		return Red(sev)
	case "medium", "low":
		return Yellow(sev)
	case "info":
		return Dim(sev)
	}
	return sev
}

// DotPad pads name with dots to the given width, for check-status lines like
// "bgp-neighbors-established ....... PASS".
// Example: DotPad("leaf1", 12) → "leaf1 ......"
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}

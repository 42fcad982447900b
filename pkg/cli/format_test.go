package cli

import (
	"strings"
	"testing"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := colorEnabled
	colorEnabled = enabled
	t.Cleanup(func() { colorEnabled = prev })
}

func TestSeverityColors(t *testing.T) {
	withColor(t, true)
	tests := []struct {
		sev  string
		want string
	}{
		{"critical", "\033[31mcritical\033[0m"},
		{"high", "\033[31mhigh\033[0m"},
		{"medium", "\033[33mmedium\033[0m"},
		{"low", "\033[33mlow\033[0m"},
		{"info", "\033[2minfo\033[0m"},
		{"bogus", "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.sev, func(t *testing.T) {
			if got := Severity(tt.sev); got != tt.want {
				t.Errorf("Severity(%q) = %q, want %q", tt.sev, got, tt.want)
			}
		})
	}
}

func TestSeverityPlainWithoutColor(t *testing.T) {
	withColor(t, false)
	for _, sev := range []string{"critical", "medium", "info"} {
		if got := Severity(sev); got != sev {
			t.Errorf("Severity(%q) = %q, want unchanged", sev, got)
		}
	}
}

func TestColorWrapping(t *testing.T) {
	withColor(t, true)
	tests := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Green", Green, "\033[32m"},
		{"Yellow", Yellow, "\033[33m"},
		{"Red", Red, "\033[31m"},
		{"Bold", Bold, "\033[1m"},
		{"Dim", Dim, "\033[2m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("reachable")
			if !strings.HasPrefix(got, tt.prefix) || !strings.HasSuffix(got, "\033[0m") {
				t.Errorf("%s(reachable) = %q, want %s-wrapped", tt.name, got, tt.prefix)
			}
			if !strings.Contains(got, "reachable") {
				t.Errorf("%s dropped its input: %q", tt.name, got)
			}
		})
	}
}

func TestColorPassThroughWhenDisabled(t *testing.T) {
	withColor(t, false)
	if got := Green("reachable"); got != "reachable" {
		t.Errorf("Green with color disabled = %q", got)
	}
	if got := Red("FAIL"); got != "FAIL" {
		t.Errorf("Red with color disabled = %q", got)
	}
}

func TestDotPad(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"check name", "bgp-neighbors-established", 32, "bgp-neighbors-established " + strings.Repeat(".", 6)},
		{"short device", "leaf1", 12, "leaf1 " + strings.Repeat(".", 6)},
		{"no room for dots", "interface-error-counters", 25, "interface-error-counters"},
		{"name at width", "spine1", 6, "spine1"},
		{"name past width", "very-long-assertion-name", 8, "very-long-assertion-name"},
		{"zero width", "leaf1", 0, "leaf1"},
		{"empty name", "", 8, " " + strings.Repeat(".", 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DotPad(tt.input, tt.width); got != tt.want {
				t.Errorf("DotPad(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestDotPadFillsExactWidth(t *testing.T) {
	if got := DotPad("leaf1", 20); len(got) != 20 {
		t.Errorf("DotPad(leaf1, 20) len = %d, want 20", len(got))
	}
}

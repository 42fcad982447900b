package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// defaultTableWidth caps table output for terminals; validation messages and
// topology descriptions can run long, so the widest column wraps instead of
// pushing rows past this.
const defaultTableWidth = 100

// Table buffers rows and renders them column-aligned on Flush. Column widths
// come from the widest cell per column, capped at defaultTableWidth total;
// cells in a capped column word-wrap onto continuation lines. An empty table
// produces no output.
type Table struct {
	out      io.Writer
	headers  []string
	rows     [][]string
	prefix   string
	maxWidth int
}

// NewTable creates a table with the given column headers, writing to stdout.
func NewTable(headers ...string) *Table {
	return &Table{
		out:      os.Stdout,
		headers:  headers,
		maxWidth: defaultTableWidth,
	}
}

// WithPrefix sets a string prepended to each line (headers, divider, rows).
// Useful for indenting per-device sub-tables within larger output.
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// Row buffers one row. Missing trailing cells render empty.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush renders headers, a dash divider, and all buffered rows. If no rows
// were added, nothing is printed.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visualLen(cell) > widths[i] {
				widths[i] = visualLen(cell)
			}
		}
	}
	widths = capWidths(widths, t.headers, t.maxWidth, len(t.prefix))

	t.printRow(t.headers, widths)
	dividers := make([]string, len(widths))
	for i, w := range widths {
		dividers[i] = strings.Repeat("-", w)
	}
	t.printRow(dividers, widths)
	for _, row := range t.rows {
		t.printRow(row, widths)
	}
}

// printRow writes one logical row as one or more physical lines, wrapping
// each cell to its column width.
func (t *Table) printRow(cells []string, widths []int) {
	wrapped := make([][]string, len(widths))
	height := 1
	for i := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		wrapped[i] = wrapCell(cell, widths[i])
		if len(wrapped[i]) > height {
			height = len(wrapped[i])
		}
	}
	for line := 0; line < height; line++ {
		parts := make([]string, len(widths))
		for i := range widths {
			var s string
			if line < len(wrapped[i]) {
				s = wrapped[i][line]
			}
			if i < len(widths)-1 {
				s += strings.Repeat(" ", widths[i]-visualLen(s))
			}
			parts[i] = s
		}
		fmt.Fprintln(t.out, t.prefix+strings.TrimRight(strings.Join(parts, "  "), " "))
	}
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// visualLen is the printed width of s, ignoring ANSI color escapes.
func visualLen(s string) int {
	return len(ansiPattern.ReplaceAllString(s, ""))
}

// capWidths shrinks the widest column until the table (widths plus two-space
// gutters plus the line prefix) fits in maxTotal. No column is reduced below
// its header width; when the widest column is already at that floor the
// table is left over-wide.
func capWidths(widths []int, headers []string, maxTotal, prefixLen int) []int {
	capped := append([]int(nil), widths...)
	total := prefixLen + 2*(len(capped)-1)
	for _, w := range capped {
		total += w
	}
	for total > maxTotal {
		widest := 0
		for i := 1; i < len(capped); i++ {
			if capped[i] > capped[widest] {
				widest = i
			}
		}
		floor := visualLen(headers[widest])
		if capped[widest] <= floor {
			break
		}
		reduce := total - maxTotal
		if capped[widest]-reduce < floor {
			reduce = capped[widest] - floor
		}
		capped[widest] -= reduce
		total -= reduce
	}
	return capped
}

// wrapCell splits s into lines no wider than width, breaking at spaces and
// hard-breaking words longer than the width. Strings that already fit are
// returned unchanged, colored or not.
func wrapCell(s string, width int) []string {
	if width <= 0 || visualLen(s) <= width {
		return []string{s}
	}
	var lines []string
	var line string
	for _, word := range strings.Fields(s) {
		for visualLen(word) > width {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}
		switch {
		case line == "":
			line = word
		case visualLen(line)+1+visualLen(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

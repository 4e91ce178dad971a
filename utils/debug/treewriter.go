// Package debug produces human readable dumps stored in the debug report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter builds indented text, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

// Bytes returns accumulated text, convenient for report storage.
func (tw TreeWriter) Bytes() []byte {
	return []byte(tw.w.String())
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Value writes "label: value" line with value quoted.
func (tw TreeWriter) Value(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// List writes label followed by items one per line on the next level.
// Empty list is written as "label: []".
func (tw TreeWriter) List(depth int, label string, items []string) {
	if len(items) == 0 {
		tw.Line(depth, "%s: []", label)
		return
	}
	tw.Line(depth, "%s: (%d)", label, len(items))
	for _, item := range items {
		tw.indent(depth + 1)
		tw.w.WriteString(item)
		tw.w.WriteByte('\n')
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

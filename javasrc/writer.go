// Package javasrc builds Java source text for generated classes.
//
// SourceWriter is a line-oriented writer with indentation scopes, and
// ClassComposer wraps a class body in its compilation unit: package
// declaration, imports and the class header.
package javasrc

import (
	"bytes"
	"fmt"
	"strings"
)

// DefaultIndent is the indentation unit used by NewSourceWriter.
const DefaultIndent = "    "

// SourceWriter accumulates Java source one line at a time.
// It is not safe for concurrent use.
type SourceWriter struct {
	buf   bytes.Buffer
	unit  string
	depth int
}

// NewSourceWriter returns a SourceWriter indenting with DefaultIndent.
func NewSourceWriter() *SourceWriter {
	return &SourceWriter{unit: DefaultIndent}
}

// Println writes one line at the current indentation. Embedded newlines
// start new lines at the same indentation. Blank lines carry no indentation.
func (w *SourceWriter) Println(line string) {
	for _, l := range strings.Split(line, "\n") {
		if strings.TrimSpace(l) != "" {
			for range w.depth {
				w.buf.WriteString(w.unit)
			}
			w.buf.WriteString(l)
		}
		w.buf.WriteByte('\n')
	}
}

// Printf formats according to format and writes the result as a line.
func (w *SourceWriter) Printf(format string, args ...any) {
	w.Println(fmt.Sprintf(format, args...))
}

// Newline writes an empty line.
func (w *SourceWriter) Newline() {
	w.buf.WriteByte('\n')
}

// Indent increases the indentation of subsequent lines by one unit.
func (w *SourceWriter) Indent() {
	w.depth++
}

// Outdent decreases the indentation by one unit. Outdenting past the left
// margin is a no-op.
func (w *SourceWriter) Outdent() {
	if w.depth > 0 {
		w.depth--
	}
}

// Depth returns the current indentation level.
func (w *SourceWriter) Depth() int {
	return w.depth
}

// Bytes returns the accumulated source.
func (w *SourceWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// String returns the accumulated source.
func (w *SourceWriter) String() string {
	return w.buf.String()
}

package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter writes each document as JSON followed by a newline.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
	}
}

// Write encodes one document. URLs are left unescaped.
func (w *JSONWriter) Write(data any) error {
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if w.pretty {
		enc.SetIndent("", w.indent)
	}
	// Encode terminates the document with a newline
	return enc.Encode(data)
}

// Flush writes buffered output.
func (w *JSONWriter) Flush() error {
	return w.w.Flush()
}

package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Writer streams chunk records into a JSON array, one record per line:
// "[\n" + records joined by ",\n" + "\n]\n".
type Writer struct {
	w       io.Writer
	buf     bytes.Buffer
	enc     *json.Encoder
	started bool
	count   int
	closed  bool
}

// NewWriter creates a writer. Nothing is written until the first record or Close.
func NewWriter(w io.Writer) *Writer {
	jw := &Writer{w: w}
	jw.enc = json.NewEncoder(&jw.buf)
	// Icon tokens contain angle brackets; keep them readable.
	jw.enc.SetEscapeHTML(false)
	return jw
}

// Write appends one record.
func (jw *Writer) Write(c domain.Chunk) error {
	if jw.closed {
		return fmt.Errorf("write record: writer closed")
	}

	jw.buf.Reset()
	if !jw.started {
		jw.buf.WriteString("[\n")
		jw.started = true
	} else {
		jw.buf.WriteString(",\n")
	}
	if err := jw.enc.Encode(c); err != nil {
		return fmt.Errorf("encode %s: %w", c.ID, err)
	}
	// Encode appends a newline; the separator or closing bracket supplies it.
	jw.buf.Truncate(jw.buf.Len() - 1)

	if _, err := jw.w.Write(jw.buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", c.ID, err)
	}
	jw.count++
	return nil
}

// Count returns the number of records written.
func (jw *Writer) Count() int {
	return jw.count
}

// Close terminates the array. It does not close the underlying writer.
func (jw *Writer) Close() error {
	if jw.closed {
		return nil
	}
	jw.closed = true

	tail := "\n]\n"
	if !jw.started {
		tail = "[\n]\n"
	}
	if _, err := io.WriteString(jw.w, tail); err != nil {
		return fmt.Errorf("close array: %w", err)
	}
	return nil
}

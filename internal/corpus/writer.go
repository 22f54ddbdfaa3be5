// Package corpus reads, writes and validates corpus files: JSON Lines of
// commit records, optionally wrapped in an LZ4 frame.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

// Writer appends records as JSON Lines. It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	lz      *lz4.Writer
	enc     *json.Encoder
	records int
}

// NewWriter writes plain JSON Lines to w, or an LZ4 frame when compress is
// set. Close must be called to flush.
func NewWriter(w io.Writer, compress bool) *Writer {
	cw := &Writer{}

	if compress {
		cw.lz = lz4.NewWriter(w)
		w = cw.lz
	}

	cw.buf = bufio.NewWriter(w)
	cw.enc = json.NewEncoder(cw.buf)
	cw.enc.SetEscapeHTML(false)

	return cw
}

// Write appends one record followed by a newline.
func (w *Writer) Write(rec *mining.CommitRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.enc.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	w.records++

	return nil
}

// Records returns the number of records written so far.
func (w *Writer) Records() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.records
}

// Close flushes and terminates the LZ4 frame. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.buf.Flush()
	if err != nil {
		return fmt.Errorf("flush corpus: %w", err)
	}

	if w.lz != nil {
		err = w.lz.Close()
		if err != nil {
			return fmt.Errorf("close lz4 frame: %w", err)
		}
	}

	return nil
}

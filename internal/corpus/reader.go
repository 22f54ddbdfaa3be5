package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

// lz4Magic starts every LZ4 frame.
var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

// maxLineSize bounds a single corpus line. Records hold at most a handful of
// source lines, so this is generous.
const maxLineSize = 64 << 20

// Reader iterates the lines of a corpus file.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader reads plain or LZ4-compressed JSON Lines; the format is detected
// from the first bytes.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(lz4Magic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read corpus header: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, lz4Magic) {
		src = &frames{src: br, zr: lz4.NewReader(br)}
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Reader{scanner: scanner}, nil
}

// Next returns the next non-empty raw line and its 1-based number, or io.EOF.
func (r *Reader) Next() ([]byte, int, error) {
	for r.scanner.Scan() {
		r.line++

		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		return line, r.line, nil
	}

	err := r.scanner.Err()
	if err != nil {
		return nil, r.line, fmt.Errorf("read corpus line %d: %w", r.line+1, err)
	}

	return nil, r.line, io.EOF
}

// Record decodes the next record.
func (r *Reader) Record() (*mining.CommitRecord, error) {
	line, num, err := r.Next()
	if err != nil {
		return nil, err
	}

	var rec mining.CommitRecord

	err = json.Unmarshal(line, &rec)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", num, err)
	}

	return &rec, nil
}

// ReadAll decodes every record of r.
func ReadAll(r io.Reader) ([]*mining.CommitRecord, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}

	var records []*mining.CommitRecord

	for {
		rec, recErr := reader.Record()
		if errors.Is(recErr, io.EOF) {
			return records, nil
		}

		if recErr != nil {
			return records, recErr
		}

		records = append(records, rec)
	}
}

// frames decodes a sequence of concatenated LZ4 frames, as produced by runs
// that append to an existing compressed corpus.
type frames struct {
	src *bufio.Reader
	zr  *lz4.Reader
}

func (f *frames) Read(p []byte) (int, error) {
	for {
		n, err := f.zr.Read(p)
		if !errors.Is(err, io.EOF) {
			return n, err
		}

		if n > 0 {
			return n, nil
		}

		head, peekErr := f.src.Peek(len(lz4Magic))
		if peekErr != nil || !bytes.Equal(head, lz4Magic) {
			return 0, io.EOF
		}

		f.zr.Reset(f.src)
	}
}

package corpus

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

//go:embed schema.json
var schemaJSON []byte

// Limits are the record bounds checked beyond the schema. Zero fields are
// not checked.
type Limits struct {
	MessageLength int
	MinPairs      int
	MaxPairs      int
}

// Problem is one invalid line.
type Problem struct {
	Line    int
	Message string
}

// Report summarizes a validation run.
type Report struct {
	Records  int
	Problems []Problem
}

// Valid reports whether no problem was found.
func (r *Report) Valid() bool {
	return len(r.Problems) == 0
}

// Validator checks corpus lines against the record schema and Limits.
type Validator struct {
	schema *gojsonschema.Schema
	limits Limits
}

// NewValidator compiles the embedded record schema.
func NewValidator(limits Limits) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}

	return &Validator{schema: schema, limits: limits}, nil
}

// Validate reads every line of r. Invalid lines are reported, not returned as
// errors; the error is reserved for unreadable input.
func (v *Validator) Validate(r io.Reader) (*Report, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	for {
		line, num, nextErr := reader.Next()
		if errors.Is(nextErr, io.EOF) {
			return report, nil
		}

		if nextErr != nil {
			return report, nextErr
		}

		report.Records++

		for _, msg := range v.checkLine(line) {
			report.Problems = append(report.Problems, Problem{Line: num, Message: msg})
		}
	}
}

func (v *Validator) checkLine(line []byte) []string {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(line))
	if err != nil {
		return []string{fmt.Sprintf("invalid JSON: %v", err)}
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}

		return msgs
	}

	var rec mining.CommitRecord

	err = json.Unmarshal(line, &rec)
	if err != nil {
		return []string{err.Error()}
	}

	return v.checkRecord(&rec)
}

func (v *Validator) checkRecord(rec *mining.CommitRecord) []string {
	var msgs []string

	if len(rec.Diffs) != len(rec.Paths) {
		msgs = append(msgs, fmt.Sprintf("diffs has %d entries but paths has %d", len(rec.Diffs), len(rec.Paths)))
	}

	if v.limits.MinPairs > 0 && len(rec.Diffs) < v.limits.MinPairs {
		msgs = append(msgs, fmt.Sprintf("%d pairs is below the minimum of %d", len(rec.Diffs), v.limits.MinPairs))
	}

	if v.limits.MaxPairs > 0 && len(rec.Diffs) > v.limits.MaxPairs {
		msgs = append(msgs, fmt.Sprintf("%d pairs is above the maximum of %d", len(rec.Diffs), v.limits.MaxPairs))
	}

	if n := utf8.RuneCountInString(rec.Message); v.limits.MessageLength > 0 && n > v.limits.MessageLength {
		msgs = append(msgs, fmt.Sprintf("message has %d characters, limit is %d", n, v.limits.MessageLength))
	}

	return msgs
}

// Package linediff computes ndiff-style line operations between two texts.
//
// Lines are aligned with diff-match-patch in rune mode (one rune per distinct
// line). Each run of non-equal edits forms a replace hunk that is refined by
// pairing its most similar removed/added lines, which interleaves them and
// annotates their character-level differences with intraline markers.
package linediff

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/typocorpus/pkg/textutil"
)

const (
	// DefaultMaxChars is the largest text, in code points, that is diffed.
	DefaultMaxChars = 50000
	// DefaultCutoff is the minimum similarity for two lines to be paired
	// inside a replace hunk.
	DefaultCutoff = 0.75
	// DefaultMaxDepth bounds nested replace refinement.
	DefaultMaxDepth = 300
)

// surrogateStart and surrogateSize delimit the UTF-16 surrogate block, which
// cannot be used as a line rune because it does not survive string
// conversion.
const (
	surrogateStart = 0xD800
	surrogateSize  = 0x800
)

// maxLineRunes is the number of distinct lines representable as runes.
const maxLineRunes = utf8.MaxRune + 1 - surrogateSize

// Sentinel errors. All of them mean "no operations for this pair of texts"
// and are recoverable for the caller.
var (
	// ErrNotText is returned when either side is not valid UTF-8.
	ErrNotText = errors.New("content is not UTF-8 text")
	// ErrTooLarge is returned when either side exceeds the size limit.
	ErrTooLarge = errors.New("content exceeds diff size limit")
	// ErrDepthExceeded is returned when replace refinement nests deeper than
	// the configured bound.
	ErrDepthExceeded = errors.New("replace refinement depth exceeded")
)

// Options configures a Differ. Zero fields take their defaults.
type Options struct {
	// MaxChars is the per-side size guard in code points.
	MaxChars int
	// Cutoff is the similarity threshold for pairing lines in a hunk.
	Cutoff float64
	// MaxDepth bounds replace refinement recursion.
	MaxDepth int
	// Timeout bounds each diff-match-patch call. Zero means no deadline,
	// which keeps the alignment reproducible.
	Timeout time.Duration
}

// DefaultOptions returns the options used by the corpus miner.
func DefaultOptions() Options {
	return Options{
		MaxChars: DefaultMaxChars,
		Cutoff:   DefaultCutoff,
		MaxDepth: DefaultMaxDepth,
	}
}

// Differ produces line operations. It holds only configuration and is safe
// for concurrent use.
type Differ struct {
	opts Options
	dmp  *diffmatchpatch.DiffMatchPatch
}

// New creates a Differ.
func New(opts Options) *Differ {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}

	if opts.Cutoff <= 0 || opts.Cutoff > 1 {
		opts.Cutoff = DefaultCutoff
	}

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = opts.Timeout

	return &Differ{opts: opts, dmp: dmp}
}

// Options returns the effective options.
func (d *Differ) Options() Options {
	return d.opts
}

// Diff decodes both blobs, applies the size guard and diffs their lines.
func (d *Differ) Diff(oldData, newData []byte) ([]Op, error) {
	if !textutil.IsText(oldData) || !textutil.IsText(newData) {
		return nil, ErrNotText
	}

	oldText, newText := string(oldData), string(newData)

	if textutil.RuneLen(oldText) > d.opts.MaxChars || textutil.RuneLen(newText) > d.opts.MaxChars {
		return nil, ErrTooLarge
	}

	return d.DiffLines(textutil.SplitLines(oldText), textutil.SplitLines(newText))
}

// DiffLines diffs two line sequences. On error the returned slice is nil.
func (d *Differ) DiffLines(oldLines, newLines []string) ([]Op, error) {
	src, dst, err := encodeLines(oldLines, newLines)
	if err != nil {
		return nil, err
	}

	edits := d.dmp.DiffMainRunes(src, dst, false)
	ops := make([]Op, 0, max(len(oldLines), len(newLines)))

	var oldPos, newPos int

	for idx := 0; idx < len(edits); {
		if edits[idx].Type == diffmatchpatch.DiffEqual {
			size := utf8.RuneCountInString(edits[idx].Text)
			for _, line := range oldLines[oldPos : oldPos+size] {
				ops = append(ops, Op{Kind: Unchanged, Text: line})
			}

			oldPos += size
			newPos += size
			idx++

			continue
		}

		var removed, added int

		for ; idx < len(edits) && edits[idx].Type != diffmatchpatch.DiffEqual; idx++ {
			size := utf8.RuneCountInString(edits[idx].Text)
			if edits[idx].Type == diffmatchpatch.DiffDelete {
				removed += size
			} else {
				added += size
			}
		}

		hunk := &refiner{differ: d, old: oldLines, new: newLines, ops: ops}

		hunkErr := hunk.helper(oldPos, oldPos+removed, newPos, newPos+added, 0)
		if hunkErr != nil {
			return nil, hunkErr
		}

		ops = hunk.ops
		oldPos += removed
		newPos += added
	}

	return ops, nil
}

// encodeLines maps every distinct line to one rune so that diff-match-patch
// aligns lines instead of characters.
func encodeLines(oldLines, newLines []string) (src, dst []rune, err error) {
	index := make(map[string]rune, len(oldLines))

	encode := func(lines []string) ([]rune, error) {
		runes := make([]rune, len(lines))

		for i, line := range lines {
			r, ok := index[line]
			if !ok {
				if len(index) >= maxLineRunes {
					return nil, fmt.Errorf("%w: more than %d distinct lines", ErrTooLarge, maxLineRunes)
				}

				r = lineRune(len(index))
				index[line] = r
			}

			runes[i] = r
		}

		return runes, nil
	}

	src, err = encode(oldLines)
	if err != nil {
		return nil, nil, err
	}

	dst, err = encode(newLines)
	if err != nil {
		return nil, nil, err
	}

	return src, dst, nil
}

func lineRune(n int) rune {
	r := rune(n)
	if r >= surrogateStart {
		r += surrogateSize
	}

	return r
}

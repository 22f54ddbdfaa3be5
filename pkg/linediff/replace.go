package linediff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// pairingSlack is how far below the cutoff the best-ratio search starts.
// A candidate must beat it, then the winner must still reach the cutoff.
const pairingSlack = 0.01

// refiner expands one replace hunk into operations.
type refiner struct {
	differ *Differ
	old    []string
	new    []string
	ops    []Op
}

func (r *refiner) helper(oldLo, oldHi, newLo, newHi, depth int) error {
	switch {
	case oldLo < oldHi && newLo < newHi:
		return r.fancyReplace(oldLo, oldHi, newLo, newHi, depth)
	case oldLo < oldHi:
		r.dump(Removed, r.old[oldLo:oldHi])
	case newLo < newHi:
		r.dump(Added, r.new[newLo:newHi])
	}

	return nil
}

// fancyReplace pairs the most similar old/new lines of the hunk, then
// refines the regions before and after the pair.
func (r *refiner) fancyReplace(oldLo, oldHi, newLo, newHi, depth int) error {
	if depth > r.differ.opts.MaxDepth {
		return ErrDepthExceeded
	}

	cutoff := r.differ.opts.Cutoff
	bestRatio := cutoff - pairingSlack
	bestOld, bestNew := -1, -1
	eqOld, eqNew := -1, -1

	for j := newLo; j < newHi; j++ {
		newLine := r.new[j]

		for i := oldLo; i < oldHi; i++ {
			oldLine := r.old[i]

			if oldLine == newLine {
				if eqOld < 0 {
					eqOld, eqNew = i, j
				}

				continue
			}

			if realQuickRatio(oldLine, newLine) <= bestRatio || quickRatio(oldLine, newLine) <= bestRatio {
				continue
			}

			ratio := r.differ.ratio(oldLine, newLine)
			if ratio > bestRatio {
				bestRatio, bestOld, bestNew = ratio, i, j
			}
		}
	}

	identical := false

	if bestRatio < cutoff {
		if eqOld < 0 {
			r.plainReplace(oldLo, oldHi, newLo, newHi)

			return nil
		}

		bestOld, bestNew, identical = eqOld, eqNew, true
	}

	err := r.helper(oldLo, bestOld, newLo, bestNew, depth+1)
	if err != nil {
		return err
	}

	if identical {
		r.ops = append(r.ops, Op{Kind: Unchanged, Text: r.old[bestOld]})
	} else {
		r.intraline(r.old[bestOld], r.new[bestNew])
	}

	return r.helper(bestOld+1, oldHi, bestNew+1, newHi, depth+1)
}

// plainReplace emits the hunk as two blocks. The shorter added block goes
// first, otherwise removed lines lead.
func (r *refiner) plainReplace(oldLo, oldHi, newLo, newHi int) {
	if newHi-newLo < oldHi-oldLo {
		r.dump(Added, r.new[newLo:newHi])
		r.dump(Removed, r.old[oldLo:oldHi])

		return
	}

	r.dump(Removed, r.old[oldLo:oldHi])
	r.dump(Added, r.new[newLo:newHi])
}

func (r *refiner) dump(kind Kind, lines []string) {
	for _, line := range lines {
		r.ops = append(r.ops, Op{Kind: kind, Text: line})
	}
}

// intraline emits a removed/added pair with guides marking the characters
// that differ.
func (r *refiner) intraline(oldLine, newLine string) {
	var oldTags, newTags strings.Builder

	edits := r.differ.dmp.DiffMainRunes([]rune(oldLine), []rune(newLine), false)

	for idx := 0; idx < len(edits); {
		size := runeCount(edits[idx].Text)

		if edits[idx].Type == diffmatchpatch.DiffEqual {
			oldTags.WriteString(strings.Repeat(" ", size))
			newTags.WriteString(strings.Repeat(" ", size))
			idx++

			continue
		}

		var removed, added int

		for ; idx < len(edits) && edits[idx].Type != diffmatchpatch.DiffEqual; idx++ {
			if edits[idx].Type == diffmatchpatch.DiffDelete {
				removed += runeCount(edits[idx].Text)
			} else {
				added += runeCount(edits[idx].Text)
			}
		}

		switch {
		case removed > 0 && added > 0:
			oldTags.WriteString(strings.Repeat("^", removed))
			newTags.WriteString(strings.Repeat("^", added))
		case removed > 0:
			oldTags.WriteString(strings.Repeat("-", removed))
		default:
			newTags.WriteString(strings.Repeat("+", added))
		}
	}

	r.ops = append(r.ops, Op{Kind: Removed, Text: oldLine})

	if guide := keepWhitespace(oldLine, oldTags.String()); guide != "" {
		r.ops = append(r.ops, Op{Kind: IntralineMarker, Text: guide})
	}

	r.ops = append(r.ops, Op{Kind: Added, Text: newLine})

	if guide := keepWhitespace(newLine, newTags.String()); guide != "" {
		r.ops = append(r.ops, Op{Kind: IntralineMarker, Text: guide})
	}
}

// keepWhitespace copies tabs and spaces from line into the untagged columns
// of tags so the guide stays aligned under the line, then trims the right.
func keepWhitespace(line, tags string) string {
	lineRunes := []rune(line)
	tagRunes := []rune(tags)

	for i, tag := range tagRunes {
		if tag == ' ' && i < len(lineRunes) && (lineRunes[i] == ' ' || lineRunes[i] == '\t') {
			tagRunes[i] = lineRunes[i]
		}
	}

	return strings.TrimRight(string(tagRunes), " \t")
}

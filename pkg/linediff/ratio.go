package linediff

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ratio returns 2*M/T where M is the number of characters a character-level
// diff keeps and T the total length of both lines.
func (d *Differ) ratio(a, b string) float64 {
	total := runeCount(a) + runeCount(b)
	if total == 0 {
		return 1
	}

	matched := 0

	for _, edit := range d.dmp.DiffMainRunes([]rune(a), []rune(b), false) {
		if edit.Type == diffmatchpatch.DiffEqual {
			matched += runeCount(edit.Text)
		}
	}

	return scaled(matched, total)
}

// Similarity returns the similarity ratio of two lines in [0, 1].
func (d *Differ) Similarity(a, b string) float64 {
	return d.ratio(a, b)
}

// realQuickRatio is an upper bound of ratio computed from lengths only.
func realQuickRatio(a, b string) float64 {
	la, lb := runeCount(a), runeCount(b)
	if la+lb == 0 {
		return 1
	}

	return scaled(min(la, lb), la+lb)
}

// quickRatio is an upper bound of ratio computed from the character
// multisets of both lines.
func quickRatio(a, b string) float64 {
	total := runeCount(a) + runeCount(b)
	if total == 0 {
		return 1
	}

	avail := make(map[rune]int, len(b))
	for _, r := range b {
		avail[r]++
	}

	matched := 0

	for _, r := range a {
		if avail[r] > 0 {
			avail[r]--
			matched++
		}
	}

	return scaled(matched, total)
}

func scaled(matched, total int) float64 {
	return 2 * float64(matched) / float64(total)
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}

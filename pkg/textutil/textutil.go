// Package textutil provides text helpers shared by the differ and the
// record builder: UTF-8 decoding checks, line splitting and rune-based
// truncation.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// LineSeparator is the only byte treated as a line break. Carriage returns
// stay part of the line they terminate.
const LineSeparator = "\n"

// IsText reports whether data decodes as UTF-8. Empty data is text.
func IsText(data []byte) bool {
	return utf8.Valid(data)
}

// RuneLen returns the number of Unicode code points in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// SplitLines splits text on LineSeparator. A trailing separator produces a
// trailing empty element, and empty text produces a single empty element.
func SplitLines(text string) []string {
	return strings.Split(text, LineSeparator)
}

// Truncate returns the first limit code points of s. A non-positive limit
// returns an empty string.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	if len(s) <= limit {
		return s
	}

	count := 0

	for idx := range s {
		if count == limit {
			return s[:idx]
		}

		count++
	}

	return s
}

// Package docmeta infers human metadata (a title and an end/expiry date) from
// unstructured document text. Every function is pure: the same text always
// yields the same result.
package docmeta

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SignificantChars is the minimum number of non-newline characters a text
// needs before any heuristic runs on it.
const SignificantChars = 10

var lineSeparators = regexp.MustCompile(`[\n\r.!?]`)

// SplitLines breaks text on newlines, carriage returns and sentence
// terminators, trims each piece and drops the empty ones.
func SplitLines(text string) []string {
	parts := lineSeparators.Split(text, -1)
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// IsSignificant reports whether text carries at least SignificantChars
// characters once newlines are removed.
func IsSignificant(text string) bool {
	return utf8.RuneCountInString(strings.ReplaceAll(text, "\n", "")) >= SignificantChars
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncateRunes(s string, max int) string {
	if runeLen(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

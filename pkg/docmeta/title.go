package docmeta

import (
	"regexp"
	"strings"
)

// TitleKeywords mark a line as naming the document.
var TitleKeywords = []string{"judul", "kontrak", "perjanjian", "agreement", "title", "dokumen"}

// Untitled is returned when neither the text nor the fallback yields a title.
const Untitled = "Untitled"

const maxJoinedTitle = 120

var (
	headingLine    = regexp.MustCompile(`^[A-Z0-9 .,-]+$`)
	numericDateAny = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	bareInteger    = regexp.MustCompile(`^\d+$`)
)

// InferTitle picks the line of text most likely to be the document title.
// Insignificant text yields fallback. Preferences, first hit wins:
//  1. a line containing a title keyword
//  2. an upper-case heading line longer than 8 characters
//  3. a line longer than 5 characters that holds no numeric date and is not a bare integer
//  4. the first line longer than 10 characters
//
// Otherwise the first two lines are joined with " / " and cut to 120 characters.
// The result is never empty.
func InferTitle(text, fallback string) string {
	if !IsSignificant(text) {
		return orUntitled(fallback)
	}

	lines := SplitLines(text)
	rules := []func(string) bool{
		func(l string) bool {
			lower := strings.ToLower(l)
			for _, k := range TitleKeywords {
				if strings.Contains(lower, k) {
					return true
				}
			}
			return false
		},
		func(l string) bool { return headingLine.MatchString(l) && runeLen(l) > 8 },
		func(l string) bool {
			return runeLen(l) > 5 && !numericDateAny.MatchString(l) && !bareInteger.MatchString(l)
		},
		func(l string) bool { return runeLen(l) > 10 },
	}
	for _, rule := range rules {
		for _, l := range lines {
			if rule(l) {
				return l
			}
		}
	}

	joined := truncateRunes(strings.Join(lines[:min(2, len(lines))], " / "), maxJoinedTitle)
	if joined == "" {
		return orUntitled(fallback)
	}
	return joined
}

func orUntitled(fallback string) string {
	if strings.TrimSpace(fallback) == "" {
		return Untitled
	}
	return fallback
}

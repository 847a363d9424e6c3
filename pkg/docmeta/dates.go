package docmeta

import (
	"iter"
	"regexp"
	"slices"
	"strings"
)

// Family identifies which textual date shape produced a candidate.
type Family int

const (
	FamilyNumeric   Family = iota // D/M/Y or D-M-Y
	FamilyISO                     // Y-M-D or Y/M/D
	FamilyMonthName               // D <month name> Y
)

func (f Family) String() string {
	switch f {
	case FamilyNumeric:
		return "numeric"
	case FamilyISO:
		return "iso"
	case FamilyMonthName:
		return "month-name"
	default:
		return "unknown"
	}
}

const monthNames = `(januari|februari|maret|april|mei|juni|juli|agustus|september|oktober|november|desember|` +
	`january|february|march|april|may|june|july|august|september|october|november|december)`

var dateFamilies = []struct {
	family Family
	re     *regexp.Regexp
}{
	{FamilyNumeric, regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)},
	{FamilyISO, regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)},
	{FamilyMonthName, regexp.MustCompile(`(?i)\b\d{1,2}[. ]` + monthNames + `[. ]\d{2,4}\b`)},
}

// DateCandidate is one located date substring.
type DateCandidate struct {
	Text   string
	Family Family
	// Start and End are byte offsets of Text inside the scanned string.
	Start, End int
	// Line is the trimmed physical line (split on \n and \r only) holding the match.
	Line      string
	LineLower string
}

// EachDate yields every date candidate in text in order of first appearance.
// Families are matched independently, so overlapping matches from different
// families are all yielded; at equal offsets the family order above decides.
// The sequence can be ranged over any number of times.
func EachDate(text string) iter.Seq[DateCandidate] {
	return func(yield func(DateCandidate) bool) {
		for _, c := range locate(text) {
			if !yield(c) {
				return
			}
		}
	}
}

// FindDates collects EachDate into a slice.
func FindDates(text string) []DateCandidate {
	return locate(text)
}

func locate(text string) []DateCandidate {
	var found []DateCandidate
	for _, f := range dateFamilies {
		for _, loc := range f.re.FindAllStringIndex(text, -1) {
			line := enclosingLine(text, loc[0], loc[1])
			found = append(found, DateCandidate{
				Text:      text[loc[0]:loc[1]],
				Family:    f.family,
				Start:     loc[0],
				End:       loc[1],
				Line:      line,
				LineLower: strings.ToLower(line),
			})
		}
	}
	slices.SortStableFunc(found, func(a, b DateCandidate) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return int(a.Family) - int(b.Family)
	})
	return found
}

func enclosingLine(text string, start, end int) string {
	from := strings.LastIndexAny(text[:start], "\n\r") + 1
	to := len(text)
	if i := strings.IndexAny(text[end:], "\n\r"); i >= 0 {
		to = end + i
	}
	return strings.TrimSpace(text[from:to])
}

package docmeta

import (
	"strings"
)

// EndDateKeywords mark a line as describing when something ends or expires.
// Matching is by lowercase substring, so short entries such as "sd" and
// "end" also fire inside longer words.
var EndDateKeywords = []string{
	"berakhir", "berakhir pada tanggal", "berakhir pada", "sampai", "hingga", "selesai",
	"end", "valid until", "berlaku sampai", "berlaku hingga", "masa berlaku", "tanggal akhir",
	"expiry", "exp", "s.d.", "sd", "s.d", "s/d", "sampai dengan", "sampai tanggal",
	"hingga tanggal", "berakhir tanggal", "berlaku sampai dengan", "berlaku s.d.", "sampai tgl",
	"valid s/d", "sampai berakhir", "berlaku s/d", "sampai dan termasuk", "sampai dan dengan",
	"sampai waktu", "sampai waktu tertentu", "sampai waktu yang ditentukan",
}

func hasEndDateKeyword(lower string) bool {
	for _, k := range EndDateKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// ResolveEndDate picks the single date substring of text most likely to be
// the document's end date. A non-blank hint is returned unchanged without
// looking at text. The result is nil when text holds no date at all.
//
// Strategies, first hit wins:
//  1. a line with a keyword and two or more dates: its second date
//  2. a line with a keyword and a date: its last date
//  3. a line with two or more dates: its second date
//  4. the latest parseable date anywhere in text (earliest occurrence on
//     ties), or the first date found when none parse
func ResolveEndDate(text, hint string) *string {
	if strings.TrimSpace(hint) != "" {
		return &hint
	}

	lines := SplitLines(text)
	perLine := make([][]DateCandidate, len(lines))
	keyword := make([]bool, len(lines))
	for i, line := range lines {
		perLine[i] = FindDates(line)
		keyword[i] = hasEndDateKeyword(strings.ToLower(line))
	}

	for i := range lines {
		if keyword[i] && len(perLine[i]) >= 2 {
			return &perLine[i][1].Text
		}
	}
	for i := range lines {
		if keyword[i] && len(perLine[i]) >= 1 {
			return &perLine[i][len(perLine[i])-1].Text
		}
	}
	for i := range lines {
		if len(perLine[i]) >= 2 {
			return &perLine[i][1].Text
		}
	}

	return latestDate(FindDates(text))
}

func latestDate(all []DateCandidate) *string {
	if len(all) == 0 {
		return nil
	}
	best := -1
	var bestAt int64
	for i, c := range all {
		t, ok := ParseDate(c.Text)
		if !ok {
			continue
		}
		if best < 0 || t.Unix() > bestAt {
			best, bestAt = i, t.Unix()
		}
	}
	if best < 0 {
		best = 0
	}
	return &all[best].Text
}

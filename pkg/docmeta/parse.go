package docmeta

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	numericDate   = regexp.MustCompile(`(\d{1,4})[/-](\d{1,2})[/-](\d{2,4})`)
	monthNameDate = regexp.MustCompile(`(\d{1,2})[. ]([a-zA-Z]+)[. ](\d{2,4})`)
	yearFirstDate = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	spaceRun      = regexp.MustCompile(`\s+`)
)

var monthIndex = map[string]time.Month{
	"januari":   time.January,
	"january":   time.January,
	"feb":       time.February,
	"februari":  time.February,
	"february":  time.February,
	"maret":     time.March,
	"march":     time.March,
	"april":     time.April,
	"mei":       time.May,
	"may":       time.May,
	"juni":      time.June,
	"june":      time.June,
	"juli":      time.July,
	"july":      time.July,
	"agustus":   time.August,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"october":   time.October,
	"november":  time.November,
	"desember":  time.December,
	"december":  time.December,
}

// ParseDate turns a located date string into a calendar date (UTC midnight).
// It tries, in order: numeric D/M/Y (a four-digit first field means Y/M/D),
// day + month name + year, numeric Y/M/D, and finally a generic parse.
// It reports false instead of failing.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	if s == "" {
		return time.Time{}, false
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		a, b, c := m[1], m[2], m[3]
		var t time.Time
		var ok bool
		if len(a) == 4 {
			t, ok = calendarDate(a, b, c)
		} else {
			t, ok = calendarDate(c, b, a)
		}
		if ok {
			return t, true
		}
	}

	if m := monthNameDate.FindStringSubmatch(s); m != nil {
		if mon, found := monthIndex[strings.ToLower(m[2])]; found {
			if t, ok := calendarDate(m[3], strconv.Itoa(int(mon)), m[1]); ok {
				return t, true
			}
		}
	}

	if m := yearFirstDate.FindStringSubmatch(s); m != nil {
		if t, ok := calendarDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}

	return genericDate(s)
}

func calendarDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	if len(year) == 2 {
		y += 2000
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != time.Month(m) {
		return time.Time{}, false
	}
	return t, true
}

// genericDate is the last resort. A panic inside dateparse counts as a
// failed parse.
func genericDate(s string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := parsed.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

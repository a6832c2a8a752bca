package statement

import (
	"regexp"
	"strings"
	"time"
)

var (
	lineBreakRe = regexp.MustCompile(`[\r\n]+`)
	yearFirstRe = regexp.MustCompile(`^\d{4}[-/]`)
	isoPrefixRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
)

// Year-first sources (ISO exports, mobile-banking timestamps) must never be
// parsed with day-first semantics or month and day get swapped.
var yearFirstLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-1-2",
	"2006/1/2",
}

// Everything else is treated day-first, which covers DD/MM/YYYY regional
// formats and textual month forms.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2 Jan 2006",
	"2 Jan 06",
	"2 January 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
}

// ParseDate interprets a raw date cell. Embedded line breaks (artifacts of
// PDF text extraction) are collapsed first. Returns false when no layout
// matches and no ISO prefix can be recovered.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(lineBreakRe.ReplaceAllString(raw, ""))
	if s == "" {
		return time.Time{}, false
	}

	layouts := dayFirstLayouts
	if yearFirstRe.MatchString(s) {
		layouts = yearFirstLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}

	// Recover a truncated ISO prefix, e.g. "2026-01-02T18:" split mid-token.
	if m := isoPrefixRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006-1-2", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Package dates resolves explicit dates and relative phrases against a
// reference date.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the canonical output format.
const ISOLayout = "2006-01-02"

var explicitLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Layouts without a year resolve against the reference year.
var yearlessLayouts = []string{
	"Jan 2",
	"January 2",
	"2 Jan",
	"2 January",
	"01/02",
	"1/2",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var daysAgoPattern = regexp.MustCompile(`^(\d+)\s+days?\s+ago$`)

// Resolver resolves date text deterministically against a reference date.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the ISO date for the given text. Unresolvable or
// empty input resolves to the reference date itself, never a sentinel,
// so downstream records always carry a concrete date.
func (r *Resolver) Resolve(text string, reference time.Time) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" || s == "unknown" {
		return reference.Format(ISOLayout)
	}

	switch s {
	case "today", "now", "tonight", "this morning":
		return reference.Format(ISOLayout)
	case "yesterday", "last night":
		return reference.AddDate(0, 0, -1).Format(ISOLayout)
	case "tomorrow":
		return reference.AddDate(0, 0, 1).Format(ISOLayout)
	}

	if m := daysAgoPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return reference.AddDate(0, 0, -n).Format(ISOLayout)
		}
	}

	if day, ok := strings.CutPrefix(s, "last "); ok {
		if wd, found := weekdays[strings.TrimSpace(day)]; found {
			return lastWeekday(reference, wd).Format(ISOLayout)
		}
	}
	if wd, found := weekdays[s]; found {
		// A bare weekday means the most recent one.
		return lastWeekday(reference, wd).Format(ISOLayout)
	}

	// Keep the raw casing for textual month names.
	raw := strings.TrimSpace(text)
	for _, layout := range explicitLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(ISOLayout)
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			resolved := time.Date(reference.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return resolved.Format(ISOLayout)
		}
	}

	return reference.Format(ISOLayout)
}

// lastWeekday returns the most recent occurrence of wd strictly before
// or on the day preceding the reference.
func lastWeekday(reference time.Time, wd time.Weekday) time.Time {
	delta := int(reference.Weekday() - wd)
	if delta <= 0 {
		delta += 7
	}
	return reference.AddDate(0, 0, -delta)
}

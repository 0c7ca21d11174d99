package query

import (
	"strings"
	"time"
)

// SourceOffset is the fixed offset of every date and kickoff the endpoint serves
const SourceOffset = 9 * time.Hour

// KickoffLayout is the display format for kickoff instants
const KickoffLayout = "02-01 15:04"

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeDate converts a date cell to YYYY-MM-DD. It accepts YYYY-MM-DD,
// D/M/YYYY and full timestamps, which resolve to the local calendar date.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return s, true
	}
	if t, err := time.Parse("2/1/2006", s); err == nil {
		return t.Format(time.DateOnly), true
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.In(time.Local).Format(time.DateOnly), true
		}
	}
	return "", false
}

// KickoffInstant returns the absolute instant of a source date and kickoff.
// The fields are read as UTC and shifted back by SourceOffset. A blank
// kickoff means midnight.
func KickoffInstant(date, kickoff string) (time.Time, bool) {
	d, ok := NormalizeDate(date)
	if !ok {
		return time.Time{}, false
	}
	k := strings.TrimSpace(kickoff)
	if k == "" {
		k = "00:00"
	}

	var clock time.Time
	var err error
	for _, layout := range []string{"15:04", "15:04:05"} {
		if clock, err = time.Parse(layout, k); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, false
	}

	day, _ := time.Parse(time.DateOnly, d)
	t := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
	return t.Add(-SourceOffset), true
}

// FormatKickoff renders a source date and kickoff as DD-MM HH:mm in loc
func FormatKickoff(date, kickoff string, loc *time.Location) string {
	t, ok := KickoffInstant(date, kickoff)
	if !ok {
		return strings.TrimSpace(date + " " + kickoff)
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(KickoffLayout)
}

func inRange(date, from, to string) bool {
	if from == "" && to == "" {
		return true
	}
	d, ok := NormalizeDate(date)
	if !ok {
		return false
	}
	if from != "" && d < from {
		return false
	}
	if to != "" && d > to {
		return false
	}
	return true
}

func kickoffKey(date, kickoff string) time.Time {
	t, _ := KickoffInstant(date, kickoff)
	return t
}

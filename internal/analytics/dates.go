// Package analytics groups, filters and pages usage records.
package analytics

import (
	"strconv"
	"strings"
	"time"
)

// ParseRecordDate parses a dataset date in DD/MM/YYYY form.
func ParseRecordDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	return buildDate(parts[2], parts[1], parts[0])
}

// ParseBoundDate parses a range bound. Date inputs produce YYYY-MM-DD;
// the dataset form DD/MM/YYYY is accepted too.
func ParseBoundDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return ParseRecordDate(s)
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	return buildDate(parts[0], parts[1], parts[2])
}

func buildDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return time.Time{}, false
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
	// time.Date normalizes 31/02 into March.
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

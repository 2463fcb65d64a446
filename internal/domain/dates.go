package domain

import (
	"strings"
	"time"
)

// DateLayout is the legacy YYYYMMDD date column format
const DateLayout = "20060102"

// StampLayout is the legacy update stamp format
const StampLayout = "20060102150405"

// TruncateDay drops the time of day, keeping the date in UTC
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a day as YYYYMMDD
func DateKey(t time.Time) string {
	return TruncateDay(t).Format(DateLayout)
}

// DaysBetween returns the whole days from a to b
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}

// ParseDate accepts YYYYMMDD, YYYY-MM-DD and YYYY/MM/DD
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{DateLayout, "2006-01-02", "2006/01/02"}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

package app

import (
	"fmt"
	"strings"
	"time"
)

// dayLabelLayouts are tried in order after any weekday prefix is removed
var dayLabelLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02",
}

// DayLabelLayout is how imported days are labelled
const DayLabelLayout = "Monday, Jan 2, 2006"

// ParseDayLabel turns a label like "Thursday, Sep 18, 2025" into midnight of
// that date in loc. The weekday is decorative and never checked.
func ParseDayLabel(label string, loc *time.Location) (time.Time, error) {
	s := stripWeekday(strings.TrimSpace(label))
	for _, layout := range dayLabelLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayLabel, label)
}

// FormatDayLabel is the inverse of ParseDayLabel for imported catalogs
func FormatDayLabel(t time.Time) string {
	return t.Format(DayLabelLayout)
}

func stripWeekday(s string) string {
	i := strings.IndexAny(s, ", ")
	if i < 0 || !isWeekday(s[:i]) {
		return s
	}
	return strings.TrimLeft(s[i:], ", ")
}

func isWeekday(s string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return true
		}
	}
	return false
}

package app

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	clock12 = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap]m)$`)
	clock24 = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseClock parses "9:30 PM", "9pm" or "21:30" into hour (0-23) and minute.
// ok is false for empty input or anything outside both grammars.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}

	if m := clock12.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi := 0
		if m[2] != "" {
			mi, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || mi > 59 {
			return 0, 0, false
		}
		// 12 AM is midnight, 12 PM is noon
		if h == 12 {
			h = 0
		}
		if strings.EqualFold(m[3], "pm") {
			h += 12
		}
		return h, mi, true
	}

	if m := clock24.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h > 23 || mi > 59 {
			return 0, 0, false
		}
		return h, mi, true
	}

	return 0, 0, false
}

// ParseMinutes returns the minute of day (0-1439) for a time string.
// Callers sort unparseable times last.
func ParseMinutes(s string) (int, bool) {
	h, m, ok := ParseClock(s)
	if !ok {
		return 0, false
	}
	return h*60 + m, true
}

package app

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/klabast/wb-services/lineup-planner/internal/log"
)

// slotTimeLayout matches the clock format used throughout the lineup
const slotTimeLayout = "3:04 PM"

// ImportICSCatalog builds a catalog from a festival's published calendar.
//
// Each VEVENT becomes a slot: SUMMARY is the band, LOCATION the stage and
// DTSTART (converted to loc) gives the day label and time. All-day events
// become slots without a time. Days are ordered by date, slots keep feed order.
// Events missing a summary or start are skipped.
func ImportICSCatalog(r io.Reader, loc *time.Location) (*Catalog, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	type importedDay struct {
		date time.Time
		day  CatalogDay
	}
	byLabel := make(map[string]*importedDay)

	for _, ve := range cal.Events() {
		band := propertyText(ve, ical.ComponentPropertySummary)
		if band == "" {
			appLog.Info("ics import: skipping event without summary", "uid", propertyText(ve, ical.ComponentPropertyUniqueId))
			continue
		}

		start, allDay, err := eventStart(ve, loc)
		if err != nil {
			appLog.Error("ics import: skipping event without usable start", err, "band", band)
			continue
		}

		slot := Slot{Band: band, Stage: propertyText(ve, ical.ComponentPropertyLocation)}
		if !allDay {
			slot.Time = start.Format(slotTimeLayout)
		}

		label := FormatDayLabel(start)
		d, ok := byLabel[label]
		if !ok {
			date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
			d = &importedDay{date: date, day: CatalogDay{Label: label}}
			byLabel[label] = d
		}
		if _, dup := findSlot(d.day.Slots, band); dup {
			appLog.Info("ics import: duplicate band on day, keeping first", "band", band, "day", label)
			continue
		}
		d.day.Slots = append(d.day.Slots, slot)
	}

	days := make([]*importedDay, 0, len(byLabel))
	for _, d := range byLabel {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].date.Before(days[j].date)
	})

	cat := &Catalog{Name: propertyOf(cal, ical.PropertyXWRCalName)}
	for _, d := range days {
		cat.Days = append(cat.Days, d.day)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func eventStart(ve *ical.VEvent, loc *time.Location) (time.Time, bool, error) {
	prop := ve.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil || prop.Value == "" {
		return time.Time{}, false, errors.New("missing DTSTART")
	}
	val := strings.TrimSpace(prop.Value)

	// VALUE=DATE or a bare YYYYMMDD
	if !strings.Contains(val, "T") {
		t, err := time.ParseInLocation("20060102", val, loc)
		return t, true, err
	}

	tzid := prop.ICalParameters[string(ical.ParameterTzid)]
	switch {
	case len(tzid) > 0:
		if zone, err := time.LoadLocation(tzid[0]); err == nil {
			t, err := time.ParseInLocation(ICSLocalLayout, val, zone)
			return t.In(loc), false, err
		}
	case !strings.HasSuffix(val, "Z"):
		// floating times belong to the festival zone, not the host's
		t, err := time.ParseInLocation(ICSLocalLayout, val, loc)
		return t, false, err
	}

	t, err := ve.GetStartAt()
	if err != nil {
		return time.Time{}, false, err
	}
	return t.In(loc), false, nil
}

func propertyText(ve *ical.VEvent, name ical.ComponentProperty) string {
	p := ve.GetProperty(name)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(unescapeText(p.Value))
}

func propertyOf(cal *ical.Calendar, name ical.Property) string {
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == string(name) {
			return unescapeText(p.Value)
		}
	}
	return ""
}

func findSlot(slots []Slot, band string) (Slot, bool) {
	for _, s := range slots {
		if s.Band == band {
			return s, true
		}
	}
	return Slot{}, false
}

// unescapeText reverses the TEXT escaping applied by escapeText
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

package app

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	appLog "github.com/klabast/wb-services/lineup-planner/internal/log"
)

// ExportFile is one generated download
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// csvHeader is the first row of every tabular export
var csvHeader = []string{"Day", "Time", "Band", "Stage", "Attendees"}

// WriteCSV writes one row per (day, entry) in schedule order. Missing time
// or stage is written as TBD; fields are quoted whenever they need it.
func WriteCSV(w io.Writer, schedule CompiledSchedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, day := range schedule.Days {
		for _, e := range day.Entries {
			row := []string{
				day.Day,
				DisplayOrTBD(e.Time),
				e.Band,
				DisplayOrTBD(e.Stage),
				strings.Join(e.Attendees, "; "),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToTable renders the schedule as CSV text
func ToTable(schedule CompiledSchedule) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, schedule); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// icsWriter writes CRLF-terminated, folded content lines and keeps the
// first write error.
type icsWriter struct {
	w   io.Writer
	err error
}

// maxLineOctets is the content line limit before folding
const maxLineOctets = 75

func (iw *icsWriter) line(s string) {
	if iw.err != nil {
		return
	}
	_, iw.err = io.WriteString(iw.w, foldLine(s)+"\r\n")
}

func (iw *icsWriter) linef(format string, args ...any) {
	iw.line(fmt.Sprintf(format, args...))
}

// foldLine splits long content lines on rune boundaries; each continuation
// line starts with a single space.
func foldLine(s string) string {
	if len(s) <= maxLineOctets {
		return s
	}
	var b strings.Builder
	limit := maxLineOctets
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			// no rune boundary in reach (invalid UTF-8): split on the byte
			cut = limit
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		// the leading space counts against the next line
		limit = maxLineOctets - 1
	}
	b.WriteString(s)
	return b.String()
}

// escapeText applies TEXT escaping: backslash first, then semicolon, comma
// and newline.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// WriteICS writes a calendar with one event per entry that has a parseable
// time. Entries without a time are skipped, as are all entries of a day whose
// label is not a date. stamp is the DTSTAMP shared by every event.
func WriteICS(w io.Writer, schedule CompiledSchedule, opts ExportOptions, stamp time.Time) error {
	loc := opts.Location
	if loc == nil {
		return fmt.Errorf("calendar export: no timezone configured")
	}
	newUID := opts.newUID
	if newUID == nil {
		newUID = uuid.NewString
	}
	eventLength := time.Duration(opts.EventMinutes) * time.Minute
	if eventLength <= 0 {
		eventLength = 60 * time.Minute
	}
	placeholder := opts.LocationPlaceholder
	if placeholder == "" {
		placeholder = TBD
	}
	dtstamp := stamp.UTC().Format(ICSStampLayout)
	tzid := loc.String()

	iw := &icsWriter{w: w}

	// ICS header
	iw.line("BEGIN:VCALENDAR")
	iw.line("VERSION:2.0")
	iw.linef("PRODID:%s", opts.ProductID)
	iw.line("CALSCALE:GREGORIAN")
	iw.line("METHOD:PUBLISH")
	if opts.CalendarName != "" {
		iw.linef("X-WR-CALNAME:%s", escapeText(opts.CalendarName))
	}
	iw.linef("X-WR-TIMEZONE:%s", tzid)

	for _, day := range schedule.Days {
		date, err := ParseDayLabel(day.Day, loc)
		if err != nil {
			appLog.Error("calendar export: skipping day", err, "day", day.Day, "entries", len(day.Entries))
			continue
		}

		for _, e := range day.Entries {
			hour, minute, ok := ParseClock(e.Time)
			if !ok {
				continue
			}

			start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
			end := start.Add(eventLength)

			stage := e.Stage
			if stage == "" {
				stage = placeholder
			}

			iw.line("BEGIN:VEVENT")
			iw.linef("UID:%s@%s", newUID(), ICSUIDDomain)
			iw.linef("DTSTAMP:%s", dtstamp)
			iw.linef("DTSTART;TZID=%s:%s", tzid, start.Format(ICSLocalLayout))
			iw.linef("DTEND;TZID=%s:%s", tzid, end.Format(ICSLocalLayout))
			iw.linef("SUMMARY:%s", escapeText(e.Band))
			iw.linef("LOCATION:%s", escapeText(stage))
			iw.linef("DESCRIPTION:%s", escapeText("Attendees: "+strings.Join(e.Attendees, ", ")))
			iw.line("END:VEVENT")
		}
	}

	iw.line("END:VCALENDAR")
	return iw.err
}

// ToCalendar renders the schedule as an iCalendar document
func ToCalendar(schedule CompiledSchedule, opts ExportOptions, stamp time.Time) (string, error) {
	var buf bytes.Buffer
	if err := WriteICS(&buf, schedule, opts, stamp); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteJSON writes the schedule for the on-page viewer
func WriteJSON(w io.Writer, schedule CompiledSchedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schedule)
}

// ExportFileName is "<prefix>-<UTC timestamp>.<ext>"
func ExportFileName(prefix string, now time.Time, ext string) string {
	if prefix == "" {
		prefix = "schedule"
	}
	return fmt.Sprintf("%s-%s.%s", prefix, now.UTC().Format(ExportTimestampLayout), ext)
}

// Export produces the CSV and ICS downloads for a schedule. An empty
// schedule yields ErrNoSelections and no files.
func Export(schedule CompiledSchedule, opts ExportOptions, now time.Time) ([]ExportFile, error) {
	if schedule.Empty() {
		return nil, ErrNoSelections
	}

	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, schedule); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	var icsBuf bytes.Buffer
	if err := WriteICS(&icsBuf, schedule, opts, now); err != nil {
		return nil, fmt.Errorf("write ics: %w", err)
	}

	return []ExportFile{
		{Name: ExportFileName(opts.Prefix, now, "csv"), ContentType: ContentTypeCSV, Body: csvBuf.Bytes()},
		{Name: ExportFileName(opts.Prefix, now, "ics"), ContentType: ContentTypeICS, Body: icsBuf.Bytes()},
	}, nil
}

package app

import (
	"errors"
	"time"

	"github.com/klabast/wb-services/lineup-planner/internal/config"
)

// Constants
const (
	// TBD is rendered wherever a slot has no official time or stage
	TBD = "TBD"

	// ExportTimestampLayout is the timestamp part of export file names
	ExportTimestampLayout = "2006-01-02-15-04-05"

	// Content types
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeICS  = "text/calendar; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"

	// ICS constants
	ICSUIDDomain   = "lineup-planner"
	ICSStampLayout = "20060102T150405Z"
	ICSLocalLayout = "20060102T150405"

	// Session cookie
	SessionCookie = "lineup_session"

	// Error messages
	MsgNoSelections     = "No selections yet"
	MsgInvalidFormat    = "Invalid format"
	MsgInvalidRequest   = "Invalid request body"
	MsgInternalServer   = "Internal server error"
	MsgUnknownDay       = "Unknown day"
	MsgUnknownBand      = "Band is not on the lineup for that day"
	MsgUnknownPerson    = "Unknown person"
	MsgMethodNotAllowed = "Method not allowed"
)

// Sentinel errors
var (
	ErrNoSelections    = errors.New("no selections yet")
	ErrUnknownDay      = errors.New("unknown day")
	ErrUnknownBand     = errors.New("unknown band")
	ErrUnknownPerson   = errors.New("unknown person")
	ErrInvalidDayLabel = errors.New("invalid day label")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

// ExportOptions controls file naming and calendar rendering
type ExportOptions struct {
	Prefix              string
	ProductID           string
	CalendarName        string
	EventMinutes        int
	LocationPlaceholder string

	// Location is the festival timezone every event is expressed in
	Location *time.Location

	// newUID overrides event UID generation in tests
	newUID func() string
}

// ExportOptionsFromConfig maps the YAML configuration onto export settings
func ExportOptionsFromConfig(cfg *config.Config) (ExportOptions, error) {
	loc, err := cfg.Location()
	if err != nil {
		return ExportOptions{}, err
	}
	return ExportOptions{
		Prefix:              cfg.ExportPrefix,
		ProductID:           cfg.ProductID,
		CalendarName:        cfg.CalendarName,
		EventMinutes:        cfg.EventMinutes,
		LocationPlaceholder: cfg.LocationPlaceholder,
		Location:            loc,
	}, nil
}

// RosterFromConfig returns the configured people, nil if there are none
func RosterFromConfig(cfg *config.Config) []Person {
	if len(cfg.People) == 0 {
		return nil
	}
	roster := make([]Person, 0, len(cfg.People))
	for _, p := range cfg.People {
		roster = append(roster, Person{Name: p.Name, Color: p.Color})
	}
	return roster
}

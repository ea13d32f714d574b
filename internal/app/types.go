package app

// Person is one attendee on the roster together with their mark color
type Person struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Mark records that a person intends to see a band on a day
type Mark struct {
	ID     string `json:"id"`
	Day    string `json:"day"`
	Band   string `json:"band"`
	Person string `json:"person"`
	Color  string `json:"color"`
}

// Slot is one band's official time and stage on a day.
// Time and Stage are empty when the lineup lists a band without a slot yet.
type Slot struct {
	Band  string `json:"band" yaml:"band"`
	Time  string `json:"time,omitempty" yaml:"time,omitempty"`
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`
}

// CatalogDay holds the lineup for a single festival day in grid order
type CatalogDay struct {
	Label string `json:"label" yaml:"label"`
	Slots []Slot `json:"slots" yaml:"slots"`
}

// Catalog is the static, trusted festival lineup
type Catalog struct {
	Name   string       `json:"name" yaml:"name"`
	People []Person     `json:"people" yaml:"people"`
	Days   []CatalogDay `json:"days" yaml:"days"`
}

// CompiledEntry is one band on one day with everybody going to it
type CompiledEntry struct {
	Band      string   `json:"band"`
	Time      string   `json:"time,omitempty"`
	Stage     string   `json:"stage,omitempty"`
	Attendees []string `json:"attendees"`
}

// DaySchedule is the time-ordered list of entries for one day
type DaySchedule struct {
	Day     string          `json:"day"`
	Entries []CompiledEntry `json:"entries"`
}

// CompiledSchedule is the per-day schedule derived from the current marks.
// Days keep the order in which they first appeared among the marks.
type CompiledSchedule struct {
	Days []DaySchedule `json:"days"`
}

// Empty reports whether the schedule has no days at all
func (s CompiledSchedule) Empty() bool {
	return len(s.Days) == 0
}

// Day returns the entries for a day label
func (s CompiledSchedule) Day(label string) ([]CompiledEntry, bool) {
	for _, d := range s.Days {
		if d.Day == label {
			return d.Entries, true
		}
	}
	return nil, false
}

package app

import (
	"fmt"
	"strings"
)

// Validate checks the structural rules the planner relies on: non-empty
// unique day labels, unique bands per day and unique named people.
func (c *Catalog) Validate() error {
	days := make(map[string]bool, len(c.Days))
	for i, d := range c.Days {
		label := strings.TrimSpace(d.Label)
		if label == "" {
			return fmt.Errorf("%w: day %d has no label", ErrInvalidCatalog, i+1)
		}
		if days[label] {
			return fmt.Errorf("%w: duplicate day %q", ErrInvalidCatalog, label)
		}
		days[label] = true

		bands := make(map[string]bool, len(d.Slots))
		for _, s := range d.Slots {
			if strings.TrimSpace(s.Band) == "" {
				return fmt.Errorf("%w: unnamed band on %q", ErrInvalidCatalog, label)
			}
			if bands[s.Band] {
				return fmt.Errorf("%w: band %q listed twice on %q", ErrInvalidCatalog, s.Band, label)
			}
			bands[s.Band] = true
		}
	}

	people := make(map[string]bool, len(c.People))
	for _, p := range c.People {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: person without a name", ErrInvalidCatalog)
		}
		if people[p.Name] {
			return fmt.Errorf("%w: duplicate person %q", ErrInvalidCatalog, p.Name)
		}
		people[p.Name] = true
	}
	return nil
}

// Lookup returns the official slot for band on day
func (c *Catalog) Lookup(day, band string) (Slot, bool) {
	d, ok := c.day(day)
	if !ok {
		return Slot{}, false
	}
	for _, s := range d.Slots {
		if s.Band == band {
			return s, true
		}
	}
	return Slot{}, false
}

// HasBand reports whether band plays on day
func (c *Catalog) HasBand(day, band string) bool {
	_, ok := c.Lookup(day, band)
	return ok
}

// HasDay reports whether day is a lineup day
func (c *Catalog) HasDay(day string) bool {
	_, ok := c.day(day)
	return ok
}

// Person returns the roster entry for name
func (c *Catalog) Person(name string) (Person, bool) {
	for _, p := range c.People {
		if p.Name == name {
			return p, true
		}
	}
	return Person{}, false
}

// DayLabels lists the lineup days in catalog order
func (c *Catalog) DayLabels() []string {
	labels := make([]string, 0, len(c.Days))
	for _, d := range c.Days {
		labels = append(labels, d.Label)
	}
	return labels
}

func (c *Catalog) day(label string) (CatalogDay, bool) {
	for _, d := range c.Days {
		if d.Label == label {
			return d, true
		}
	}
	return CatalogDay{}, false
}

// DisplayOrTBD renders an empty time or stage as TBD
func DisplayOrTBD(s string) string {
	if s == "" {
		return TBD
	}
	return s
}

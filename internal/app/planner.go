package app

import (
	"fmt"
	"sync"
	"time"

	appLog "github.com/klabast/wb-services/lineup-planner/internal/log"
)

// Planner is one planning session: it owns the attendance ledger and
// recompiles the schedule after every change to it.
type Planner struct {
	mu       sync.RWMutex
	catalog  *Catalog
	ledger   *Ledger
	schedule CompiledSchedule
}

// NewPlanner starts an empty session over catalog
func NewPlanner(catalog *Catalog) *Planner {
	return &Planner{
		catalog: catalog,
		ledger:  NewLedger(),
	}
}

// Record marks person as going to band on day. The day, band and person must
// all be known to the catalog.
func (p *Planner) Record(day, band, person string) (Mark, error) {
	if !p.catalog.HasDay(day) {
		return Mark{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	if !p.catalog.HasBand(day, band) {
		return Mark{}, fmt.Errorf("%w: %q on %q", ErrUnknownBand, band, day)
	}
	who, ok := p.catalog.Person(person)
	if !ok {
		return Mark{}, fmt.Errorf("%w: %q", ErrUnknownPerson, person)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.ledger.Record(day, band, who)
	p.recomputeLocked()
	appLog.Debug("mark recorded", "id", m.ID, "day", day, "band", band, "person", person)
	return m, nil
}

// Undo removes the most recent mark; ok is false if there was none
func (p *Planner) Undo() (Mark, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.ledger.UndoLast()
	if ok {
		p.recomputeLocked()
		appLog.Debug("mark undone", "id", m.ID, "day", m.Day, "band", m.Band, "person", m.Person)
	}
	return m, ok
}

// Schedule returns the schedule compiled after the last change
func (p *Planner) Schedule() CompiledSchedule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.schedule
}

// Marks returns all marks in the order they were recorded
func (p *Planner) Marks() []Mark {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ledger.Marks()
}

// MarksFor lists the marks on one lineup card
func (p *Planner) MarksFor(day, band string) []Mark {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []Mark
	for _, m := range p.ledger.marks {
		if m.Day == day && m.Band == band {
			out = append(out, m)
		}
	}
	return out
}

// Catalog is the lineup this session plans against
func (p *Planner) Catalog() *Catalog {
	return p.catalog
}

// Export renders the current schedule as CSV and ICS files
func (p *Planner) Export(opts ExportOptions, now time.Time) ([]ExportFile, error) {
	return Export(p.Schedule(), opts, now)
}

// recomputeLocked rebuilds the schedule; the caller holds the write lock.
// The compiled value is never mutated afterwards, readers may share it.
func (p *Planner) recomputeLocked() {
	p.schedule = Compile(p.ledger.marks, p.catalog)
}

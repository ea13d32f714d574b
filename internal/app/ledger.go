package app

import (
	"github.com/google/uuid"
)

// Ledger is the append-only (with undo) log of attendance marks for one
// session. It is not safe for concurrent use; Planner serializes access.
type Ledger struct {
	marks   []Mark
	history []string
	newID   func() string
}

// NewLedger creates an empty ledger issuing random UUIDs as mark ids
func NewLedger() *Ledger {
	return &Ledger{newID: uuid.NewString}
}

// Record appends a mark for person on (day, band) and returns it
func (l *Ledger) Record(day, band string, person Person) Mark {
	m := Mark{
		ID:     l.newID(),
		Day:    day,
		Band:   band,
		Person: person.Name,
		Color:  person.Color,
	}
	l.marks = append(l.marks, m)
	l.history = append(l.history, m.ID)
	return m
}

// UndoLast removes the most recently recorded mark still present.
// ok is false when the ledger is empty.
func (l *Ledger) UndoLast() (removed Mark, ok bool) {
	if len(l.history) == 0 {
		return Mark{}, false
	}
	last := l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]

	for i := len(l.marks) - 1; i >= 0; i-- {
		if l.marks[i].ID == last {
			removed = l.marks[i]
			l.marks = append(l.marks[:i], l.marks[i+1:]...)
			return removed, true
		}
	}
	return Mark{}, false
}

// Marks returns a copy of all marks in append order
func (l *Ledger) Marks() []Mark {
	out := make([]Mark, len(l.marks))
	copy(out, l.marks)
	return out
}

// Len is the number of marks currently held
func (l *Ledger) Len() int {
	return len(l.marks)
}

// Last returns the most recent mark, if any
func (l *Ledger) Last() (Mark, bool) {
	if len(l.marks) == 0 {
		return Mark{}, false
	}
	return l.marks[len(l.marks)-1], true
}

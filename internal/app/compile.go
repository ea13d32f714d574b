package app

import (
	"sort"
)

// SlotFinder resolves the official slot for a band on a day
type SlotFinder interface {
	Lookup(day, band string) (Slot, bool)
}

// Compile joins marks against the catalog into a per-day schedule.
//
// Days and bands are grouped in first-appearance order, attendees are
// de-duplicated in first-seen order and each day is then sorted with
// SortEntries. Days without marks do not appear. slots may be nil.
func Compile(marks []Mark, slots SlotFinder) CompiledSchedule {
	var schedule CompiledSchedule
	dayIndex := make(map[string]int)
	bandIndex := make(map[string]map[string]int)

	for _, m := range marks {
		di, ok := dayIndex[m.Day]
		if !ok {
			di = len(schedule.Days)
			dayIndex[m.Day] = di
			bandIndex[m.Day] = make(map[string]int)
			schedule.Days = append(schedule.Days, DaySchedule{Day: m.Day})
		}
		day := &schedule.Days[di]

		bi, ok := bandIndex[m.Day][m.Band]
		if !ok {
			entry := CompiledEntry{Band: m.Band}
			if slots != nil {
				if slot, found := slots.Lookup(m.Day, m.Band); found {
					entry.Time = slot.Time
					entry.Stage = slot.Stage
				}
			}
			bi = len(day.Entries)
			bandIndex[m.Day][m.Band] = bi
			day.Entries = append(day.Entries, entry)
		}
		entry := &day.Entries[bi]

		if !containsString(entry.Attendees, m.Person) {
			entry.Attendees = append(entry.Attendees, m.Person)
		}
	}

	for i := range schedule.Days {
		SortEntries(schedule.Days[i].Entries)
	}
	return schedule
}

// SortEntries orders a day's entries by time of day ascending. Entries without
// a parseable time go last, ordered by band name; equal times keep their order.
func SortEntries(entries []CompiledEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entryLess(entries[i], entries[j])
	})
}

func entryLess(a, b CompiledEntry) bool {
	ta, okA := ParseMinutes(a.Time)
	tb, okB := ParseMinutes(b.Time)
	switch {
	case !okA && !okB:
		return a.Band < b.Band
	case !okA:
		return false
	case !okB:
		return true
	default:
		return ta < tb
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Package blocking answers day- and slot-level availability questions over
// admin-created BlockedTime records.
//
// Recurring records are not expanded here. The salon API materializes them
// into concrete per-date records, so IsRecurring is carried but not interpreted.
package blocking

import (
	"sort"
	"strings"

	"salonbook/internal/models"
)

// Index is an immutable lookup built from a snapshot of blocked times.
// The zero value and a nil *Index report nothing as blocked.
type Index struct {
	days  map[string]struct{}
	slots map[string]map[string]struct{}
}

// NewIndex builds an Index. Records with an empty date are skipped.
func NewIndex(records []models.BlockedTime) *Index {
	idx := &Index{
		days:  make(map[string]struct{}),
		slots: make(map[string]map[string]struct{}),
	}
	for _, r := range records {
		date := strings.TrimSpace(r.Date)
		if date == "" {
			continue
		}
		date = normalizeDate(date)
		if r.WholeDay() {
			idx.days[date] = struct{}{}
			continue
		}
		if r.StartTime == nil {
			continue
		}
		t := NormalizeTime(*r.StartTime)
		if t == "" {
			continue
		}
		if idx.slots[date] == nil {
			idx.slots[date] = make(map[string]struct{})
		}
		idx.slots[date][t] = struct{}{}
	}
	return idx
}

// IsDateBlocked is true iff a whole-day record exists for date.
func (i *Index) IsDateBlocked(date string) bool {
	if i == nil {
		return false
	}
	_, ok := i.days[normalizeDate(date)]
	return ok
}

// IsSlotBlocked is true when the whole date is blocked or a record starts at t.
func (i *Index) IsSlotBlocked(date, t string) bool {
	if i == nil {
		return false
	}
	if i.IsDateBlocked(date) {
		return true
	}
	_, ok := i.slots[normalizeDate(date)][NormalizeTime(t)]
	return ok
}

// BlockedDays returns the set of whole-day blocked dates, as consumed by the calendar.
func (i *Index) BlockedDays() map[string]bool {
	out := make(map[string]bool)
	if i == nil {
		return out
	}
	for d := range i.days {
		out[d] = true
	}
	return out
}

// SlotTimes lists slot-level blocked start times on date in ascending order.
// Whole-day blocks are not expanded.
func (i *Index) SlotTimes(date string) []string {
	if i == nil {
		return nil
	}
	set := i.slots[normalizeDate(date)]
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NormalizeTime trims seconds from "HH:MM:SS" and returns "" for malformed input.
func NormalizeTime(t string) string {
	t = strings.TrimSpace(t)
	if len(t) >= 8 && t[5] == ':' {
		t = t[:5]
	}
	if len(t) != 5 || t[2] != ':' {
		return ""
	}
	return t
}

// normalizeDate drops a time component from ISO timestamps like 2024-05-01T00:00:00Z.
func normalizeDate(d string) string {
	d = strings.TrimSpace(d)
	if len(d) > 10 && (d[10] == 'T' || d[10] == ' ') {
		return d[:10]
	}
	return d
}

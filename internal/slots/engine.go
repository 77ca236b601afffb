package slots

import (
	"fmt"
	"time"

	"salonbook/internal/blocking"
	"salonbook/internal/models"
)

// Engine classifies the fixed slot grid of a day.
type Engine struct {
	hours models.WorkingHours
	loc   *time.Location
	times []string
}

// NewEngine validates the working hours and precomputes the slot grid.
func NewEngine(hours models.WorkingHours, loc *time.Location) (*Engine, error) {
	if loc == nil {
		loc = time.UTC
	}
	times, err := Grid(hours)
	if err != nil {
		return nil, err
	}
	return &Engine{hours: hours, loc: loc, times: times}, nil
}

// Grid lists slot start times from Start to End inclusive, stepping SlotMinutes.
func Grid(hours models.WorkingHours) ([]string, error) {
	start, err := minutesOf(hours.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %v", ErrInvalidWorkingHours, err)
	}
	end, err := minutesOf(hours.End)
	if err != nil {
		return nil, fmt.Errorf("%w: end: %v", ErrInvalidWorkingHours, err)
	}
	if hours.SlotMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", ErrInvalidWorkingHours)
	}
	if end < start {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidWorkingHours)
	}

	out := make([]string, 0, (end-start)/hours.SlotMinutes+1)
	for m := start; m <= end; m += hours.SlotMinutes {
		out = append(out, formatMinutes(m))
	}
	return out, nil
}

func (e *Engine) Hours() models.WorkingHours { return e.hours }

func (e *Engine) Location() *time.Location { return e.loc }

// Times returns a copy of the day grid.
func (e *Engine) Times() []string {
	return append([]string(nil), e.times...)
}

// Input is the occupancy snapshot for one date.
type Input struct {
	Date    string
	Booked  []string
	Blocked []string
	// Blocks adds admin blocks from the blocked-times listing on top of Blocked.
	Blocks *blocking.Index
}

// Compute classifies every slot of in.Date at instant now.
//
// isPast applies to today's slots at or before the current minute, and to every
// slot of an earlier date. A booked slot is never reported as blocked. A past slot
// is never available.
func (e *Engine) Compute(in Input, now time.Time) ([]models.TimeSlot, error) {
	day, err := time.ParseInLocation(models.DateFormat, in.Date, e.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, in.Date)
	}
	now = now.In(e.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)
	nowMinutes := now.Hour()*60 + now.Minute()

	booked := toSet(in.Booked)
	blocked := toSet(in.Blocked)
	wholeDay := in.Blocks.IsDateBlocked(in.Date)

	out := make([]models.TimeSlot, 0, len(e.times))
	for _, t := range e.times {
		slot := models.TimeSlot{Time: t}
		mins, _ := minutesOf(t)

		switch {
		case day.Before(today):
			slot.IsPast = true
		case day.Equal(today):
			slot.IsPast = mins <= nowMinutes
		}

		switch {
		case booked[t]:
			slot.IsBooked = true
		case wholeDay || blocked[t] || in.Blocks.IsSlotBlocked(in.Date, t):
			slot.IsBlocked = true
		default:
			slot.IsAvailable = !slot.IsPast
		}
		out = append(out, slot)
	}
	return out, nil
}

// FirstAvailable returns the earliest available slot time. ok is false when the
// day has nothing free and callers must render an empty state.
func FirstAvailable(slots []models.TimeSlot) (string, bool) {
	for _, s := range slots {
		if s.IsAvailable {
			return s.Time, true
		}
	}
	return "", false
}

// CanSelect applies the selection rule for actor. Customers may only pick
// available slots. Admins may also pick booked or blocked slots, but not past ones.
func CanSelect(slot models.TimeSlot, actor models.Actor) bool {
	if actor == models.ActorAdmin {
		return !slot.IsPast
	}
	return slot.IsAvailable
}

// Find returns the slot starting at t.
func Find(slots []models.TimeSlot, t string) (models.TimeSlot, bool) {
	for _, s := range slots {
		if s.Time == t {
			return s, true
		}
	}
	return models.TimeSlot{}, false
}

// ParseTime converts HH:MM into minutes since midnight.
func ParseTime(t string) (int, error) {
	return minutesOf(t)
}

func minutesOf(t string) (int, error) {
	parsed, err := time.Parse(models.TimeFormat, t)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if n := blocking.NormalizeTime(v); n != "" {
			set[n] = true
		}
	}
	return set
}

package adminview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbook/internal/models"
)

var (
	ErrUnknownView = errors.New("unknown view mode")
	ErrInvalidDate = errors.New("invalid anchor date")
)

// Range is an inclusive window of calendar dates.
type Range struct {
	View  models.ViewMode
	Start time.Time
	End   time.Time
}

func (r Range) StartDate() string { return r.Start.Format(models.DateFormat) }
func (r Range) EndDate() string   { return r.End.Format(models.DateFormat) }

// Days is the number of dates covered, both ends included.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24+0.5) + 1
}

func (r Range) Contains(date string) bool {
	return date >= r.StartDate() && date <= r.EndDate()
}

func (r Range) String() string {
	return fmt.Sprintf("%s %s..%s", r.View, r.StartDate(), r.EndDate())
}

// ParseViewMode accepts day, week or month (case-insensitive). Empty means day.
func ParseViewMode(s string) (models.ViewMode, error) {
	switch models.ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", models.ViewDay:
		return models.ViewDay, nil
	case models.ViewWeek:
		return models.ViewWeek, nil
	case models.ViewMonth:
		return models.ViewMonth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// RangeFor derives the query window for view around anchor. Weeks run Sunday
// through Saturday. Only the calendar date of anchor is used.
func RangeFor(view models.ViewMode, anchor time.Time) (Range, error) {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())

	switch view {
	case models.ViewDay:
		return Range{View: view, Start: day, End: day}, nil
	case models.ViewWeek:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return Range{View: view, Start: start, End: start.AddDate(0, 0, 6)}, nil
	case models.ViewMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return Range{View: view, Start: start, End: start.AddDate(0, 1, -1)}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
}

// ParseRange is RangeFor over raw query values. An empty date means today in loc.
func ParseRange(view, date string, loc *time.Location, now time.Time) (Range, error) {
	mode, err := ParseViewMode(view)
	if err != nil {
		return Range{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	anchor := now.In(loc)
	if date != "" {
		anchor, err = time.ParseInLocation(models.DateFormat, date, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
	}
	return RangeFor(mode, anchor)
}

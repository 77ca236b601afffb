package calendar

import (
	"time"

	"salonbook/internal/models"
)

var defaultDayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Options controls month generation.
type Options struct {
	// MonthsCount is the window size starting at Today's month.
	MonthsCount int
	// Today is the current instant; its date in Today.Location() is "today".
	Today time.Time
	// WeekStart is the weekday shown in the first grid column. Defaults to Sunday.
	WeekStart time.Weekday
	// DayNames indexed by time.Weekday. Defaults to English short names.
	DayNames *[7]string
}

// Generate builds MonthsCount months of day grids. blockedDays holds whole-day
// blocks keyed by YYYY-MM-DD; slot-level blocks do not affect day selectability.
// Generate never marks a day selected, see ApplySelection.
func Generate(blockedDays map[string]bool, opts Options) []models.CalendarMonth {
	count := opts.MonthsCount
	if count <= 0 {
		count = models.DefaultMonthsCount
	}
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	loc := today.Location()
	todayDate := dateOnly(today)
	names := defaultDayNames
	if opts.DayNames != nil {
		names = *opts.DayNames
	}

	anchor := time.Date(todayDate.Year(), todayDate.Month(), 1, 0, 0, 0, 0, loc)
	months := make([]models.CalendarMonth, 0, count)
	for offset := 0; offset < count; offset++ {
		first := anchor.AddDate(0, offset, 0)
		months = append(months, buildMonth(first, todayDate, blockedDays, opts.WeekStart, names))
	}
	return months
}

func buildMonth(first, today time.Time, blocked map[string]bool, weekStart time.Weekday, names [7]string) models.CalendarMonth {
	padding := (int(first.Weekday()) - int(weekStart) + 7) % 7
	total := daysIn(first.Month(), first.Year())

	cells := make([]*models.CalendarDay, 0, padding+total+6)
	for i := 0; i < padding; i++ {
		cells = append(cells, nil)
	}
	for day := 1; day <= total; day++ {
		d := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, first.Location())
		date := d.Format(models.DateFormat)
		isToday := d.Equal(today)
		cells = append(cells, &models.CalendarDay{
			Day:       day,
			Date:      date,
			IsToday:   isToday,
			IsPast:    d.Before(today) && !isToday,
			IsBlocked: blocked[date],
			DayName:   names[d.Weekday()],
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	return models.CalendarMonth{Year: first.Year(), Month: int(first.Month()), Days: cells}
}

// ApplySelection returns a copy of months with IsSelected set only on date.
// Callers re-apply it after every regeneration.
func ApplySelection(months []models.CalendarMonth, date string) []models.CalendarMonth {
	out := make([]models.CalendarMonth, len(months))
	for i, m := range months {
		days := make([]*models.CalendarDay, len(m.Days))
		for j, d := range m.Days {
			if d == nil {
				continue
			}
			cp := *d
			cp.IsSelected = date != "" && cp.Date == date
			days[j] = &cp
		}
		out[i] = models.CalendarMonth{Year: m.Year, Month: m.Month, Days: days}
	}
	return out
}

// FindDay looks up a date in the generated window.
func FindDay(months []models.CalendarMonth, date string) (models.CalendarDay, bool) {
	for _, m := range months {
		for _, d := range m.Days {
			if d != nil && d.Date == date {
				return *d, true
			}
		}
	}
	return models.CalendarDay{}, false
}

// MonthIndexOf returns the index of the month containing date, or -1.
func MonthIndexOf(months []models.CalendarMonth, date string) int {
	t, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return -1
	}
	for i, m := range months {
		if m.Year == t.Year() && m.Month == int(t.Month()) {
			return i
		}
	}
	return -1
}

// Select validates that date is a selectable day in the window. A false result is
// a no-op for the caller, not an error.
func Select(months []models.CalendarMonth, date string) bool {
	d, ok := FindDay(months, date)
	return ok && d.Selectable()
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

package models

type CalendarDay struct {
	Day        int    `json:"day"`
	Date       string `json:"date"`
	IsToday    bool   `json:"isToday"`
	IsPast     bool   `json:"isPast"`
	IsBlocked  bool   `json:"isBlocked"`
	IsSelected bool   `json:"isSelected"`
	DayName    string `json:"dayName"`
}

// Selectable reports whether a customer may pick the day.
func (d CalendarDay) Selectable() bool {
	return !d.IsPast && !d.IsBlocked
}

// CalendarMonth holds a day grid. Nil entries are empty padding cells.
type CalendarMonth struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}

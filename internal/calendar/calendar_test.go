package calendar

import (
	"testing"
	"time"

	"salonbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func istanbul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	return loc
}

func TestGenerateWindowAndPadding(t *testing.T) {
	loc := istanbul(t)
	today := time.Date(2026, 10, 14, 9, 30, 0, 0, loc)

	months := Generate(nil, Options{MonthsCount: 3, Today: today})
	require.Len(t, months, 3)

	assert.Equal(t, 2026, months[0].Year)
	assert.Equal(t, 10, months[0].Month)
	assert.Equal(t, 11, months[1].Month)
	assert.Equal(t, 12, months[2].Month)

	// 1 Oct 2026 is a Thursday: four empty cells in a Sunday-first grid.
	for i := 0; i < 4; i++ {
		assert.Nil(t, months[0].Days[i])
	}
	require.NotNil(t, months[0].Days[4])
	assert.Equal(t, 1, months[0].Days[4].Day)
	assert.Equal(t, "Thu", months[0].Days[4].DayName)

	for _, m := range months {
		assert.Zero(t, len(m.Days)%7, "grid must be whole weeks")
	}
}

func TestGenerateMondayFirst(t *testing.T) {
	loc := istanbul(t)
	months := Generate(nil, Options{MonthsCount: 1, Today: time.Date(2026, 10, 14, 0, 0, 0, 0, loc), WeekStart: time.Monday})
	// Thursday is the fourth column when weeks start on Monday.
	assert.Nil(t, months[0].Days[2])
	require.NotNil(t, months[0].Days[3])
	assert.Equal(t, 1, months[0].Days[3].Day)
}

func TestGeneratePastTodayExclusive(t *testing.T) {
	loc := istanbul(t)
	today := time.Date(2026, 10, 14, 23, 59, 0, 0, loc)
	months := Generate(nil, Options{MonthsCount: 2, Today: today})

	var sawToday bool
	for _, m := range months {
		for _, d := range m.Days {
			if d == nil {
				continue
			}
			assert.False(t, d.IsPast && d.IsToday, "day %s is both past and today", d.Date)
			if d.IsToday {
				sawToday = true
				assert.Equal(t, "2026-10-14", d.Date)
			}
			if d.Date < "2026-10-14" {
				assert.True(t, d.IsPast, d.Date)
			} else {
				assert.False(t, d.IsPast, d.Date)
			}
		}
	}
	assert.True(t, sawToday)
}

func TestGenerateBlockedDay(t *testing.T) {
	loc := istanbul(t)
	today := time.Date(2026, 10, 14, 10, 0, 0, 0, loc)
	months := Generate(map[string]bool{"2026-10-20": true}, Options{MonthsCount: 1, Today: today})

	day, ok := FindDay(months, "2026-10-20")
	require.True(t, ok)
	assert.True(t, day.IsBlocked)
	assert.False(t, day.Selectable())
	assert.False(t, Select(months, "2026-10-20"))
	assert.True(t, Select(months, "2026-10-21"))
	assert.False(t, Select(months, "2026-10-13"), "past day")
	assert.False(t, Select(months, "2027-05-01"), "outside window")
}

func TestApplySelectionSurvivesRegeneration(t *testing.T) {
	loc := istanbul(t)
	opts := Options{MonthsCount: 2, Today: time.Date(2026, 10, 14, 10, 0, 0, 0, loc)}

	first := ApplySelection(Generate(nil, opts), "2026-11-03")
	d, _ := FindDay(first, "2026-11-03")
	assert.True(t, d.IsSelected)

	regenerated := Generate(map[string]bool{"2026-11-04": true}, opts)
	d, _ = FindDay(regenerated, "2026-11-03")
	assert.False(t, d.IsSelected, "generation is pure and carries no selection")

	reapplied := ApplySelection(regenerated, "2026-11-03")
	selected := 0
	for _, m := range reapplied {
		for _, day := range m.Days {
			if day != nil && day.IsSelected {
				selected++
				assert.Equal(t, "2026-11-03", day.Date)
			}
		}
	}
	assert.Equal(t, 1, selected)

	// The source slice is not mutated.
	d, _ = FindDay(regenerated, "2026-11-03")
	assert.False(t, d.IsSelected)
}

func TestMonthIndexOf(t *testing.T) {
	loc := istanbul(t)
	months := Generate(nil, Options{MonthsCount: 3, Today: time.Date(2026, 12, 5, 0, 0, 0, 0, loc)})
	assert.Equal(t, 0, MonthIndexOf(months, "2026-12-31"))
	assert.Equal(t, 1, MonthIndexOf(months, "2027-01-15"))
	assert.Equal(t, 2, MonthIndexOf(months, "2027-02-28"))
	assert.Equal(t, -1, MonthIndexOf(months, "2027-03-01"))
	assert.Equal(t, -1, MonthIndexOf(months, "bad"))
}

func TestLeapFebruary(t *testing.T) {
	months := Generate(nil, Options{MonthsCount: 1, Today: time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC)})
	_, ok := FindDay(months, "2028-02-29")
	assert.True(t, ok)
}

func TestNavigatorBounds(t *testing.T) {
	nav := NewNavigator(0, 3)
	assert.False(t, nav.Prev())
	assert.Equal(t, 0, nav.Index())

	assert.True(t, nav.Next())
	assert.True(t, nav.Next())
	assert.False(t, nav.Next())
	assert.Equal(t, 2, nav.Index())

	assert.True(t, nav.Prev())
	assert.Equal(t, 1, nav.Index())

	assert.False(t, nav.GoTo(5))
	assert.False(t, nav.GoTo(-1))
	assert.True(t, nav.GoTo(0))

	clamped := NewNavigator(10, 3)
	assert.Equal(t, 2, clamped.Index())
}

func TestDefaultsApplied(t *testing.T) {
	months := Generate(nil, Options{Today: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)})
	assert.Len(t, months, models.DefaultMonthsCount)
}

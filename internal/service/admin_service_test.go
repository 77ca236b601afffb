package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"salonbook/internal/adminview"
	"salonbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAdminBookingsWeek(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	bookings := []models.Booking{{ID: "1", Date: "2026-10-12", StartTime: "12:00", CustomerName: "Ayşe"}}
	f.api.On("AdminBookings", mock.Anything, "2026-10-11", "2026-10-17", models.ViewWeek).Return(bookings, nil).Once()

	v, err := f.admin.Bookings(ctx, "week", "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-11", v.StartDate)
	assert.Equal(t, "2026-10-17", v.EndDate)
	assert.Equal(t, bookings, v.Bookings)
}

func TestAdminBookingsDefaultsToToday(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	f.api.On("AdminBookings", mock.Anything, "2026-10-14", "2026-10-14", models.ViewDay).Return(nil, nil).Once()

	v, err := f.admin.Bookings(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, v.Bookings)
	assert.Empty(t, v.Bookings)
}

func TestAdminBookingsBadView(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	_, err := f.admin.Bookings(context.Background(), "year", "")
	assert.ErrorIs(t, err, adminview.ErrUnknownView)
}

func TestAdminExport(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	f.api.On("AdminBookings", mock.Anything, "2026-10-01", "2026-10-31", models.ViewMonth).
		Return([]models.Booking{{ID: "1", Date: "2026-10-12", StartTime: "12:00", ServiceIDs: []string{"cut"}}}, nil).Once()
	f.api.On("ListServices", mock.Anything).Return([]models.Service{{ID: "cut", NameTr: "Saç Kesimi"}}, nil).Once()

	buf, name, err := f.admin.Export(ctx, "month", "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, "bookings_2026-10-01_to_2026-10-31.xlsx", name)

	wb, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Saç Kesimi", rows[2][4])
}

func TestAdminSlotsKeepBookedSelectable(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorAdmin).
		Return(&models.AvailableTimes{BookedSlots: []string{"12:00"}, BlockedSlots: []string{"13:00"}}, nil)

	res, err := f.admin.Slots(context.Background(), "2026-10-15")
	require.NoError(t, err)
	assert.Len(t, res.Slots, 15)

	for _, s := range res.Slots {
		if s.Time == "12:00" {
			assert.True(t, s.IsBooked)
		}
		if s.Time == "13:00" {
			assert.True(t, s.IsBlocked)
		}
	}

	_, err = f.admin.Slots(context.Background(), "tomorrow")
	assert.ErrorIs(t, err, adminview.ErrInvalidDate)
}

func TestAdminSlotsOnBlockedDay(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{{ID: "b", Date: "2026-10-20"}}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-20", models.ActorAdmin).
		Return(&models.AvailableTimes{BookedSlots: []string{"15:00"}}, nil).Once()

	res, err := f.admin.Slots(context.Background(), "2026-10-20")
	require.NoError(t, err)
	assert.True(t, res.DayBlocked)
	assert.False(t, res.HasAvailable)
	require.Len(t, res.Slots, 15)

	blocked := 0
	for _, s := range res.Slots {
		if s.IsBlocked {
			blocked++
		}
	}
	assert.Equal(t, 14, blocked, "every slot but the booked one is blocked")
	f.api.AssertCalled(t, "AvailableTimes", mock.Anything, "2026-10-20", models.ActorAdmin)
}

func TestAdminFailures(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	f.ledger.On("ListFailures", mock.Anything, 100).Return([]models.FailedSubmission{{ID: 1, ErrorKind: "server"}}, nil).Once()

	list, err := f.admin.Failures(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	f.ledger.AssertExpectations(t)
}

func TestAdminPoller(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	r, err := f.admin.Range("day", "2026-10-15")
	require.NoError(t, err)
	f.api.On("AdminBookings", mock.Anything, "2026-10-15", "2026-10-15", models.ViewDay).Return([]models.Booking{{ID: "x"}}, nil)

	p := f.admin.Poller(r)
	snap, ok, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, snap.Bookings, 1)
}

func TestAdminExportArchivesCopy(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	dir := filepath.Join(t.TempDir(), "exports")
	f.admin.WithArchive(dir)
	f.api.On("AdminBookings", mock.Anything, "2026-10-14", "2026-10-14", models.ViewDay).Return(nil, nil).Once()
	f.api.On("ListServices", mock.Anything).Return([]models.Service{}, nil).Once()

	_, name, err := f.admin.Export(context.Background(), "day", "2026-10-14")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, name))
	assert.NoError(t, err)
}

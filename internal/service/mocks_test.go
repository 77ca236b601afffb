package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"salonbook/internal/models"
	"salonbook/internal/repository"
	"salonbook/internal/salonapi"
	"salonbook/internal/slots"
	"salonbook/internal/submission"
	"salonbook/internal/validation"
	"salonbook/internal/workflow"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSalonAPI struct {
	mock.Mock
}

func (m *mockSalonAPI) ListServices(ctx context.Context) ([]models.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *mockSalonAPI) ListBlockedTimes(ctx context.Context) ([]models.BlockedTime, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlockedTime), args.Error(1)
}

func (m *mockSalonAPI) InvalidateBlockedTimes(ctx context.Context) {
	m.Called(ctx)
}

func (m *mockSalonAPI) AvailableTimes(ctx context.Context, date string, actor models.Actor) (*models.AvailableTimes, error) {
	args := m.Called(ctx, date, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailableTimes), args.Error(1)
}

func (m *mockSalonAPI) SubmitBooking(ctx context.Context, req salonapi.BookingRequest, key string) (*models.Reservation, error) {
	args := m.Called(ctx, req, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockSalonAPI) AdminBookings(ctx context.Context, start, end string, view models.ViewMode) ([]models.Booking, error) {
	args := m.Called(ctx, start, end, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockSalonAPI) SendOTP(ctx context.Context, phone, name string) error {
	return m.Called(ctx, phone, name).Error(0)
}

func (m *mockSalonAPI) VerifyOTP(ctx context.Context, phone, code string) (*salonapi.VerifyResult, error) {
	args := m.Called(ctx, phone, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salonapi.VerifyResult), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) RecordFailure(ctx context.Context, f *models.FailedSubmission) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedger) ListFailures(ctx context.Context, limit int) ([]models.FailedSubmission, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FailedSubmission), args.Error(1)
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc    *SessionService
	admin  *AdminService
	api    *mockSalonAPI
	ledger *mockLedger
	repo   *repository.MemorySessionRepository
	clock  *testClock
}

func istanbul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	return loc
}

// newFixture wires the services around a 2026-10-14 10:00 Istanbul clock.
func newFixture(t *testing.T, cfg SessionConfig) *fixture {
	t.Helper()
	loc := istanbul(t)
	clock := &testClock{t: time.Date(2026, 10, 14, 10, 0, 0, 0, loc)}
	logger := zerolog.New(io.Discard)

	engine, err := slots.NewEngine(models.WorkingHours{Start: "11:30", End: "18:30", SlotMinutes: 30}, loc)
	require.NoError(t, err)

	api := new(mockSalonAPI)
	ledger := new(mockLedger)
	repo := repository.NewMemorySessionRepository(time.Hour)

	loader := NewSlotLoader(api, engine, &logger)
	loader.now = clock.Now

	fv := validation.NewFormValidator(loc, clock.Now)
	phone := workflow.NewPhoneFlow(workflow.PhoneConfig{
		OTPLength:       4,
		OTPTTL:          5 * time.Minute,
		ResendCooldown:  60 * time.Second,
		AutoSubmitDelay: 20 * time.Millisecond,
	})
	ctrl := submission.NewController(api, fv, submission.DefaultConfig(), &logger)

	svc := NewSessionService(repo, api, workflow.New(fv), phone, loader, ctrl, nil, cfg, &logger)
	svc.now = clock.Now
	t.Cleanup(svc.Close)

	admin := NewAdminService(api, loader, ledger, time.Minute, &logger)
	admin.now = clock.Now

	return &fixture{svc: svc, admin: admin, api: api, ledger: ledger, repo: repo, clock: clock}
}

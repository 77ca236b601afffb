package api

import (
	"bytes"
	"context"

	"salonbook/internal/adminview"
	"salonbook/internal/models"
	"salonbook/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) view(args mock.Arguments) (*service.SessionView, error) {
	v, _ := args.Get(0).(*service.SessionView)
	return v, args.Error(1)
}

func (m *mockSessions) CreateSession(ctx context.Context, actor models.Actor) (*service.SessionView, error) {
	return m.view(m.Called(ctx, actor))
}

func (m *mockSessions) GetSession(ctx context.Context, id string) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *mockSessions) DeleteSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessions) SendOTP(ctx context.Context, id, phone, name string) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id, phone, name))
}

func (m *mockSessions) EnterOTP(ctx context.Context, id, code string) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id, code))
}

func (m *mockSessions) VerifyOTP(ctx context.Context, id, code string) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id, code))
}

func (m *mockSessions) UpdateSelection(ctx context.Context, id string, upd service.SelectionUpdate) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id, upd))
}

func (m *mockSessions) Next(ctx context.Context, id string) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *mockSessions) Back(ctx context.Context, id string) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *mockSessions) JumpTo(ctx context.Context, id string, step models.Step) (*service.SessionView, error) {
	return m.view(m.Called(ctx, id, step))
}

func (m *mockSessions) Calendar(ctx context.Context, id string, monthIndex *int) (*service.CalendarView, error) {
	args := m.Called(ctx, id, monthIndex)
	v, _ := args.Get(0).(*service.CalendarView)
	return v, args.Error(1)
}

func (m *mockSessions) Slots(ctx context.Context, id, date string) (*service.SlotResult, error) {
	args := m.Called(ctx, id, date)
	v, _ := args.Get(0).(*service.SlotResult)
	return v, args.Error(1)
}

func (m *mockSessions) Submit(ctx context.Context, id string) (*service.SubmitResult, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*service.SubmitResult)
	return v, args.Error(1)
}

func (m *mockSessions) Services(ctx context.Context) ([]models.Service, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.Service)
	return v, args.Error(1)
}

type mockAdmin struct {
	mock.Mock
}

func (m *mockAdmin) Range(view, date string) (adminview.Range, error) {
	args := m.Called(view, date)
	v, _ := args.Get(0).(adminview.Range)
	return v, args.Error(1)
}

func (m *mockAdmin) Bookings(ctx context.Context, view, date string) (*service.BookingsView, error) {
	args := m.Called(ctx, view, date)
	v, _ := args.Get(0).(*service.BookingsView)
	return v, args.Error(1)
}

func (m *mockAdmin) Export(ctx context.Context, view, date string) (*bytes.Buffer, string, error) {
	args := m.Called(ctx, view, date)
	v, _ := args.Get(0).(*bytes.Buffer)
	return v, args.String(1), args.Error(2)
}

func (m *mockAdmin) Slots(ctx context.Context, date string) (*service.SlotResult, error) {
	args := m.Called(ctx, date)
	v, _ := args.Get(0).(*service.SlotResult)
	return v, args.Error(1)
}

func (m *mockAdmin) Failures(ctx context.Context, limit int) ([]models.FailedSubmission, error) {
	args := m.Called(ctx, limit)
	v, _ := args.Get(0).([]models.FailedSubmission)
	return v, args.Error(1)
}

func (m *mockAdmin) Poller(r adminview.Range) *adminview.Poller {
	args := m.Called(r)
	v, _ := args.Get(0).(*adminview.Poller)
	return v
}

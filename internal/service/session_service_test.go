package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"salonbook/internal/domain"
	"salonbook/internal/models"
	"salonbook/internal/salonapi"
	"salonbook/internal/submission"
	"salonbook/internal/validation"
	"salonbook/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testPhone = "5321234567"
	testName  = "Ayşe Yılmaz"
)

func strp(s string) *string { return &s }

// verifiedSession returns a session that has passed phone verification.
func verifiedSession(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()
	f.api.On("SendOTP", mock.Anything, testPhone, testName).Return(nil).Once()
	f.api.On("VerifyOTP", mock.Anything, testPhone, "1234").Return(&salonapi.VerifyResult{}, nil).Once()

	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	_, err = f.svc.SendOTP(ctx, v.ID, "+90 532 123 45 67", testName)
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(ctx, v.ID, "1234")
	require.NoError(t, err)
	return v.ID
}

func TestCreateAndGetSession(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()

	v, err := f.svc.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, models.ActorCustomer, v.Actor)
	assert.Equal(t, models.StepPhoneVerification, v.Step)
	assert.False(t, v.CanAdvance)
	assert.Equal(t, []models.Step{models.StepPhoneVerification}, v.Reachable)

	got, err := f.svc.GetSession(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = f.svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = f.svc.CreateSession(ctx, "robot")
	assert.ErrorIs(t, err, ErrInvalidActor)
}

func TestHappyPathSubmitsOnce(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)

	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-10-15"}, nil)

	v, err := f.svc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepSelection, v.Step)

	v, err = f.svc.UpdateSelection(ctx, id, SelectionUpdate{
		Services: &[]string{"cut"},
		Date:     strp("2026-10-15"),
		Time:     strp("12:00"),
	})
	require.NoError(t, err)
	assert.True(t, v.CanAdvance)

	v, err = f.svc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirmation, v.Step)

	var key string
	f.api.On("SubmitBooking", mock.Anything, mock.MatchedBy(func(req salonapi.BookingRequest) bool {
		return req.PhoneNumber == testPhone && req.SelectedTime == "12:00"
	}), mock.Anything).Run(func(args mock.Arguments) {
		key = args.String(2)
	}).Return(&models.Reservation{ReservationID: "R-42", AppointmentDate: "2026-10-15", StartTime: "12:00"}, nil).Once()

	res, err := f.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "R-42", res.Reservation.ReservationID)
	assert.Equal(t, 1, res.Attempts)
	assert.NotEmpty(t, key)

	after, err := f.svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepPhoneVerification, after.Step)
	assert.False(t, after.Form.IsPhoneVerified)
	assert.Equal(t, "R-42", after.Reservation.ReservationID)

	// The reset form is back at step 1, so a second submit is gated.
	_, err = f.svc.Submit(ctx, id)
	assert.ErrorIs(t, err, workflow.ErrStepGated)
	f.api.AssertNumberOfCalls(t, "SubmitBooking", 1)
}

func TestSendOTPValidation(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)

	_, err = f.svc.SendOTP(ctx, v.ID, "123", testName)
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "phoneNumber")
	f.api.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendOTPCooldown(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	f.api.On("SendOTP", mock.Anything, testPhone, testName).Return(nil)

	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	v, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	require.NoError(t, err)
	assert.Equal(t, 60, v.CooldownSeconds)
	assert.True(t, v.Form.IsOtpSent)
	require.NotNil(t, v.OtpExpiresAt)

	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	assert.ErrorIs(t, err, workflow.ErrResendCooldown)

	f.clock.Advance(61 * time.Second)
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	assert.NoError(t, err)
	f.api.AssertNumberOfCalls(t, "SendOTP", 2)
}

func TestSendOTPRateLimited(t *testing.T) {
	f := newFixture(t, SessionConfig{OTPSendLimit: 1, OTPSendWindow: time.Hour})
	ctx := context.Background()
	f.api.On("SendOTP", mock.Anything, testPhone, testName).Return(nil)

	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	assert.ErrorIs(t, err, ErrRateLimited)
	f.api.AssertNumberOfCalls(t, "SendOTP", 1)
}

func TestSendOTPUpstreamFailure(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	f.api.On("SendOTP", mock.Anything, testPhone, testName).Return(&salonapi.HTTPError{StatusCode: 503}).Once()

	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	assert.ErrorIs(t, err, ErrUpstream)

	got, err := f.svc.GetSession(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationIdle, got.Phone.Status)
	assert.False(t, got.Phone.IsSendingOtp)
	assert.NotEmpty(t, got.Phone.LastError)
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	f.api.On("SendOTP", mock.Anything, testPhone, testName).Return(nil)

	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	require.NoError(t, err)

	f.clock.Advance(301 * time.Second)
	got, err := f.svc.GetSession(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationIdle, got.Phone.Status)

	_, err = f.svc.VerifyOTP(ctx, v.ID, "1234")
	assert.ErrorIs(t, err, workflow.ErrOTPExpired)
	f.api.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)

	// A fresh code can be requested right away.
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	assert.NoError(t, err)
}

func TestVerifyOTPMismatch(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	f.api.On("SendOTP", mock.Anything, testPhone, testName).Return(nil)
	f.api.On("VerifyOTP", mock.Anything, testPhone, "9999").
		Return(nil, &salonapi.HTTPError{StatusCode: 400, Code: "INVALID_OTP"}).Once()

	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(ctx, v.ID, "9999")
	assert.ErrorIs(t, err, workflow.ErrOTPMismatch)

	got, err := f.svc.GetSession(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationOtpSent, got.Phone.Status)
	assert.False(t, got.Form.IsPhoneVerified)
}

func TestEnterOTPAutoVerifies(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	f.api.On("SendOTP", mock.Anything, testPhone, testName).Return(nil)
	f.api.On("VerifyOTP", mock.Anything, testPhone, "4321").Return(&salonapi.VerifyResult{IsExistingCustomer: true}, nil).Once()

	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	_, err = f.svc.SendOTP(ctx, v.ID, testPhone, testName)
	require.NoError(t, err)

	v, err = f.svc.EnterOTP(ctx, v.ID, "43")
	require.NoError(t, err)
	assert.False(t, v.AutoVerifying)

	v, err = f.svc.EnterOTP(ctx, v.ID, "4321")
	require.NoError(t, err)
	assert.True(t, v.AutoVerifying)
	assert.Empty(t, v.Form.OtpCode)

	require.Eventually(t, func() bool {
		got, err := f.svc.GetSession(ctx, v.ID)
		return err == nil && got.Form.IsPhoneVerified && got.Phone.IsExistingCustomer
	}, time.Second, 10*time.Millisecond)
}

func TestNextGatedWithoutVerification(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)

	_, err = f.svc.Next(ctx, v.ID)
	assert.ErrorIs(t, err, workflow.ErrStepGated)
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, validation.CodeNotVerified, verrs["isPhoneVerified"])

	back, err := f.svc.Back(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPhoneVerification, back.Step)

	_, err = f.svc.JumpTo(ctx, v.ID, models.StepConfirmation)
	assert.ErrorIs(t, err, workflow.ErrStepGated)
}

func TestJumpForwardAfterGoingBack(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-10-15"}, nil)

	_, err := f.svc.Next(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.UpdateSelection(ctx, id, SelectionUpdate{Services: &[]string{"cut"}, Date: strp("2026-10-15"), Time: strp("12:00")})
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, id)
	require.NoError(t, err)

	v, err := f.svc.JumpTo(ctx, id, models.StepPhoneVerification)
	require.NoError(t, err)
	assert.Equal(t, models.StepPhoneVerification, v.Step)
	assert.Equal(t, []models.Step{models.StepPhoneVerification, models.StepSelection, models.StepConfirmation}, v.Reachable)

	v, err = f.svc.JumpTo(ctx, id, models.StepConfirmation)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirmation, v.Step)
	assert.Equal(t, "12:00", v.Form.SelectedTime)
}

func TestSubmitRequiresConfirmationStep(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-10-15"}, nil)

	_, err := f.svc.Submit(ctx, id)
	assert.ErrorIs(t, err, workflow.ErrStepGated)

	// A complete selection still has to pass through confirmation.
	_, err = f.svc.Next(ctx, id)
	require.NoError(t, err)
	v, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Services: &[]string{"cut"}, Date: strp("2026-10-15"), Time: strp("12:00")})
	require.NoError(t, err)
	require.True(t, v.CanAdvance)

	_, err = f.svc.Submit(ctx, id)
	assert.ErrorIs(t, err, workflow.ErrStepGated)
	f.api.AssertNotCalled(t, "SubmitBooking", mock.Anything, mock.Anything, mock.Anything)

	got, err := f.svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepSelection, got.Step)
}

func TestUpdateSelectionChecksDay(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{{ID: "b1", Date: "2026-10-16"}}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-11-02", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-11-02"}, nil)

	_, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-10-16")})
	assert.ErrorIs(t, err, ErrDayUnavailable)

	_, err = f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-10-13")})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, validation.CodeDatePast, verrs["selectedDate"])

	v, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-11-02"), Time: strp("11:30")})
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", v.Form.SelectedDate)
	assert.Equal(t, "11:30", v.Form.SelectedTime)
	assert.Equal(t, 1, v.MonthIndex)

	// Changing the date clears the time.
	v, err = f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-11-03")})
	require.NoError(t, err)
	assert.Empty(t, v.Form.SelectedTime)
}

func TestSlotsAndTimeSelection(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-10-15", BookedSlots: []string{"12:00"}}, nil)

	_, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-10-15")})
	require.NoError(t, err)

	res, err := f.svc.Slots(ctx, id, "")
	require.NoError(t, err)
	assert.Len(t, res.Slots, 15)
	assert.Equal(t, "11:30", res.FirstAvailable)
	assert.True(t, res.HasAvailable)

	_, err = f.svc.UpdateSelection(ctx, id, SelectionUpdate{Time: strp("12:00")})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	v, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Time: strp("12:30")})
	require.NoError(t, err)
	assert.Equal(t, "12:30", v.Form.SelectedTime)

	_, err = f.svc.Slots(ctx, id, "15-10-2026")
	var verrs validation.Errors
	assert.ErrorAs(t, err, &verrs)
}

func TestTimeSelectionWithoutFetchedSlots(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)
	f.api.On("ListBlockedTimes", mock.Anything).
		Return([]models.BlockedTime{{ID: "b1", Date: "2026-10-15", StartTime: strp("12:00")}}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-10-15"}, nil)

	// No Slots call happened, the grid is computed for the check.
	_, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-10-15"), Time: strp("12:00")})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	got, err := f.svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Form.SelectedDate)

	v, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-10-15"), Time: strp("12:30")})
	require.NoError(t, err)
	assert.Equal(t, "12:30", v.Form.SelectedTime)
}

func TestTimeSelectionUpstreamFailure(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Return(nil, &salonapi.HTTPError{StatusCode: 503}).Once()

	_, err := f.svc.UpdateSelection(ctx, id, SelectionUpdate{Date: strp("2026-10-15"), Time: strp("12:00")})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestAdminSessionBooksIntoBlockedDay(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{{ID: "b", Date: "2026-10-20"}}, nil)
	f.api.On("AvailableTimes", mock.Anything, "2026-10-20", models.ActorAdmin).
		Return(&models.AvailableTimes{Date: "2026-10-20", BookedSlots: []string{"12:00"}}, nil)

	v, err := f.svc.CreateSession(ctx, models.ActorAdmin)
	require.NoError(t, err)

	res, err := f.svc.Slots(ctx, v.ID, "2026-10-20")
	require.NoError(t, err)
	assert.True(t, res.DayBlocked)
	require.Len(t, res.Slots, 15)
	for _, s := range res.Slots {
		if s.Time == "12:00" {
			assert.True(t, s.IsBooked)
			assert.False(t, s.IsBlocked)
			continue
		}
		assert.True(t, s.IsBlocked, s.Time)
		assert.False(t, s.IsAvailable, s.Time)
	}

	v, err = f.svc.UpdateSelection(ctx, v.ID, SelectionUpdate{Date: strp("2026-10-20"), Time: strp("14:00")})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", v.Form.SelectedDate)
	assert.Equal(t, "14:00", v.Form.SelectedTime)

	// Customers still cannot pick the day.
	c, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	_, err = f.svc.UpdateSelection(ctx, c.ID, SelectionUpdate{Date: strp("2026-10-20")})
	assert.ErrorIs(t, err, ErrDayUnavailable)
}

func TestSlotsSupersedeOlderFetch(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)

	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)
	started := make(chan struct{})
	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled).Once()
	f.api.On("AvailableTimes", mock.Anything, "2026-10-16", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-10-16"}, nil).Once()

	errc := make(chan error, 1)
	go func() {
		_, err := f.svc.Slots(ctx, v.ID, "2026-10-15")
		errc <- err
	}()
	<-started

	res, err := f.svc.Slots(ctx, v.ID, "2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", res.Date)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("stale fetch was not cancelled")
	}

	last, ok := f.svc.loader.Last(v.ID, "2026-10-16")
	assert.True(t, ok)
	assert.Equal(t, "2026-10-16", last.Date)
	_, ok = f.svc.loader.Last(v.ID, "2026-10-15")
	assert.False(t, ok)
}

func TestSlotsWholeDayBlockedSkipsFetch(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{{ID: "b", Date: "2026-10-20"}}, nil)

	res, err := f.svc.Slots(ctx, v.ID, "2026-10-20")
	require.NoError(t, err)
	assert.True(t, res.DayBlocked)
	assert.Empty(t, res.Slots)
	f.api.AssertNotCalled(t, "AvailableTimes", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitConflictReturnsToSelection(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	id := verifiedSession(t, f)
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{}, nil)

	f.api.On("AvailableTimes", mock.Anything, "2026-10-15", models.ActorCustomer).
		Return(&models.AvailableTimes{Date: "2026-10-15"}, nil)

	_, err := f.svc.Next(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.UpdateSelection(ctx, id, SelectionUpdate{Services: &[]string{"cut"}, Date: strp("2026-10-15"), Time: strp("14:00")})
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, id)
	require.NoError(t, err)

	f.api.On("SubmitBooking", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &salonapi.HTTPError{StatusCode: 409, Code: "SLOT_TAKEN"}).Once()

	res, err := f.svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, submission.KindConflict, res.Kind)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, res.ContactLink)
	assert.Equal(t, submission.KindConflict.UserMessage(), res.Message)

	v, err := f.svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepSelection, v.Step)
	assert.Empty(t, v.Form.SelectedTime)
	assert.Equal(t, "2026-10-15", v.Form.SelectedDate)
}

func TestCalendarNavigation(t *testing.T) {
	f := newFixture(t, SessionConfig{MonthsCount: 3})
	ctx := context.Background()
	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)
	f.api.On("ListBlockedTimes", mock.Anything).Return(nil, errors.New("down")).Once()
	f.api.On("ListBlockedTimes", mock.Anything).Return([]models.BlockedTime{{ID: "b", Date: "2026-10-20"}}, nil)

	// Calendar still renders when blocked times are unavailable.
	cal, err := f.svc.Calendar(ctx, v.ID, nil)
	require.NoError(t, err)
	assert.Len(t, cal.Months, 3)
	assert.Equal(t, 0, cal.MonthIndex)
	assert.False(t, cal.CanPrev)

	idx := 2
	cal, err = f.svc.Calendar(ctx, v.ID, &idx)
	require.NoError(t, err)
	assert.Equal(t, 2, cal.MonthIndex)
	assert.True(t, cal.Moved)
	assert.False(t, cal.CanNext)

	idx = 7
	cal, err = f.svc.Calendar(ctx, v.ID, &idx)
	require.NoError(t, err)
	assert.Equal(t, 2, cal.MonthIndex)
	assert.False(t, cal.Moved)

	got, err := f.svc.GetSession(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MonthIndex)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	v, err := f.svc.CreateSession(ctx, models.ActorCustomer)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSession(ctx, v.ID))
	_, err = f.svc.GetSession(ctx, v.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"salonbook/internal/calendar"
	"salonbook/internal/domain"
	"salonbook/internal/events"
	"salonbook/internal/metrics"
	"salonbook/internal/models"
	"salonbook/internal/salonapi"
	"salonbook/internal/slots"
	"salonbook/internal/submission"
	"salonbook/internal/validation"
	"salonbook/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionConfig carries the tunables SessionService needs beyond its collaborators.
type SessionConfig struct {
	MonthsCount int
	// OTPSendLimit caps sends per phone within OTPSendWindow. Zero disables the check.
	OTPSendLimit  int
	OTPSendWindow time.Duration
	Contact       submission.ContactConfig
}

// SessionService drives one customer's booking flow across requests.
type SessionService struct {
	repo      domain.SessionRepository
	api       domain.SalonAPI
	workflow  *workflow.Workflow
	phone     *workflow.PhoneFlow
	loader    *SlotLoader
	submitter *submission.Controller
	eventBus  domain.EventPublisher
	debouncer *workflow.Debouncer
	cfg       SessionConfig
	loc       *time.Location
	now       func() time.Time
	logger    *zerolog.Logger

	locks sync.Map
}

func NewSessionService(
	repo domain.SessionRepository,
	api domain.SalonAPI,
	wf *workflow.Workflow,
	phone *workflow.PhoneFlow,
	loader *SlotLoader,
	submitter *submission.Controller,
	eventBus domain.EventPublisher,
	cfg SessionConfig,
	logger *zerolog.Logger,
) *SessionService {
	if cfg.MonthsCount <= 0 {
		cfg.MonthsCount = models.DefaultMonthsCount
	}
	return &SessionService{
		repo:      repo,
		api:       api,
		workflow:  wf,
		phone:     phone,
		loader:    loader,
		submitter: submitter,
		eventBus:  eventBus,
		debouncer: workflow.NewDebouncer(phone.Config().AutoSubmitDelay),
		cfg:       cfg,
		loc:       loader.Engine().Location(),
		now:       time.Now,
		logger:    logger,
	}
}

// SessionView is what the HTTP layer renders for a session.
type SessionView struct {
	ID              string                        `json:"id"`
	Actor           models.Actor                  `json:"actor"`
	Form            models.BookingFormData        `json:"form"`
	Phone           models.PhoneVerificationState `json:"phone"`
	Step            models.Step                   `json:"step"`
	StepName        string                        `json:"stepName"`
	CanAdvance      bool                          `json:"canAdvance"`
	Errors          map[string]string             `json:"errors,omitempty"`
	Reachable       []models.Step                 `json:"reachableSteps"`
	MonthIndex      int                           `json:"monthIndex"`
	CooldownSeconds int                           `json:"resendCooldownSeconds"`
	OtpExpiresAt    *time.Time                    `json:"otpExpiresAt,omitempty"`
	AutoVerifying   bool                          `json:"autoVerifying"`
	Reservation     *models.Reservation           `json:"reservation,omitempty"`
}

// SelectionUpdate holds the step-2 fields to change. Nil fields are left untouched.
type SelectionUpdate struct {
	Services *[]string `json:"selectedServices"`
	Date     *string   `json:"selectedDate"`
	Time     *string   `json:"selectedTime"`
	Notes    *string   `json:"notes"`
}

// CalendarView is the month window plus navigation state.
type CalendarView struct {
	Months     []models.CalendarMonth `json:"months"`
	MonthIndex int                    `json:"monthIndex"`
	CanPrev    bool                   `json:"canPrev"`
	CanNext    bool                   `json:"canNext"`
	Moved      bool                   `json:"moved"`
}

// SubmitResult reports a submission to the customer.
type SubmitResult struct {
	Success     bool                `json:"success"`
	Reservation *models.Reservation `json:"reservation,omitempty"`
	Attempts    int                 `json:"attempts"`
	Kind        submission.Kind     `json:"kind,omitempty"`
	Message     string              `json:"message,omitempty"`
	Fields      map[string]string   `json:"fields,omitempty"`
	CanRetry    bool                `json:"canRetry"`
	ContactLink string              `json:"contactLink,omitempty"`
}

func (s *SessionService) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *SessionService) CreateSession(ctx context.Context, actor models.Actor) (*SessionView, error) {
	if actor == "" {
		actor = models.ActorCustomer
	}
	if actor != models.ActorCustomer && actor != models.ActorAdmin {
		return nil, ErrInvalidActor
	}
	now := s.now()
	session := &models.BookingSession{
		ID:        uuid.NewString(),
		Actor:     actor,
		Form:      workflow.NewForm(),
		Phone:     workflow.NewPhoneState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info().Str("session_id", session.ID).Str("actor", string(actor)).Msg("Booking session created")
	return s.view(session), nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// DeleteSession resets the flow by dropping all stored state.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	s.debouncer.Cancel(id)
	s.loader.Forget(id)
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.locks.Delete(id)
	return nil
}

// SendOTP validates contact details and asks the salon to send a code.
func (s *SessionService) SendOTP(ctx context.Context, id, phone, name string) (*SessionView, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	state, errs, err := s.phone.BeginSend(session.Phone, phone, name, now)
	if errs != nil {
		return nil, errs
	}
	if err != nil {
		return nil, err
	}

	if s.cfg.OTPSendLimit > 0 {
		allowed, err := s.repo.CheckRateLimit(ctx, "otp:"+state.PhoneNumber, s.cfg.OTPSendLimit, s.cfg.OTPSendWindow)
		if err != nil {
			s.logger.Warn().Err(err).Msg("OTP rate limit check failed")
		} else if !allowed {
			metrics.IncOTP("throttled")
			return nil, ErrRateLimited
		}
	}

	if err := s.api.SendOTP(ctx, state.PhoneNumber, state.CustomerName); err != nil {
		metrics.IncOTP("send_failed")
		session.Phone = s.phone.SendFailed(state, submission.Classify(ctx, err).Kind.UserMessage())
		s.save(ctx, session)
		s.logger.Error().Err(err).Str("session_id", id).Str("phone", submission.MaskPhone(state.PhoneNumber)).Msg("OTP send failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	session.Phone = s.phone.SendSucceeded(state, now)
	session.Form = workflow.WithOtpSent(workflow.WithContact(session.Form, state.PhoneNumber, state.CustomerName), true)
	if err := s.repo.SaveSession(ctx, s.touch(session)); err != nil {
		return nil, err
	}

	metrics.IncOTP("sent")
	s.publish(events.EventOTPSent, session)
	return s.view(session), nil
}

// EnterOTP stores a partially typed code. A complete code schedules a
// verification after the auto-submit delay; any further input restarts it.
func (s *SessionService) EnterOTP(ctx context.Context, id, code string) (*SessionView, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Form = workflow.WithOtpCode(session.Form, code)
	if err := s.repo.SaveSession(ctx, s.touch(session)); err != nil {
		return nil, err
	}

	if s.phone.ShouldAutoSubmit(session.Phone, code) {
		s.debouncer.Trigger(id, func() {
			vctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := s.VerifyOTP(vctx, id, code); err != nil {
				s.logger.Info().Err(err).Str("session_id", id).Msg("Auto verification did not succeed")
			}
		})
	} else {
		s.debouncer.Cancel(id)
	}
	return s.view(session), nil
}

// VerifyOTP checks code with the salon. An expired code resets the phone step to
// Idle and returns workflow.ErrOTPExpired.
func (s *SessionService) VerifyOTP(ctx context.Context, id, code string) (*SessionView, error) {
	s.debouncer.Cancel(id)
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	state, errs, err := s.phone.BeginVerify(session.Phone, code, s.now())
	if errs != nil {
		return nil, errs
	}
	if errors.Is(err, workflow.ErrOTPExpired) {
		metrics.IncOTP("expired")
		session.Phone = state
		session.Form = workflow.WithOtpSent(workflow.WithOtpCode(session.Form, ""), false)
		s.save(ctx, session)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	result, err := s.api.VerifyOTP(ctx, state.PhoneNumber, code)
	if err != nil {
		metrics.IncOTP("verify_failed")
		var herr *salonapi.HTTPError
		if errors.As(err, &herr) && herr.StatusCode >= http.StatusBadRequest && herr.StatusCode < http.StatusInternalServerError && herr.StatusCode != http.StatusTooManyRequests {
			session.Phone = s.phone.VerifyFailed(state, workflow.ErrOTPMismatch.Error())
			session.Form = workflow.WithOtpCode(session.Form, "")
			s.save(ctx, session)
			return nil, workflow.ErrOTPMismatch
		}
		session.Phone = s.phone.VerifyFailed(state, submission.Classify(ctx, err).Kind.UserMessage())
		s.save(ctx, session)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	session.Phone = s.phone.VerifySucceeded(state, result.IsExistingCustomer)
	session.Form = workflow.MarkPhoneVerified(workflow.WithOtpCode(session.Form, code))
	if session.Form.CustomerName == "" && result.CustomerName != "" {
		session.Form.CustomerName = result.CustomerName
	}
	if err := s.repo.SaveSession(ctx, s.touch(session)); err != nil {
		return nil, err
	}

	metrics.IncOTP("verified")
	s.publish(events.EventPhoneVerified, session)
	s.logger.Info().Str("session_id", id).Bool("existing_customer", result.IsExistingCustomer).Msg("Phone verified")
	return s.view(session), nil
}

// UpdateSelection applies step-2 edits. A date must be selectable on the
// calendar, and a time must be selectable for the session's actor when the
// day's slots have been loaded.
func (s *SessionService) UpdateSelection(ctx context.Context, id string, upd SelectionUpdate) (*SessionView, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	form := session.Form
	if upd.Services != nil {
		form = workflow.WithServices(form, *upd.Services)
	}
	if upd.Date != nil && *upd.Date != form.SelectedDate {
		if *upd.Date != "" {
			if err := s.checkDay(ctx, *upd.Date, session.Actor); err != nil {
				return nil, err
			}
		}
		form = workflow.WithDate(form, *upd.Date)
	}
	if upd.Time != nil {
		if *upd.Time != "" {
			if err := s.checkTime(ctx, session, form.SelectedDate, *upd.Time); err != nil {
				return nil, err
			}
		}
		form = workflow.WithTime(form, *upd.Time)
	}
	if upd.Notes != nil {
		form = workflow.WithNotes(form, *upd.Notes)
	}

	session.Form = form
	if form.SelectedDate != "" {
		months := calendar.Generate(nil, calendar.Options{MonthsCount: s.cfg.MonthsCount, Today: s.now().In(s.loc)})
		if idx := calendar.MonthIndexOf(months, form.SelectedDate); idx >= 0 {
			session.MonthIndex = idx
		}
	}
	if err := s.repo.SaveSession(ctx, s.touch(session)); err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// checkDay rejects past days for everyone and blocked days for customers.
// Admins may still book into a blocked day.
func (s *SessionService) checkDay(ctx context.Context, date string, actor models.Actor) error {
	day, err := time.ParseInLocation(models.DateFormat, date, s.loc)
	if err != nil {
		return validation.Errors{"selectedDate": validation.CodeDateFormat}
	}
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return validation.Errors{"selectedDate": validation.CodeDatePast}
	}
	if actor == models.ActorAdmin {
		return nil
	}
	blocks, err := s.loader.Blocks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Blocked times unavailable for day check")
		return nil
	}
	if blocks.IsDateBlocked(date) {
		return ErrDayUnavailable
	}
	return nil
}

// checkTime accepts t only when the slot grid for date lets the session's actor
// pick it. The grid last shown to the session is reused, otherwise it is loaded.
func (s *SessionService) checkTime(ctx context.Context, session *models.BookingSession, date, t string) error {
	if date == "" {
		return validation.Errors{"selectedDate": validation.CodeRequired}
	}
	if _, err := slots.ParseTime(t); err != nil {
		return validation.Errors{"selectedTime": validation.CodeTimeFormat}
	}
	res, ok := s.loader.Last(session.ID, date)
	if !ok {
		loaded, err := s.loader.Load(ctx, session.ID, date, session.Actor)
		if err != nil {
			return err
		}
		res = *loaded
	}
	slot, found := slots.Find(res.Slots, t)
	if !found || !slots.CanSelect(slot, session.Actor) {
		return ErrSlotUnavailable
	}
	return nil
}

// Next advances one step when the current one is satisfied.
func (s *SessionService) Next(ctx context.Context, id string) (*SessionView, error) {
	return s.transition(ctx, id, func(form models.BookingFormData) (workflow.Transition, error) {
		return s.workflow.Next(form)
	})
}

func (s *SessionService) Back(ctx context.Context, id string) (*SessionView, error) {
	return s.transition(ctx, id, func(form models.BookingFormData) (workflow.Transition, error) {
		return workflow.Back(form), nil
	})
}

func (s *SessionService) JumpTo(ctx context.Context, id string, step models.Step) (*SessionView, error) {
	return s.transition(ctx, id, func(form models.BookingFormData) (workflow.Transition, error) {
		return s.workflow.JumpTo(form, step)
	})
}

func (s *SessionService) transition(ctx context.Context, id string, move func(models.BookingFormData) (workflow.Transition, error)) (*SessionView, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tr, err := move(session.Form)
	if err != nil {
		if len(tr.Errors) > 0 {
			return nil, fmt.Errorf("%w: %w", err, tr.Errors)
		}
		return nil, err
	}
	if tr.Moved {
		session.Form = tr.Form
		if err := s.repo.SaveSession(ctx, s.touch(session)); err != nil {
			return nil, err
		}
	}
	return s.view(session), nil
}

// Calendar renders the month window. A non-nil monthIndex navigates first;
// out-of-range targets leave the index unchanged.
func (s *SessionService) Calendar(ctx context.Context, id string, monthIndex *int) (*CalendarView, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	blocks, err := s.loader.Blocks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Blocked times unavailable, calendar rendered without blocks")
	}
	months := calendar.Generate(blocks.BlockedDays(), calendar.Options{
		MonthsCount: s.cfg.MonthsCount,
		Today:       s.now().In(s.loc),
	})
	months = calendar.ApplySelection(months, session.Form.SelectedDate)

	nav := calendar.NewNavigator(session.MonthIndex, len(months))
	moved := false
	if monthIndex != nil && *monthIndex != nav.Index() {
		moved = nav.GoTo(*monthIndex)
	}
	if nav.Index() != session.MonthIndex {
		session.MonthIndex = nav.Index()
		s.save(ctx, session)
	}

	return &CalendarView{
		Months:     months,
		MonthIndex: nav.Index(),
		CanPrev:    nav.CanPrev(),
		CanNext:    nav.CanNext(),
		Moved:      moved,
	}, nil
}

// Slots loads the classified slots for date, defaulting to the selected date.
// A newer call for the same session supersedes this one.
func (s *SessionService) Slots(ctx context.Context, id, date string) (*SlotResult, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = session.Form.SelectedDate
	}
	if date == "" {
		return nil, validation.Errors{"date": validation.CodeRequired}
	}
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return nil, validation.Errors{"date": validation.CodeDateFormat}
	}
	return s.loader.Load(ctx, id, date, session.Actor)
}

// Submit sends the session's booking from the confirmation step. Classified
// failures are returned as a SubmitResult, not an error. After success the
// session restarts at step 1, so a repeated Submit is gated without reaching
// the salon.
func (s *SessionService) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Form.CurrentStep != models.StepConfirmation {
		return nil, fmt.Errorf("%w: submit from %s", workflow.ErrStepGated, session.Form.CurrentStep)
	}

	if session.IdempotencyKey == "" {
		session.IdempotencyKey = uuid.NewString()
		s.save(ctx, session)
	}

	outcome, err := s.submitter.Submit(ctx, submission.Request{
		SessionID:      session.ID,
		IdempotencyKey: session.IdempotencyKey,
		Form:           session.Form,
	})
	if err == nil {
		session.Reservation = outcome.Reservation
		session.Form = workflow.Reset()
		session.Phone = workflow.NewPhoneState()
		session.IdempotencyKey = ""
		session.MonthIndex = 0
		s.loader.Forget(session.ID)
		if err := s.repo.SaveSession(ctx, s.touch(session)); err != nil {
			s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to persist session after successful booking")
		}
		return &SubmitResult{Success: true, Reservation: outcome.Reservation, Attempts: outcome.Attempts}, nil
	}

	var serr *submission.Error
	if !errors.As(err, &serr) {
		return nil, err
	}

	res := &SubmitResult{
		Kind:     serr.Kind,
		Message:  serr.Kind.UserMessage(),
		Attempts: serr.Attempts,
		CanRetry: true,
	}
	if serr.Fields != nil {
		res.Fields = serr.Fields.Messages()
	}

	switch serr.Kind {
	case submission.KindValidation:
	case submission.KindConflict:
		// The slot is gone; the customer must pick another time.
		session.Form = workflow.WithTime(session.Form, "")
		if session.Form.CurrentStep == models.StepConfirmation {
			session.Form.CurrentStep = models.StepSelection
		}
		session.IdempotencyKey = ""
		s.save(ctx, session)
	default:
		var services []models.Service
		if list, err := s.api.ListServices(ctx); err == nil {
			services = list
		}
		res.ContactLink = submission.ContactLink(s.cfg.Contact, session.Form, services)
	}
	return res, nil
}

// Services passes the salon's service catalogue through.
func (s *SessionService) Services(ctx context.Context) ([]models.Service, error) {
	list, err := s.api.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return list, nil
}

// Close stops pending auto verifications.
func (s *SessionService) Close() {
	s.debouncer.Stop()
}

func (s *SessionService) load(ctx context.Context, id string) (*models.BookingSession, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) save(ctx context.Context, session *models.BookingSession) {
	if err := s.repo.SaveSession(ctx, s.touch(session)); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Failed to save session")
	}
}

func (s *SessionService) touch(session *models.BookingSession) *models.BookingSession {
	session.UpdatedAt = s.now()
	return session
}

func (s *SessionService) view(session *models.BookingSession) *SessionView {
	now := s.now()
	ok, errs := s.workflow.CanAdvance(session.Form)
	v := &SessionView{
		ID:              session.ID,
		Actor:           session.Actor,
		Form:            session.Form,
		Phone:           session.Phone,
		Step:            session.Form.CurrentStep,
		StepName:        session.Form.CurrentStep.String(),
		CanAdvance:      ok,
		Reachable:       s.workflow.Reachable(session.Form),
		MonthIndex:      session.MonthIndex,
		CooldownSeconds: int(s.phone.CooldownRemaining(session.Phone, now).Round(time.Second) / time.Second),
		AutoVerifying:   s.debouncer.Pending(session.ID),
		Reservation:     session.Reservation,
	}
	if !ok && len(errs) > 0 {
		v.Errors = errs.Messages()
	}
	// An expired code is shown as Idle; VerifyOTP persists the reset.
	if s.phone.Expired(session.Phone, now) {
		v.Phone = s.phone.Refresh(session.Phone, now)
		v.Form = workflow.WithOtpSent(v.Form, false)
	} else if session.Phone.Status == models.VerificationOtpSent {
		exp := session.Phone.OtpSentAt.Add(s.phone.Config().OTPTTL)
		v.OtpExpiresAt = &exp
	}
	// The code itself is never echoed back.
	v.Form.OtpCode = ""
	v.Phone.OtpCode = ""
	return v
}

func (s *SessionService) publish(eventType string, session *models.BookingSession) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		SessionID:     session.ID,
		CustomerName:  session.Form.CustomerName,
		CustomerPhone: submission.MaskPhone(session.Form.PhoneNumber),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Event handler failed")
	}
}

// Package submission sends a validated booking form upstream with bounded,
// classification-driven retries.
package submission

import (
	"context"
	"time"

	"salonbook/internal/events"
	"salonbook/internal/metrics"
	"salonbook/internal/models"
	"salonbook/internal/salonapi"
	"salonbook/internal/validation"
	"salonbook/internal/worker"

	"github.com/rs/zerolog"
)

// Submitter posts a booking to the salon API.
type Submitter interface {
	SubmitBooking(ctx context.Context, req salonapi.BookingRequest, idempotencyKey string) (*models.Reservation, error)
}

// FailureRecorder keeps terminal failures for manual follow-up.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, f *models.FailedSubmission) (int64, error)
}

type Config struct {
	Retry          worker.RetryPolicy
	RequestTimeout time.Duration
	// RateLimitDelay is used when a rate-limited answer carries no Retry-After.
	RateLimitDelay time.Duration
	// UnknownRetries caps retries for unclassified failures.
	UnknownRetries int
}

func DefaultConfig() Config {
	return Config{
		Retry:          worker.SubmissionPolicy(),
		RequestTimeout: 10 * time.Second,
		RateLimitDelay: 60 * time.Second,
		UnknownRetries: 1,
	}
}

// Request is one submit intent. IdempotencyKey is reused for every attempt.
type Request struct {
	SessionID      string
	IdempotencyKey string
	Form           models.BookingFormData
}

type Outcome struct {
	Reservation *models.Reservation
	Attempts    int
}

type Controller struct {
	client    Submitter
	validator *validation.FormValidator
	cfg       Config
	recorder  FailureRecorder
	bus       *events.EventBus
	logger    *zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewController(client Submitter, v *validation.FormValidator, cfg Config, logger *zerolog.Logger) *Controller {
	def := DefaultConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.RateLimitDelay <= 0 {
		cfg.RateLimitDelay = def.RateLimitDelay
	}
	if cfg.UnknownRetries < 0 {
		cfg.UnknownRetries = 0
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "submission").Logger()
	return &Controller{
		client:    client,
		validator: v,
		cfg:       cfg,
		logger:    &l,
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// WithRecorder stores terminal failures.
func (c *Controller) WithRecorder(r FailureRecorder) *Controller {
	c.recorder = r
	return c
}

func (c *Controller) WithEvents(bus *events.EventBus) *Controller {
	c.bus = bus
	return c
}

// Submit validates the form and posts it. Validation failures never reach the
// network. Transient failures are retried per their kind; the returned error is
// always a *Error once the form passed validation.
func (c *Controller) Submit(ctx context.Context, req Request) (*Outcome, error) {
	if errs := c.validator.Full(req.Form); errs != nil {
		metrics.IncSubmission(string(KindValidation))
		return nil, &Error{Kind: KindValidation, Fields: errs, Cause: errs}
	}

	body := salonapi.BookingRequest{
		PhoneNumber:      req.Form.PhoneNumber,
		CustomerName:     req.Form.CustomerName,
		SelectedDate:     req.Form.SelectedDate,
		SelectedTime:     req.Form.SelectedTime,
		SelectedServices: append([]string(nil), req.Form.SelectedServices...),
		Notes:            req.Form.Notes,
	}

	var last *Error
	for attempt := 1; ; attempt++ {
		res, err := c.attempt(ctx, body, req.IdempotencyKey)
		if err == nil {
			metrics.IncSubmissionAttempt("success")
			metrics.IncSubmission("success")
			c.logger.Info().
				Str("session_id", req.SessionID).
				Str("reservation_id", res.ReservationID).
				Int("attempts", attempt).
				Msg("booking submitted")
			c.publish(events.EventBookingSubmitted, req, res, nil)
			return &Outcome{Reservation: res, Attempts: attempt}, nil
		}

		last = err
		last.Attempts = attempt
		metrics.IncSubmissionAttempt(string(last.Kind))

		c.logger.Warn().
			Err(last.Cause).
			Str("session_id", req.SessionID).
			Str("kind", string(last.Kind)).
			Int("status", last.StatusCode).
			Int("attempt", attempt).
			Bool("online", last.Kind != KindNetwork).
			Dict("form", formSnapshot(req.Form)).
			Msg("booking submission attempt failed")

		if ctx.Err() != nil || attempt >= c.maxAttempts(last.Kind) {
			break
		}
		if err := c.sleep(ctx, c.delay(last, attempt)); err != nil {
			break
		}
	}

	metrics.IncSubmission(string(last.Kind))
	c.logger.Error().
		Err(last.Cause).
		Str("session_id", req.SessionID).
		Str("idempotency_key", req.IdempotencyKey).
		Str("kind", string(last.Kind)).
		Int("attempts", last.Attempts).
		Dict("form", formSnapshot(req.Form)).
		Msg("booking submission failed")
	c.record(ctx, req, last)
	c.publish(events.EventBookingSubmissionFailed, req, nil, last)
	return nil, last
}

func (c *Controller) attempt(ctx context.Context, body salonapi.BookingRequest, key string) (*models.Reservation, *Error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	res, err := c.client.SubmitBooking(actx, body, key)
	if err != nil {
		return nil, Classify(actx, err)
	}
	return res, nil
}

// MaxAttempts reports how many tries a failure of kind k gets in total.
func (c *Controller) MaxAttempts(k Kind) int { return c.maxAttempts(k) }

func (c *Controller) maxAttempts(k Kind) int {
	full := c.cfg.Retry.Attempts()
	switch {
	case !k.Retryable():
		return 1
	case k == KindUnknown:
		return min(full, c.cfg.UnknownRetries+1)
	default:
		return full
	}
}

func (c *Controller) delay(e *Error, attempt int) time.Duration {
	if e.Kind == KindRateLimited {
		if e.RetryAfter > 0 {
			return e.RetryAfter
		}
		return c.cfg.RateLimitDelay
	}
	if e.RetryAfter > 0 {
		return e.RetryAfter
	}
	return c.cfg.Retry.NextDelay(attempt)
}

func (c *Controller) record(ctx context.Context, req Request, e *Error) {
	if c.recorder == nil || e.Kind == KindValidation || e.Kind == KindConflict {
		return
	}
	// The request context may already be gone; the ledger write must still happen.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	msg := ""
	if e.Cause != nil {
		msg = e.Cause.Error()
	}
	_, err := c.recorder.RecordFailure(rctx, &models.FailedSubmission{
		SessionID:      req.SessionID,
		IdempotencyKey: req.IdempotencyKey,
		CustomerName:   req.Form.CustomerName,
		CustomerPhone:  req.Form.PhoneNumber,
		Date:           req.Form.SelectedDate,
		Time:           req.Form.SelectedTime,
		ServiceIDs:     append([]string(nil), req.Form.SelectedServices...),
		ErrorKind:      string(e.Kind),
		ErrorMessage:   msg,
		Attempts:       e.Attempts,
		CreatedAt:      c.now(),
	})
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("record failed submission")
	}
}

func (c *Controller) publish(eventType string, req Request, res *models.Reservation, e *Error) {
	payload := events.BookingEventPayload{
		SessionID:     req.SessionID,
		CustomerName:  req.Form.CustomerName,
		CustomerPhone: MaskPhone(req.Form.PhoneNumber),
		Date:          req.Form.SelectedDate,
		Time:          req.Form.SelectedTime,
		ServiceIDs:    req.Form.SelectedServices,
	}
	if res != nil {
		payload.ReservationID = res.ReservationID
	}
	if e != nil {
		payload.ErrorKind = string(e.Kind)
		payload.Attempts = e.Attempts
	}
	if err := c.bus.PublishJSON(eventType, payload); err != nil {
		c.logger.Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}

func formSnapshot(f models.BookingFormData) *zerolog.Event {
	return zerolog.Dict().
		Str("phone", MaskPhone(f.PhoneNumber)).
		Str("name", f.CustomerName).
		Str("date", f.SelectedDate).
		Str("time", f.SelectedTime).
		Strs("services", f.SelectedServices).
		Int("step", int(f.CurrentStep))
}

// MaskPhone keeps the first three and last two digits.
func MaskPhone(phone string) string {
	if len(phone) <= 5 {
		return phone
	}
	masked := []byte(phone)
	for i := 3; i < len(masked)-2; i++ {
		masked[i] = '*'
	}
	return string(masked)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

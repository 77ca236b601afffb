package submission

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"salonbook/internal/salonapi"
	"salonbook/internal/validation"
)

// Kind classifies a submission failure. Retryability follows the kind,
// never the mere presence of an error.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNetwork     Kind = "network"
	KindTimeout     Kind = "timeout"
	KindConflict    Kind = "conflict"
	KindRateLimited Kind = "rate_limited"
	KindServer      Kind = "server"
	KindUnknown     Kind = "unknown"
)

// Retryable reports whether another attempt may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer, KindRateLimited, KindUnknown:
		return true
	default:
		return false
	}
}

// UserMessage is the text shown to the customer. Raw causes are never shown.
func (k Kind) UserMessage() string {
	switch k {
	case KindValidation:
		return "Please check the highlighted fields and try again."
	case KindNetwork:
		return "We could not reach the salon. Check your connection and try again."
	case KindTimeout:
		return "The salon took too long to answer. Please try again."
	case KindConflict:
		return "This time was just booked by someone else. Please pick another time."
	case KindRateLimited:
		return "Too many attempts. Please wait a minute and try again."
	case KindServer:
		return "The booking service is temporarily unavailable. Please try again shortly."
	default:
		return "Something went wrong while booking. Please try again or contact us directly."
	}
}

// Error is a classified submission failure.
type Error struct {
	Kind       Kind
	StatusCode int
	RetryAfter time.Duration
	Fields     validation.Errors
	Attempts   int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("submission %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("submission %s after %d attempt(s)", e.Kind, e.Attempts)
}

func (e *Error) Unwrap() error { return e.Cause }

// Classify maps a transport or API error onto a Kind. ctx is the attempt's
// context so an expired deadline is reported as a timeout.
func Classify(ctx context.Context, err error) *Error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return &Error{Kind: KindValidation, Fields: verrs, Cause: err}
	}

	var herr *salonapi.HTTPError
	if errors.As(err, &herr) {
		return classifyHTTP(herr)
	}
	if isTimeoutError(ctx, err) {
		return &Error{Kind: KindTimeout, Cause: err}
	}
	if isNetworkError(err) {
		return &Error{Kind: KindNetwork, Cause: err}
	}
	return &Error{Kind: KindUnknown, Cause: err}
}

func classifyHTTP(herr *salonapi.HTTPError) *Error {
	e := &Error{StatusCode: herr.StatusCode, RetryAfter: herr.RetryAfter, Cause: herr}
	switch code := strings.ToUpper(herr.Code); {
	case herr.StatusCode == http.StatusConflict, code == "SLOT_TAKEN", code == "CONFLICT":
		e.Kind = KindConflict
	case herr.StatusCode == http.StatusTooManyRequests, code == "RATE_LIMITED":
		e.Kind = KindRateLimited
	case herr.StatusCode == http.StatusRequestTimeout, herr.StatusCode == http.StatusGatewayTimeout:
		e.Kind = KindTimeout
	case herr.StatusCode >= 500:
		e.Kind = KindServer
	case herr.StatusCode >= 400, code == "VALIDATION", code == "VALIDATION_ERROR":
		e.Kind = KindValidation
	default:
		e.Kind = KindUnknown
	}
	return e
}

func isTimeoutError(ctx context.Context, err error) bool {
	if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}

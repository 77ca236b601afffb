package domain

import (
	"context"
	"errors"
	"time"

	"salonbook/internal/models"
	"salonbook/internal/salonapi"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrSessionNotFound = errors.New("booking session not found")

// SessionRepository persists booking sessions between requests.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.BookingSession, error)
	SaveSession(ctx context.Context, session *models.BookingSession) error
	DeleteSession(ctx context.Context, id string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SalonAPI is the upstream persistence API.
type SalonAPI interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	ListBlockedTimes(ctx context.Context) ([]models.BlockedTime, error)
	InvalidateBlockedTimes(ctx context.Context)
	AvailableTimes(ctx context.Context, date string, actor models.Actor) (*models.AvailableTimes, error)
	SubmitBooking(ctx context.Context, req salonapi.BookingRequest, idempotencyKey string) (*models.Reservation, error)
	AdminBookings(ctx context.Context, start, end string, view models.ViewMode) ([]models.Booking, error)
	SendOTP(ctx context.Context, phone, name string) error
	VerifyOTP(ctx context.Context, phone, code string) (*salonapi.VerifyResult, error)
}

// FailureLedger records submissions that could not be completed.
type FailureLedger interface {
	RecordFailure(ctx context.Context, f *models.FailedSubmission) (int64, error)
	ListFailures(ctx context.Context, limit int) ([]models.FailedSubmission, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

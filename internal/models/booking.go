package models

import "time"

type Booking struct {
	ID            string   `json:"id"`
	CustomerName  string   `json:"customerName"`
	CustomerPhone string   `json:"customerPhone"`
	Date          string   `json:"date"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime"`
	ServiceIDs    []string `json:"serviceIds"`
	Status        string   `json:"status"`
	Notes         string   `json:"notes"`
}

type Service struct {
	ID       string  `json:"id"`
	NameAr   string  `json:"nameAr"`
	NameEn   string  `json:"nameEn"`
	NameTr   string  `json:"nameTr"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
}

// DisplayName picks the first non-empty localized name.
func (s Service) DisplayName() string {
	for _, n := range []string{s.NameTr, s.NameEn, s.NameAr} {
		if n != "" {
			return n
		}
	}
	return s.ID
}

// Reservation is the upstream confirmation of an accepted booking.
type Reservation struct {
	ReservationID   string `json:"reservationId"`
	AppointmentDate string `json:"appointmentDate"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime,omitempty"`
}

// FailedSubmission is a terminal submission failure kept for manual follow-up.
type FailedSubmission struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"sessionId"`
	IdempotencyKey string    `json:"idempotencyKey"`
	CustomerName   string    `json:"customerName"`
	CustomerPhone  string    `json:"customerPhone"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	ServiceIDs     []string  `json:"serviceIds"`
	ErrorKind      string    `json:"errorKind"`
	ErrorMessage   string    `json:"errorMessage"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AlertTask represents a queued manager notification.
type AlertTask struct {
	ID          int64      `json:"id"`
	FailureID   int64      `json:"failure_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

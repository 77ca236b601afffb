package models

import "time"

// Step is a position in the customer booking flow.
type Step int

const (
	StepPhoneVerification Step = 1
	StepSelection         Step = 2
	StepConfirmation      Step = 3
)

func (s Step) String() string {
	switch s {
	case StepPhoneVerification:
		return "phone_verification"
	case StepSelection:
		return "selection"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the three flow steps.
func (s Step) Valid() bool {
	return s >= StepPhoneVerification && s <= StepConfirmation
}

// BookingFormData accumulates everything the customer has entered so far.
// It is treated as a value: transitions return a new copy.
type BookingFormData struct {
	PhoneNumber      string   `json:"phoneNumber"`
	CustomerName     string   `json:"customerName"`
	OtpCode          string   `json:"otpCode"`
	SelectedServices []string `json:"selectedServices"`
	SelectedDate     string   `json:"selectedDate"`
	SelectedTime     string   `json:"selectedTime"`
	Notes            string   `json:"notes,omitempty"`
	CurrentStep      Step     `json:"currentStep"`
	IsPhoneVerified  bool     `json:"isPhoneVerified"`
	IsOtpSent        bool     `json:"isOtpSent"`
	IsSubmitting     bool     `json:"isSubmitting"`
}

// VerificationStatus is the phone verification sub-state.
type VerificationStatus string

const (
	VerificationIdle     VerificationStatus = "idle"
	VerificationOtpSent  VerificationStatus = "otp_sent"
	VerificationVerified VerificationStatus = "verified"
)

type PhoneVerificationState struct {
	PhoneNumber        string             `json:"phoneNumber"`
	CustomerName       string             `json:"customerName"`
	OtpCode            string             `json:"otpCode"`
	Status             VerificationStatus `json:"status"`
	IsOtpSent          bool               `json:"isOtpSent"`
	IsPhoneVerified    bool               `json:"isPhoneVerified"`
	IsVerifying        bool               `json:"isVerifying"`
	IsSendingOtp       bool               `json:"isSendingOtp"`
	IsExistingCustomer bool               `json:"isExistingCustomer"`
	OtpSentAt          time.Time          `json:"otpSentAt,omitempty"`
	LastError          string             `json:"lastError,omitempty"`
}

// BookingSession is the persisted unit of a customer's booking flow.
type BookingSession struct {
	ID             string                 `json:"id"`
	Actor          Actor                  `json:"actor"`
	Form           BookingFormData        `json:"form"`
	Phone          PhoneVerificationState `json:"phone"`
	MonthIndex     int                    `json:"monthIndex"`
	IdempotencyKey string                 `json:"idempotencyKey,omitempty"`
	Reservation    *Reservation           `json:"reservation,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

package workflow

import (
	"time"

	"salonbook/internal/models"
	"salonbook/internal/validation"
)

// PhoneConfig bounds the OTP lifecycle.
type PhoneConfig struct {
	OTPLength       int
	OTPTTL          time.Duration
	ResendCooldown  time.Duration
	AutoSubmitDelay time.Duration
}

func DefaultPhoneConfig() PhoneConfig {
	return PhoneConfig{
		OTPLength:       models.DefaultOTPLength,
		OTPTTL:          5 * time.Minute,
		ResendCooldown:  60 * time.Second,
		AutoSubmitDelay: 500 * time.Millisecond,
	}
}

// PhoneFlow drives Idle → OtpSent → Verified. Each Begin* call has a matching
// *Succeeded / *Failed call that the caller invokes once the upstream returns.
// Failures return to the prior sub-state.
type PhoneFlow struct {
	cfg PhoneConfig
}

func NewPhoneFlow(cfg PhoneConfig) *PhoneFlow {
	def := DefaultPhoneConfig()
	if cfg.OTPLength <= 0 {
		cfg.OTPLength = def.OTPLength
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = def.OTPTTL
	}
	if cfg.ResendCooldown < 0 {
		cfg.ResendCooldown = def.ResendCooldown
	}
	if cfg.AutoSubmitDelay <= 0 {
		cfg.AutoSubmitDelay = def.AutoSubmitDelay
	}
	return &PhoneFlow{cfg: cfg}
}

func (f *PhoneFlow) Config() PhoneConfig { return f.cfg }

func NewPhoneState() models.PhoneVerificationState {
	return models.PhoneVerificationState{Status: models.VerificationIdle}
}

// Expired reports whether an issued OTP can no longer be verified.
func (f *PhoneFlow) Expired(s models.PhoneVerificationState, now time.Time) bool {
	return s.Status == models.VerificationOtpSent && !now.Before(s.OtpSentAt.Add(f.cfg.OTPTTL))
}

// Refresh reverts an expired OTP to Idle so a fresh send is required.
func (f *PhoneFlow) Refresh(s models.PhoneVerificationState, now time.Time) models.PhoneVerificationState {
	if f.Expired(s, now) {
		s.Status = models.VerificationIdle
		s.IsOtpSent = false
		s.OtpCode = ""
	}
	return s
}

// CooldownRemaining is how long until another OTP may be sent.
func (f *PhoneFlow) CooldownRemaining(s models.PhoneVerificationState, now time.Time) time.Duration {
	if s.OtpSentAt.IsZero() {
		return 0
	}
	left := s.OtpSentAt.Add(f.cfg.ResendCooldown).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// BeginSend validates phone and name and marks a send in flight.
func (f *PhoneFlow) BeginSend(s models.PhoneVerificationState, phone, name string, now time.Time) (models.PhoneVerificationState, validation.Errors, error) {
	if errs := validation.Contact(phone, name); errs != nil {
		return s, errs, nil
	}
	phone = validation.NormalizePhone(phone)
	name = validation.NormalizeName(name)

	switch {
	case s.IsSendingOtp:
		return s, nil, ErrBusy
	case s.Status == models.VerificationVerified && s.PhoneNumber == phone:
		return s, nil, ErrAlreadyVerified
	case s.Status == models.VerificationOtpSent && s.PhoneNumber == phone && f.CooldownRemaining(s, now) > 0:
		return s, nil, ErrResendCooldown
	}

	if s.PhoneNumber != phone {
		s = NewPhoneState()
	}
	s.PhoneNumber = phone
	s.CustomerName = name
	s.IsSendingOtp = true
	s.LastError = ""
	return s, nil, nil
}

func (f *PhoneFlow) SendSucceeded(s models.PhoneVerificationState, now time.Time) models.PhoneVerificationState {
	s.IsSendingOtp = false
	s.Status = models.VerificationOtpSent
	s.IsOtpSent = true
	s.IsPhoneVerified = false
	s.OtpCode = ""
	s.OtpSentAt = now
	s.LastError = ""
	return s
}

func (f *PhoneFlow) SendFailed(s models.PhoneVerificationState, msg string) models.PhoneVerificationState {
	s.IsSendingOtp = false
	s.LastError = msg
	return s
}

// BeginVerify checks the code against expiry and format and marks a verify in flight.
// An expired OTP resets the state to Idle and returns ErrOTPExpired.
func (f *PhoneFlow) BeginVerify(s models.PhoneVerificationState, code string, now time.Time) (models.PhoneVerificationState, validation.Errors, error) {
	switch {
	case s.Status == models.VerificationVerified:
		return s, nil, ErrAlreadyVerified
	case s.Status != models.VerificationOtpSent:
		return s, nil, ErrOTPNotSent
	case s.IsVerifying:
		return s, nil, ErrBusy
	}
	if f.Expired(s, now) {
		s = f.Refresh(s, now)
		s.LastError = ErrOTPExpired.Error()
		return s, nil, ErrOTPExpired
	}
	if errs := validation.OTP(code, f.cfg.OTPLength); errs != nil {
		return s, errs, nil
	}
	s.OtpCode = code
	s.IsVerifying = true
	s.LastError = ""
	return s, nil, nil
}

func (f *PhoneFlow) VerifySucceeded(s models.PhoneVerificationState, existingCustomer bool) models.PhoneVerificationState {
	s.IsVerifying = false
	s.Status = models.VerificationVerified
	s.IsPhoneVerified = true
	s.IsOtpSent = false
	s.IsExistingCustomer = existingCustomer
	s.LastError = ""
	return s
}

func (f *PhoneFlow) VerifyFailed(s models.PhoneVerificationState, msg string) models.PhoneVerificationState {
	s.IsVerifying = false
	s.OtpCode = ""
	s.LastError = msg
	return s
}

// ShouldAutoSubmit reports whether code is complete and verification may fire
// without an explicit submit.
func (f *PhoneFlow) ShouldAutoSubmit(s models.PhoneVerificationState, code string) bool {
	return s.Status == models.VerificationOtpSent && !s.IsVerifying && validation.OTP(code, f.cfg.OTPLength) == nil
}

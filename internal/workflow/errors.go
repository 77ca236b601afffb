package workflow

import "errors"

var (
	ErrStepGated       = errors.New("workflow: step requirements not met")
	ErrLastStep        = errors.New("workflow: already at confirmation")
	ErrInvalidStep     = errors.New("workflow: invalid step")
	ErrOTPNotSent      = errors.New("verification: otp not sent")
	ErrOTPExpired      = errors.New("verification: otp expired")
	ErrOTPMismatch     = errors.New("verification: otp rejected")
	ErrResendCooldown  = errors.New("verification: resend cooldown active")
	ErrAlreadyVerified = errors.New("verification: phone already verified")
	ErrBusy            = errors.New("verification: request already in progress")
)

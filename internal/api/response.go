package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"salonbook/internal/adminview"
	"salonbook/internal/domain"
	"salonbook/internal/service"
	"salonbook/internal/validation"
	"salonbook/internal/workflow"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

func writeErrorDetails(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	writeJSON(w, statusCode, Response{Error: &ErrorInfo{Code: code, Message: message, Details: details}})
}

// decodeJSON reads a bounded body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{domain.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND", "Booking session not found or expired"},
	{workflow.ErrStepGated, http.StatusUnprocessableEntity, "STEP_INCOMPLETE", "Complete the current step first"},
	{workflow.ErrInvalidStep, http.StatusBadRequest, "INVALID_STEP", "Unknown step"},
	{workflow.ErrLastStep, http.StatusConflict, "LAST_STEP", "Already at confirmation"},
	{workflow.ErrOTPNotSent, http.StatusConflict, "OTP_NOT_SENT", "Request a verification code first"},
	{workflow.ErrOTPExpired, http.StatusGone, "OTP_EXPIRED", "The verification code has expired, request a new one"},
	{workflow.ErrOTPMismatch, http.StatusBadRequest, "OTP_REJECTED", "The verification code is not correct"},
	{workflow.ErrResendCooldown, http.StatusTooManyRequests, "OTP_COOLDOWN", "Please wait before requesting another code"},
	{workflow.ErrAlreadyVerified, http.StatusConflict, "ALREADY_VERIFIED", "Phone number is already verified"},
	{workflow.ErrBusy, http.StatusConflict, "BUSY", "A verification request is already in progress"},
	{service.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later"},
	{service.ErrDayUnavailable, http.StatusConflict, "DAY_UNAVAILABLE", "The selected day is not available"},
	{service.ErrSlotUnavailable, http.StatusConflict, "SLOT_UNAVAILABLE", "The selected time is not available"},
	{service.ErrSuperseded, http.StatusConflict, "SUPERSEDED", "A newer request replaced this one"},
	{service.ErrInvalidActor, http.StatusBadRequest, "INVALID_ACTOR", "Unknown actor"},
	{service.ErrUpstream, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "The salon service is unavailable, try again later"},
	{adminview.ErrUnknownView, http.StatusBadRequest, "INVALID_VIEW", "View must be day, week or month"},
	{adminview.ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE", "Date must be YYYY-MM-DD"},
}

// writeServiceError maps err onto a status and envelope. Unknown errors are
// reported as internal without leaking the cause.
func writeServiceError(w http.ResponseWriter, err error) {
	status, info := classifyError(err)
	writeJSON(w, status, Response{Error: info})
}

func classifyError(err error) (int, *ErrorInfo) {
	var details map[string]string
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		details = verrs.Messages()
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, &ErrorInfo{Code: m.code, Message: m.message, Details: details}
		}
	}
	if details != nil {
		return http.StatusBadRequest, &ErrorInfo{Code: "VALIDATION_FAILED", Message: "Please correct the highlighted fields", Details: details}
	}
	return http.StatusInternalServerError, &ErrorInfo{Code: "INTERNAL", Message: "Internal server error"}
}

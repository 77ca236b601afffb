package api

import (
	"net/http"
	"strconv"
	"strings"

	"salonbook/internal/models"
	"salonbook/internal/service"

	"github.com/go-chi/chi/v5"
)

type createSessionRequest struct {
	Actor models.Actor `json:"actor"`
}

type sendOTPRequest struct {
	PhoneNumber  string `json:"phoneNumber"`
	CustomerName string `json:"customerName"`
}

type otpRequest struct {
	OtpCode string `json:"otpCode"`
}

type jumpRequest struct {
	Step models.Step `json:"step"`
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if body.Actor == models.ActorAdmin {
		client, ok := s.auth.Client(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "admin sessions require a valid api key")
			return
		}
		s.logger.Info().
			Str("request_id", RequestIDFrom(r.Context())).
			Str("client", client).
			Msg("Admin booking session opened")
	}
	view, err := s.sessions.CreateSession(r.Context(), body.Actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeCreated(w, view)
}

func (s *HTTPServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.respondView(w)(s.sessions.GetSession(r.Context(), sessionID(r)))
}

func (s *HTTPServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.DeleteSession(r.Context(), sessionID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var body sendOTPRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	s.respondView(w)(s.sessions.SendOTP(r.Context(), sessionID(r), body.PhoneNumber, body.CustomerName))
}

func (s *HTTPServer) handleEnterOTP(w http.ResponseWriter, r *http.Request) {
	var body otpRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	s.respondView(w)(s.sessions.EnterOTP(r.Context(), sessionID(r), body.OtpCode))
}

func (s *HTTPServer) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body otpRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	s.respondView(w)(s.sessions.VerifyOTP(r.Context(), sessionID(r), body.OtpCode))
}

func (s *HTTPServer) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var body service.SelectionUpdate
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	s.respondView(w)(s.sessions.UpdateSelection(r.Context(), sessionID(r), body))
}

func (s *HTTPServer) handleNext(w http.ResponseWriter, r *http.Request) {
	s.respondView(w)(s.sessions.Next(r.Context(), sessionID(r)))
}

func (s *HTTPServer) handleBack(w http.ResponseWriter, r *http.Request) {
	s.respondView(w)(s.sessions.Back(r.Context(), sessionID(r)))
}

func (s *HTTPServer) handleJump(w http.ResponseWriter, r *http.Request) {
	var body jumpRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	s.respondView(w)(s.sessions.JumpTo(r.Context(), sessionID(r), body.Step))
}

func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	var monthIndex *int
	if raw := strings.TrimSpace(r.URL.Query().Get("monthIndex")); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_MONTH_INDEX", "monthIndex must be an integer")
			return
		}
		monthIndex = &idx
	}
	view, err := s.sessions.Calendar(r.Context(), sessionID(r), monthIndex)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w, view)
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	res, err := s.sessions.Slots(r.Context(), sessionID(r), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w, res)
}

// handleSubmit answers 200 for both outcomes; a classified failure is data,
// not a transport error.
func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.sessions.Submit(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !res.Success {
		s.logger.Warn().
			Str("request_id", RequestIDFrom(r.Context())).
			Str("kind", string(res.Kind)).
			Int("attempts", res.Attempts).
			Msg("Booking submission failed")
	}
	writeOK(w, res)
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.sessions.Services(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w, map[string]any{"services": list})
}

func (s *HTTPServer) respondView(w http.ResponseWriter) func(*service.SessionView, error) {
	return func(view *service.SessionView, err error) {
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeOK(w, view)
	}
}

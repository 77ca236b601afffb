package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"salonbook/internal/adminview"
)

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := s.admin.Bookings(r.Context(), q.Get("view"), q.Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w, view)
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	buf, name, err := s.admin.Export(r.Context(), q.Get("view"), q.Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Info().
		Str("request_id", RequestIDFrom(r.Context())).
		Str("client", AdminClientFrom(r.Context())).
		Str("file", name).
		Msg("Bookings export downloaded")

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleAdminStream pushes a server-sent event with the range's bookings on
// every poller refresh until the client disconnects.
func (s *HTTPServer) handleAdminStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "streaming unsupported")
		return
	}

	q := r.URL.Query()
	rng, err := s.admin.Range(q.Get("view"), q.Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	updates := make(chan adminview.Snapshot, 1)
	poller := s.admin.Poller(rng)
	poller.OnUpdate(func(snap adminview.Snapshot) {
		// Keep only the newest snapshot when the client reads slowly.
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- snap:
		default:
		}
	})

	ctx := r.Context()
	go poller.Run(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			payload, err := json.Marshal(snap)
			if err != nil {
				s.logger.Error().Err(err).Msg("Encode bookings snapshot")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: bookings\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *HTTPServer) handleAdminSlots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	res, err := s.admin.Slots(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w, res)
}

func (s *HTTPServer) handleAdminFailures(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.admin.Failures(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w, map[string]any{"failures": list})
}

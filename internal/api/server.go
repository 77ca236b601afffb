package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"salonbook/internal/adminview"
	"salonbook/internal/config"
	"salonbook/internal/models"
	"salonbook/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Sessions is the booking flow surface the HTTP layer drives.
type Sessions interface {
	CreateSession(ctx context.Context, actor models.Actor) (*service.SessionView, error)
	GetSession(ctx context.Context, id string) (*service.SessionView, error)
	DeleteSession(ctx context.Context, id string) error
	SendOTP(ctx context.Context, id, phone, name string) (*service.SessionView, error)
	EnterOTP(ctx context.Context, id, code string) (*service.SessionView, error)
	VerifyOTP(ctx context.Context, id, code string) (*service.SessionView, error)
	UpdateSelection(ctx context.Context, id string, upd service.SelectionUpdate) (*service.SessionView, error)
	Next(ctx context.Context, id string) (*service.SessionView, error)
	Back(ctx context.Context, id string) (*service.SessionView, error)
	JumpTo(ctx context.Context, id string, step models.Step) (*service.SessionView, error)
	Calendar(ctx context.Context, id string, monthIndex *int) (*service.CalendarView, error)
	Slots(ctx context.Context, id, date string) (*service.SlotResult, error)
	Submit(ctx context.Context, id string) (*service.SubmitResult, error)
	Services(ctx context.Context) ([]models.Service, error)
}

// Admin is the dashboard surface behind the API key.
type Admin interface {
	Range(view, date string) (adminview.Range, error)
	Bookings(ctx context.Context, view, date string) (*service.BookingsView, error)
	Export(ctx context.Context, view, date string) (*bytes.Buffer, string, error)
	Slots(ctx context.Context, date string) (*service.SlotResult, error)
	Failures(ctx context.Context, limit int) ([]models.FailedSubmission, error)
	Poller(r adminview.Range) *adminview.Poller
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// HTTPServer exposes the booking sessions API and the admin dashboard API.
type HTTPServer struct {
	cfg      config.APIConfig
	sessions Sessions
	admin    Admin
	auth     *AdminAuth
	checks   map[string]HealthCheck
	logger   *zerolog.Logger
	server   *http.Server
	router   chi.Router
}

func NewHTTPServer(cfg config.APIConfig, sessions Sessions, admin Admin, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:      cfg,
		sessions: sessions,
		admin:    admin,
		auth:     NewAdminAuth(cfg.Auth),
		checks:   map[string]HealthCheck{},
		logger:   logger,
	}
	srv.router = srv.routes()
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// AddHealthCheck registers a named check reported by /healthz.
func (s *HTTPServer) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logging(s.logger))
	r.Use(Recover(s.logger))
	r.Use(CORS(s.cfg.CORS.AllowedOrigins))

	limiter := newRateLimiter(s.cfg.RateLimit, s.cfg.Auth.HeaderAPIKey)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Wrap)

		r.Get("/services", s.handleServices)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/otp/send", s.handleSendOTP)
				r.Put("/otp", s.handleEnterOTP)
				r.Post("/otp/verify", s.handleVerifyOTP)
				r.Put("/selection", s.handleUpdateSelection)
				r.Post("/next", s.handleNext)
				r.Post("/back", s.handleBack)
				r.Post("/jump", s.handleJump)
				r.Get("/calendar", s.handleCalendar)
				r.Get("/slots", s.handleSlots)
				r.Post("/submit", s.handleSubmit)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.auth.Wrap)
			r.Get("/bookings", s.handleAdminBookings)
			r.Get("/bookings/export", s.handleAdminExport)
			r.Get("/bookings/stream", s.handleAdminStream)
			r.Get("/slots", s.handleAdminSlots)
			r.Get("/failed-submissions", s.handleAdminFailures)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, Response{Success: healthy, Data: map[string]any{"checks": status}})
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"salonbook/internal/adminview"
	"salonbook/internal/domain"
	"salonbook/internal/export"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

// AdminService serves the dashboard: booking ranges, exports, admin slot view
// and the failure ledger.
type AdminService struct {
	api             domain.SalonAPI
	loader          *SlotLoader
	ledger          domain.FailureLedger
	refreshInterval time.Duration
	archiveDir      string
	loc             *time.Location
	now             func() time.Time
	logger          *zerolog.Logger
}

func NewAdminService(api domain.SalonAPI, loader *SlotLoader, ledger domain.FailureLedger, refreshInterval time.Duration, logger *zerolog.Logger) *AdminService {
	return &AdminService{
		api:             api,
		loader:          loader,
		ledger:          ledger,
		refreshInterval: refreshInterval,
		loc:             loader.Engine().Location(),
		now:             time.Now,
		logger:          logger,
	}
}

type BookingsView struct {
	View      models.ViewMode  `json:"view"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Bookings  []models.Booking `json:"bookings"`
}

// Range resolves raw view and date query values.
func (s *AdminService) Range(view, date string) (adminview.Range, error) {
	return adminview.ParseRange(view, date, s.loc, s.now())
}

// Fetch loads bookings for r. It is the poller's fetch function.
func (s *AdminService) Fetch(ctx context.Context, r adminview.Range) ([]models.Booking, error) {
	bookings, err := s.api.AdminBookings(ctx, r.StartDate(), r.EndDate(), r.View)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *AdminService) Bookings(ctx context.Context, view, date string) (*BookingsView, error) {
	r, err := s.Range(view, date)
	if err != nil {
		return nil, err
	}
	bookings, err := s.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	return &BookingsView{View: r.View, StartDate: r.StartDate(), EndDate: r.EndDate(), Bookings: bookings}, nil
}

// WithArchive keeps a copy of every export under dir.
func (s *AdminService) WithArchive(dir string) *AdminService {
	s.archiveDir = dir
	return s
}

// Export renders the range as an xlsx workbook and returns it with a file name.
func (s *AdminService) Export(ctx context.Context, view, date string) (*bytes.Buffer, string, error) {
	r, err := s.Range(view, date)
	if err != nil {
		return nil, "", err
	}
	bookings, err := s.Fetch(ctx, r)
	if err != nil {
		return nil, "", err
	}

	names := map[string]string{}
	if services, err := s.api.ListServices(ctx); err == nil {
		for _, svc := range services {
			names[svc.ID] = svc.DisplayName()
		}
	} else {
		s.logger.Warn().Err(err).Msg("Services unavailable for export, writing raw IDs")
	}

	buf, err := export.BookingsXLSX(bookings, r.Start, r.End, names)
	if err != nil {
		return nil, "", err
	}
	if s.archiveDir != "" {
		if path, err := export.SaveBookings(s.archiveDir, bookings, r.Start, r.End, names); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to archive bookings export")
		} else {
			s.logger.Debug().Str("path", path).Msg("Bookings export archived")
		}
	}
	s.logger.Info().Str("range", r.String()).Int("bookings", len(bookings)).Msg("Bookings exported")
	return buf, export.FileName(r.Start, r.End), nil
}

// Slots is the admin slot view: booked and blocked slots stay selectable.
func (s *AdminService) Slots(ctx context.Context, date string) (*SlotResult, error) {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return nil, fmt.Errorf("%w: %q", adminview.ErrInvalidDate, date)
	}
	return s.loader.Load(ctx, "", date, models.ActorAdmin)
}

func (s *AdminService) Failures(ctx context.Context, limit int) ([]models.FailedSubmission, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.ledger.ListFailures(ctx, limit)
}

// Poller builds an auto-refresh poller for r.
func (s *AdminService) Poller(r adminview.Range) *adminview.Poller {
	return adminview.NewPoller(s.refreshInterval, r, s.Fetch, s.logger)
}

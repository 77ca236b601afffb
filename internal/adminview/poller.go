package adminview

import (
	"context"
	"sync"
	"time"

	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

// FetchFunc loads bookings for a range.
type FetchFunc func(ctx context.Context, r Range) ([]models.Booking, error)

// Snapshot is the latest fetch result for a range.
type Snapshot struct {
	Range     Range            `json:"-"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	View      models.ViewMode  `json:"view"`
	Bookings  []models.Booking `json:"bookings"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// Poller refetches the current range on a fixed interval. Reset switches the
// range and fetches immediately; results for a replaced range are dropped.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	logger   *zerolog.Logger
	onUpdate func(Snapshot)

	mu      sync.Mutex
	current Range
	gen     uint64
	latest  *Snapshot
	resetCh chan struct{}
}

func NewPoller(interval time.Duration, initial Range, fetch FetchFunc, logger *zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		interval: interval,
		fetch:    fetch,
		logger:   logger,
		current:  initial,
		resetCh:  make(chan struct{}, 1),
	}
}

// OnUpdate registers a callback invoked with every fresh snapshot. Set it before Run.
func (p *Poller) OnUpdate(fn func(Snapshot)) {
	p.onUpdate = fn
}

func (p *Poller) Range() Range {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Latest returns the last accepted snapshot, if any.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return Snapshot{}, false
	}
	return *p.latest, true
}

// Reset changes the polled range. An in-flight fetch for the old range is discarded.
func (p *Poller) Reset(r Range) {
	p.mu.Lock()
	p.current = r
	p.gen++
	p.latest = nil
	p.mu.Unlock()

	select {
	case p.resetCh <- struct{}{}:
	default:
	}
}

// Refresh fetches the current range once. ok is false when the range changed
// while the fetch was running.
func (p *Poller) Refresh(ctx context.Context) (snap Snapshot, ok bool, err error) {
	p.mu.Lock()
	r, gen := p.current, p.gen
	p.mu.Unlock()

	bookings, err := p.fetch(ctx, r)
	if err != nil {
		return Snapshot{}, false, err
	}

	snap = Snapshot{
		Range:     r,
		StartDate: r.StartDate(),
		EndDate:   r.EndDate(),
		View:      r.View,
		Bookings:  bookings,
		FetchedAt: time.Now(),
	}

	p.mu.Lock()
	if gen != p.gen || ctx.Err() != nil {
		p.mu.Unlock()
		return Snapshot{}, false, nil
	}
	p.latest = &snap
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
	return snap, true, nil
}

// Run fetches immediately, then on every tick or Reset, until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refreshLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshLogged(ctx)
		case <-p.resetCh:
			ticker.Reset(p.interval)
			p.refreshLogged(ctx)
		}
	}
}

func (p *Poller) refreshLogged(ctx context.Context) {
	if _, _, err := p.Refresh(ctx); err != nil && ctx.Err() == nil && p.logger != nil {
		r := p.Range()
		p.logger.Warn().Err(err).Str("range", r.String()).Msg("Admin bookings refresh failed")
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"salonbook/internal/blocking"
	"salonbook/internal/metrics"
	"salonbook/internal/models"
	"salonbook/internal/slots"

	"github.com/rs/zerolog"
)

// AvailabilitySource is the part of the salon API the loader needs.
type AvailabilitySource interface {
	AvailableTimes(ctx context.Context, date string, actor models.Actor) (*models.AvailableTimes, error)
	ListBlockedTimes(ctx context.Context) ([]models.BlockedTime, error)
}

// SlotResult is a classified day.
type SlotResult struct {
	Date           string            `json:"date"`
	Slots          []models.TimeSlot `json:"slots"`
	FirstAvailable string            `json:"firstAvailable,omitempty"`
	HasAvailable   bool              `json:"hasAvailable"`
	DayBlocked     bool              `json:"dayBlocked"`
}

type slotFetch struct {
	seq    uint64
	date   string
	cancel context.CancelFunc
}

// SlotLoader fetches and classifies slots. A new Load for the same key cancels
// the previous one; a result that lost the race is never returned as current.
type SlotLoader struct {
	source   AvailabilitySource
	engine   *slots.Engine
	blockTTL time.Duration
	now      func() time.Time
	logger   *zerolog.Logger

	mu       sync.Mutex
	seq      uint64
	inflight map[string]*slotFetch
	memos    map[string]*slots.Memo
	last     map[string]SlotResult

	blockMu   sync.Mutex
	blocks    *blocking.Index
	blocksAt  time.Time
	blocksErr error
}

func NewSlotLoader(source AvailabilitySource, engine *slots.Engine, logger *zerolog.Logger) *SlotLoader {
	return &SlotLoader{
		source:   source,
		engine:   engine,
		blockTTL: time.Minute,
		now:      time.Now,
		logger:   logger,
		inflight: make(map[string]*slotFetch),
		memos:    make(map[string]*slots.Memo),
		last:     make(map[string]SlotResult),
	}
}

func (l *SlotLoader) Engine() *slots.Engine { return l.engine }

// Blocks returns the blocked-times index, refetched at most once per blockTTL.
// On fetch failure the previous index is kept.
func (l *SlotLoader) Blocks(ctx context.Context) (*blocking.Index, error) {
	l.blockMu.Lock()
	defer l.blockMu.Unlock()

	if l.blocks != nil && l.now().Sub(l.blocksAt) < l.blockTTL {
		return l.blocks, nil
	}
	records, err := l.source.ListBlockedTimes(ctx)
	if err != nil {
		if l.blocks != nil {
			l.logger.Warn().Err(err).Msg("Blocked times refresh failed, using previous list")
			return l.blocks, nil
		}
		return nil, err
	}
	l.blocks = blocking.NewIndex(records)
	l.blocksAt = l.now()
	return l.blocks, nil
}

// InvalidateBlocks forces the next Blocks call to refetch.
func (l *SlotLoader) InvalidateBlocks() {
	l.blockMu.Lock()
	l.blocks = nil
	l.blockMu.Unlock()
}

// Load classifies date for actor. key identifies the consumer whose fetches
// supersede each other; an empty key disables superseding. Customers get an
// empty grid for a blocked day; admins get every slot marked blocked.
func (l *SlotLoader) Load(ctx context.Context, key, date string, actor models.Actor) (*SlotResult, error) {
	fctx, seq, done := l.begin(ctx, key, date)
	defer done()

	blocks, err := l.Blocks(fctx)
	if err != nil {
		l.logger.Warn().Err(err).Str("date", date).Msg("Blocked times unavailable, classifying without them")
	}

	dayBlocked := blocks.IsDateBlocked(date)
	if dayBlocked && actor != models.ActorAdmin {
		res := &SlotResult{Date: date, Slots: []models.TimeSlot{}, DayBlocked: true}
		return l.finish(key, seq, res)
	}

	avail, err := l.source.AvailableTimes(fctx, date, actor)
	if err != nil {
		if l.superseded(key, seq) || (errors.Is(fctx.Err(), context.Canceled) && ctx.Err() == nil) {
			metrics.IncSlotFetch("stale")
			return nil, ErrSuperseded
		}
		metrics.IncSlotFetch("error")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	computed, err := l.memo(key).Compute(slots.Input{
		Date:    date,
		Booked:  avail.BookedSlots,
		Blocked: avail.BlockedSlots,
		Blocks:  blocks,
	}, l.now())
	if err != nil {
		metrics.IncSlotFetch("error")
		return nil, err
	}

	res := &SlotResult{Date: date, Slots: computed, DayBlocked: dayBlocked}
	res.FirstAvailable, res.HasAvailable = slots.FirstAvailable(computed)
	return l.finish(key, seq, res)
}

// Last returns the most recent accepted result for key and date.
func (l *SlotLoader) Last(key, date string) (SlotResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	res, ok := l.last[key]
	if !ok || res.Date != date {
		return SlotResult{}, false
	}
	return res, true
}

// Forget cancels any fetch for key and drops its cached state.
func (l *SlotLoader) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.inflight[key]; ok {
		f.cancel()
		delete(l.inflight, key)
	}
	delete(l.memos, key)
	delete(l.last, key)
}

func (l *SlotLoader) begin(ctx context.Context, key, date string) (context.Context, uint64, func()) {
	fctx, cancel := context.WithCancel(ctx)
	if key == "" {
		return fctx, 0, cancel
	}

	l.mu.Lock()
	l.seq++
	seq := l.seq
	if prev, ok := l.inflight[key]; ok {
		prev.cancel()
	}
	l.inflight[key] = &slotFetch{seq: seq, date: date, cancel: cancel}
	l.mu.Unlock()

	return fctx, seq, func() {
		l.mu.Lock()
		if f, ok := l.inflight[key]; ok && f.seq == seq {
			delete(l.inflight, key)
		}
		l.mu.Unlock()
		cancel()
	}
}

func (l *SlotLoader) superseded(key string, seq uint64) bool {
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.inflight[key]
	return !ok || f.seq != seq
}

func (l *SlotLoader) finish(key string, seq uint64, res *SlotResult) (*SlotResult, error) {
	if key == "" {
		metrics.IncSlotFetch("ok")
		return res, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.inflight[key]; !ok || f.seq != seq {
		metrics.IncSlotFetch("stale")
		return nil, ErrSuperseded
	}
	l.last[key] = *res
	metrics.IncSlotFetch("ok")
	return res, nil
}

func (l *SlotLoader) memo(key string) *slots.Memo {
	if key == "" {
		return slots.NewMemo(l.engine)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.memos[key]
	if !ok {
		m = slots.NewMemo(l.engine)
		l.memos[key] = m
	}
	return m
}

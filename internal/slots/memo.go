package slots

import (
	"strings"
	"sync"
	"time"

	"salonbook/internal/models"
)

// Memo caches the last Compute result and invalidates whenever any input
// changes, including the current minute. It is an optimization only.
type Memo struct {
	engine *Engine

	mu     sync.Mutex
	key    string
	blocks any
	result []models.TimeSlot
}

func NewMemo(engine *Engine) *Memo {
	return &Memo{engine: engine}
}

func (m *Memo) Compute(in Input, now time.Time) ([]models.TimeSlot, error) {
	key := memoKey(in, now.In(m.engine.loc))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result != nil && m.key == key && m.blocks == any(in.Blocks) {
		return append([]models.TimeSlot(nil), m.result...), nil
	}

	result, err := m.engine.Compute(in, now)
	if err != nil {
		return nil, err
	}
	m.key, m.blocks, m.result = key, any(in.Blocks), result
	return append([]models.TimeSlot(nil), result...), nil
}

func memoKey(in Input, now time.Time) string {
	var b strings.Builder
	b.WriteString(in.Date)
	b.WriteByte('|')
	b.WriteString(strings.Join(in.Booked, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(in.Blocked, ","))
	b.WriteByte('|')
	b.WriteString(now.Format("2006-01-02T15:04"))
	return b.String()
}

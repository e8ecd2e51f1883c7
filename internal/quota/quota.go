package quota

import (
	"context"
	"sync"
	"time"
)

// Tracker remembers which (group, market) pairs have hit a vendor upload
// limit today.
type Tracker interface {
	Reached(ctx context.Context, group, market string) (bool, error)
	Mark(ctx context.Context, group, market string) error
}

// Memory is a Tracker scoped to one process.
type Memory struct {
	mu     sync.Mutex
	now    func() time.Time
	marked map[string]bool
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, marked: map[string]bool{}}
}

func (m *Memory) Reached(ctx context.Context, group, market string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marked[Key(m.now(), group, market)], nil
}

func (m *Memory) Mark(ctx context.Context, group, market string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked[Key(m.now(), group, market)] = true
	return nil
}

// Key is dated so limits reset with the vendor's daily counter.
func Key(now time.Time, group, market string) string {
	return "quota:" + now.Format("2006-01-02") + ":" + group + ":" + market
}

// untilMidnight is how long a mark made at now stays valid.
func untilMidnight(now time.Time) time.Duration {
	y, mo, d := now.Date()
	next := time.Date(y, mo, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}

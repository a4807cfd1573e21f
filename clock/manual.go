package clock

import (
	"sync"
	"time"
)

// Manual is a deterministic Scheduler whose time only moves through Advance.
//
// Callbacks run synchronously on the goroutine calling Advance, in due-time
// order with ties broken by registration order. No internal lock is held
// while a callback runs, so callbacks may freely schedule or stop timers.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers map[uint64]*manualTimer
}

type manualTimer struct {
	m      *Manual
	id     uint64
	due    time.Time
	period time.Duration
	fn     func()
}

// NewManual creates a Manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		timers: make(map[uint64]*manualTimer),
	}
}

// Now returns the scheduler's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers f to run once d after the current time.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	return m.add(d, 0, f)
}

// Every registers f to run each time d elapses. A non-positive d is
// treated as one nanosecond so Advance always terminates.
func (m *Manual) Every(d time.Duration, f func()) Timer {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, f)
}

func (m *Manual) add(d, period time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{
		m:      m,
		id:     m.seq,
		due:    m.now.Add(d),
		period: period,
		fn:     f,
	}
	m.timers[t.id] = t
	return t
}

// Advance moves time forward by d, firing every callback that falls due
// on the way. Recurring timers fire once per elapsed period.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.period > 0 {
			next.due = next.due.Add(next.period)
		} else {
			delete(m.timers, next.id)
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) nextDueLocked(limit time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.due.After(limit) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.id < best.id) {
			best = t
		}
	}
	return best
}

// Pending returns the number of live timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.timers[t.id]; !ok {
		return false
	}
	delete(t.m.timers, t.id)
	return true
}

// Package clock provides the scheduling primitive used by the call core.
//
// Everything in meetcall that waits (ringtone clip completion, the
// one-second duration tick) is expressed as a callback registered on a
// Scheduler rather than a blocking sleep. Production code uses Real;
// tests and simulations use Manual, which only moves when told to.
//
//	sched := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
//	t := sched.Every(time.Second, func() { ticks++ })
//	sched.Advance(65 * time.Second) // ticks == 65
//	t.Stop()
package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports true only for the call that
	// actually stopped a live timer; stopping twice, or stopping a one-shot
	// timer that already fired, returns false.
	Stop() bool
}

// Scheduler abstracts wall-clock time and deferred execution.
type Scheduler interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs f once after d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer

	// Every runs f each time d elapses until the returned Timer is stopped.
	Every(d time.Duration, f func()) Timer
}

// Real implements Scheduler on top of the system clock.
type Real struct{}

// NewReal returns the system-clock scheduler.
func NewReal() Real {
	return Real{}
}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on its own goroutine after d.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return &realTimer{t: time.AfterFunc(d, f)}
}

// Every starts a goroutine that invokes f on each tick of a time.Ticker.
func (Real) Every(d time.Duration, f func()) Timer {
	rt := &realTicker{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go rt.run(f)
	return rt
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) Stop() bool {
	return r.t.Stop()
}

type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (r *realTicker) run(f func()) {
	for {
		select {
		case <-r.ticker.C:
			f()
		case <-r.done:
			return
		}
	}
}

func (r *realTicker) Stop() bool {
	stopped := false
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.done)
		stopped = true
	})
	return stopped
}

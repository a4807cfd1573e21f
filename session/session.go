package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/meetcall/clock"
	"github.com/sirupsen/logrus"
)

// TickInterval is the period of the connected-duration counter.
const TickInterval = time.Second

// Transition describes one applied phase change.
type Transition struct {
	From   Phase
	To     Phase
	Event  Event
	Reason EndReason
}

// Session is the mutable state of one call attempt.
//
// The elapsed counter advances by one on every TickInterval spent in
// PhaseConnected and never otherwise. Mute and video flags can only change
// while media is being set up or flowing. All methods are safe for
// concurrent use; the duration tick arrives on the scheduler's goroutine.
type Session struct {
	data  CallData
	sched clock.Scheduler

	mu           sync.RWMutex
	phase        Phase
	elapsed      int
	muted        bool
	videoEnabled bool
	endReason    EndReason
	ticker       clock.Timer
	createdAt    time.Time
	connectedAt  time.Time
	endedAt      time.Time
}

// New creates a session for data in its initial ringing phase: incoming
// offers start in PhaseRingingIncoming, outgoing ones in
// PhaseRingingOutgoing. Video starts enabled for video calls.
func New(data CallData, sched clock.Scheduler) (*Session, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}

	phase := PhaseRingingIncoming
	if data.Direction == DirectionOutgoing {
		phase = PhaseRingingOutgoing
	}

	s := &Session{
		data:         data,
		sched:        sched,
		phase:        phase,
		videoEnabled: data.IsVideo(),
		createdAt:    sched.Now(),
	}

	logrus.WithFields(logrus.Fields{
		"function":  "session.New",
		"call_id":   data.ID,
		"call_type": data.Type,
		"direction": data.Direction,
		"phase":     phase.String(),
	}).Debug("Call session created")

	return s, nil
}

// Fire applies event e. It reports false, changing nothing, when e is not
// valid from the current phase; PhaseEnded accepts no events.
func (s *Session) Fire(e Event) (Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, reason, ok := Next(s.phase, e)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "Session.Fire",
			"call_id":  s.data.ID,
			"phase":    s.phase.String(),
			"event":    e.String(),
		}).Debug("Ignoring event not valid in current phase")
		return Transition{From: s.phase, To: s.phase, Event: e}, false
	}

	tr := Transition{From: s.phase, To: to, Event: e, Reason: reason}
	if s.phase == PhaseConnected {
		s.stopTickerLocked()
	}
	s.phase = to

	switch to {
	case PhaseConnected:
		s.connectedAt = s.sched.Now()
		s.ticker = s.sched.Every(TickInterval, s.tick)
	case PhaseEnded:
		s.endReason = reason
		s.endedAt = s.sched.Now()
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Session.Fire",
		"call_id":    s.data.ID,
		"from":       tr.From.String(),
		"to":         tr.To.String(),
		"event":      e.String(),
		"end_reason": reason,
	}).Debug("Call phase changed")

	return tr, true
}

// tick advances the connected duration. Late ticks delivered after the
// session left PhaseConnected are dropped.
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseConnected || s.ticker == nil {
		return
	}
	s.elapsed++
}

// stopTickerLocked cancels the duration timer; a second call is a no-op.
func (s *Session) stopTickerLocked() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
}

// ToggleMute flips the mute flag while media is active and returns the
// resulting value and whether it changed.
func (s *Session) ToggleMute() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.phase.HasMedia() {
		return s.muted, false
	}
	s.muted = !s.muted
	return s.muted, true
}

// ToggleVideo flips the video flag while media is active and returns the
// resulting value and whether it changed.
func (s *Session) ToggleVideo() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.phase.HasMedia() {
		return s.videoEnabled, false
	}
	s.videoEnabled = !s.videoEnabled
	return s.videoEnabled, true
}

// Data returns the call description.
func (s *Session) Data() CallData {
	return s.data
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Elapsed returns whole seconds spent connected.
func (s *Session) Elapsed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

// Muted returns the mute flag.
func (s *Session) Muted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.muted
}

// VideoEnabled returns the video flag.
func (s *Session) VideoEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.videoEnabled
}

// TimerRunning reports whether the duration timer is armed.
func (s *Session) TimerRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticker != nil
}

// Snapshot copies the presentation-relevant state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Call:           s.data,
		Phase:          s.phase,
		ElapsedSeconds: s.elapsed,
		Muted:          s.muted,
		VideoEnabled:   s.videoEnabled,
		EndReason:      s.endReason,
		CreatedAt:      s.createdAt,
		ConnectedAt:    s.connectedAt,
		EndedAt:        s.endedAt,
	}
}

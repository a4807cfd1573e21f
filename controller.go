package meetcall

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/meetcall/clock"
	"github.com/opd-ai/meetcall/session"
	"github.com/sirupsen/logrus"
)

// RingtonePlayer is the alert sound driver owned by a Controller.
// *ringtone.Player satisfies it.
type RingtonePlayer interface {
	// Play restarts the ringtone; onComplete runs once when its bounded
	// loops are exhausted. Errors are informational.
	Play(onComplete func()) error
	// Stop halts playback without running onComplete.
	Stop()
	IsPlaying() bool
}

// Observer receives lifecycle notifications. Methods run after the
// controller has released its lock, possibly on a scheduler goroutine.
// Notifications are delivered one at a time in the order the changes were
// applied; one triggered from inside a callback is queued until that
// callback returns.
type Observer interface {
	SessionStarted(snap session.Snapshot)
	PhaseChanged(tr session.Transition, snap session.Snapshot)
	SessionEnded(snap session.Snapshot)
	RingtoneUnavailable(callID string, err error)
}

// Controller runs at most one call session at a time and keeps the
// ringtone in step with it.
//
// It reacts to signaling events (HandleIncoming, OnRemoteAccepted, ...),
// media transport events (OnMediaConnected, OnMediaFailed,
// OnRemoteDisconnect) and local user commands (Accept, Reject, Cancel,
// HangUp, toggles). It never talks to the network itself: callers relay
// accept/reject decisions to their signaling layer separately.
type Controller struct {
	player RingtonePlayer
	sched  clock.Scheduler

	mu                sync.Mutex
	current           *session.Session
	silentRingTimeout time.Duration
	silentTimer       clock.Timer
	observer          Observer
	stateCallback     func(session.Snapshot)

	// queue holds notifications in apply order; draining marks the
	// goroutine currently delivering them.
	queue    []notification
	draining bool
}

type notificationKind int

const (
	notifyStarted notificationKind = iota
	notifyTransition
	notifyState
	notifyRingtoneUnavailable
)

type notification struct {
	kind notificationKind
	tr   session.Transition
	snap session.Snapshot
	err  error
}

// NewController creates a controller owning player. The player must not be
// shared with any other component.
func NewController(player RingtonePlayer, sched clock.Scheduler) (*Controller, error) {
	if player == nil {
		return nil, errors.New("ringtone player cannot be nil")
	}
	if sched == nil {
		return nil, errors.New("scheduler cannot be nil")
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewController",
	}).Info("Call session controller created")

	return &Controller{
		player:            player,
		sched:             sched,
		silentRingTimeout: DefaultSilentRingTimeout,
	}, nil
}

// SetSilentRingTimeout bounds how long an incoming call rings when its
// ringtone could not be played. Non-positive values restore
// DefaultSilentRingTimeout.
func (c *Controller) SetSilentRingTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultSilentRingTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.silentRingTimeout = d
}

// SetObserver registers the lifecycle observer; nil removes it.
func (c *Controller) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// SetStateCallback registers a function receiving a snapshot after every
// applied change, for presentation layers.
func (c *Controller) SetStateCallback(cb func(session.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateCallback = cb
}

// activeLocked returns the current session unless it has ended.
func (c *Controller) activeLocked() *session.Session {
	if c.current == nil || c.current.Phase() == session.PhaseEnded {
		return nil
	}
	return c.current
}

// HandleIncoming starts ringing for a signaled offer. It fails with
// ErrSessionBusy while another session is active. If the ringtone plays
// out unanswered the session ends as missed. When the ringtone cannot be
// played the call rings silently for the silent ring timeout instead.
func (c *Controller) HandleIncoming(data session.CallData) error {
	data.Direction = session.DirectionIncoming

	c.mu.Lock()
	if active := c.activeLocked(); active != nil {
		c.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function":     "HandleIncoming",
			"call_id":      data.ID,
			"active_call":  active.Data().ID,
			"active_phase": active.Phase().String(),
		}).Warn("Rejecting incoming call, session busy")
		return fmt.Errorf("%w: call %s", ErrSessionBusy, active.Data().ID)
	}

	s, err := session.New(data, c.sched)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.current = s
	c.stopSilentTimerLocked()
	ringErr := c.player.Play(func() { c.handleRingOut(s) })
	if ringErr != nil {
		c.silentTimer = c.sched.AfterFunc(c.silentRingTimeout, func() { c.handleRingOut(s) })
	}
	c.enqueueLocked(notification{kind: notifyStarted, snap: s.Snapshot()})
	if ringErr != nil {
		c.enqueueLocked(notification{kind: notifyRingtoneUnavailable, snap: s.Snapshot(), err: ringErr})
	}
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "HandleIncoming",
		"call_id":     data.ID,
		"call_type":   data.Type,
		"remote_name": data.RemoteName,
		"silent":      ringErr != nil,
	}).Info("Incoming call ringing")

	c.flush()
	return nil
}

// PlaceCall starts an outgoing call in the dialing phase. No ringtone plays
// locally. An empty ID is replaced with a generated one; the effective call
// data is returned so the caller can signal it.
func (c *Controller) PlaceCall(data session.CallData) (session.CallData, error) {
	data.Direction = session.DirectionOutgoing
	if data.ID == "" {
		data.ID = session.NewCallID()
	}

	c.mu.Lock()
	if active := c.activeLocked(); active != nil {
		c.mu.Unlock()
		return data, fmt.Errorf("%w: call %s", ErrSessionBusy, active.Data().ID)
	}
	s, err := session.New(data, c.sched)
	if err != nil {
		c.mu.Unlock()
		return data, err
	}
	c.current = s
	c.stopSilentTimerLocked()
	c.enqueueLocked(notification{kind: notifyStarted, snap: s.Snapshot()})
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "PlaceCall",
		"call_id":     data.ID,
		"call_type":   data.Type,
		"remote_name": data.RemoteName,
	}).Info("Outgoing call dialing")

	c.flush()
	return data, nil
}

// handleRingOut ends s as missed once the ringtone exhausted its loops or
// the silent ring timeout elapsed, provided s is still the current session
// and still ringing.
func (c *Controller) handleRingOut(s *session.Session) {
	c.mu.Lock()
	if c.current != s {
		c.mu.Unlock()
		return
	}
	tr, ok := s.Fire(session.EventRingTimeout)
	if ok {
		c.stopSilentTimerLocked()
		c.enqueueLocked(notification{kind: notifyTransition, tr: tr, snap: s.Snapshot()})
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	logrus.WithFields(logrus.Fields{
		"function": "handleRingOut",
		"call_id":  s.Data().ID,
	}).Info("Incoming call rang out unanswered")
	c.flush()
}

func (c *Controller) stopSilentTimerLocked() {
	if c.silentTimer != nil {
		c.silentTimer.Stop()
		c.silentTimer = nil
	}
}

// dispatch fires e on the active session. Invalid transitions are silent
// no-ops; the ringtone stops whenever the session leaves incoming ringing.
func (c *Controller) dispatch(op string, e session.Event) error {
	c.mu.Lock()
	s := c.activeLocked()
	if s == nil {
		c.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": op,
			"event":    e.String(),
		}).Debug("No active session for command")
		return ErrNoActiveSession
	}

	tr, ok := s.Fire(e)
	if ok {
		if tr.From == session.PhaseRingingIncoming {
			c.player.Stop()
			c.stopSilentTimerLocked()
		}
		c.enqueueLocked(notification{kind: notifyTransition, tr: tr, snap: s.Snapshot()})
	}
	c.mu.Unlock()

	c.flush()
	return nil
}

// Accept answers the ringing incoming call.
func (c *Controller) Accept() error { return c.dispatch("Accept", session.EventAccept) }

// Reject declines the ringing incoming call.
func (c *Controller) Reject() error { return c.dispatch("Reject", session.EventReject) }

// Cancel abandons an outgoing call before the remote side answers.
func (c *Controller) Cancel() error { return c.dispatch("Cancel", session.EventCancel) }

// HangUp ends the call locally.
func (c *Controller) HangUp() error { return c.dispatch("HangUp", session.EventHangUp) }

// OnRemoteAccepted reports the remote party answered an outgoing call.
func (c *Controller) OnRemoteAccepted() error {
	return c.dispatch("OnRemoteAccepted", session.EventRemoteAccept)
}

// OnRemoteRejected reports the remote party declined an outgoing call.
func (c *Controller) OnRemoteRejected() error {
	return c.dispatch("OnRemoteRejected", session.EventRemoteReject)
}

// OnRemoteHangUp reports the remote party ended a connected call.
func (c *Controller) OnRemoteHangUp() error {
	return c.dispatch("OnRemoteHangUp", session.EventRemoteHangUp)
}

// OnMediaConnected reports media is flowing; the duration counter starts.
func (c *Controller) OnMediaConnected() error {
	return c.dispatch("OnMediaConnected", session.EventMediaConnected)
}

// OnMediaFailed reports media setup or transport failure.
func (c *Controller) OnMediaFailed() error {
	return c.dispatch("OnMediaFailed", session.EventMediaFailed)
}

// OnRemoteDisconnect reports the remote side vanished in any phase.
func (c *Controller) OnRemoteDisconnect() error {
	return c.dispatch("OnRemoteDisconnect", session.EventRemoteDisconnect)
}

// OnTransportError reports an unrecoverable transport error in any phase.
func (c *Controller) OnTransportError() error {
	return c.dispatch("OnTransportError", session.EventTransportError)
}

// ToggleMute flips the microphone mute flag and returns the new value. The
// flag only changes while connecting or connected.
func (c *Controller) ToggleMute() (bool, error) {
	return c.toggle("ToggleMute", (*session.Session).ToggleMute)
}

// ToggleVideo flips the camera flag and returns the new value. The flag
// only changes while connecting or connected.
func (c *Controller) ToggleVideo() (bool, error) {
	return c.toggle("ToggleVideo", (*session.Session).ToggleVideo)
}

func (c *Controller) toggle(op string, flip func(*session.Session) (bool, bool)) (bool, error) {
	c.mu.Lock()
	s := c.activeLocked()
	if s == nil {
		c.mu.Unlock()
		return false, ErrNoActiveSession
	}
	value, changed := flip(s)
	if changed {
		c.enqueueLocked(notification{kind: notifyState, snap: s.Snapshot()})
	}
	c.mu.Unlock()

	if changed {
		logrus.WithFields(logrus.Fields{
			"function": op,
			"call_id":  s.Data().ID,
			"value":    value,
		}).Debug("Media flag toggled")
		c.flush()
	}
	return value, nil
}

// State returns a snapshot of the current session, or of the most recently
// ended one. It fails with ErrNoActiveSession before the first call.
func (c *Controller) State() (session.Snapshot, error) {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return session.Snapshot{}, ErrNoActiveSession
	}
	return s.Snapshot(), nil
}

// HasActiveSession reports whether a non-terminal session exists.
func (c *Controller) HasActiveSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked() != nil
}

// IsRinging reports whether the ringtone is currently playing.
func (c *Controller) IsRinging() bool {
	return c.player.IsPlaying()
}

func (c *Controller) enqueueLocked(n notification) {
	c.queue = append(c.queue, n)
}

// flush delivers queued notifications unless another call is already
// delivering them, in which case that call picks up the new entries.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.queue) > 0 {
		n := c.queue[0]
		c.queue = c.queue[1:]
		obs, cb := c.observer, c.stateCallback
		c.mu.Unlock()

		c.deliver(n, obs, cb)

		c.mu.Lock()
	}
	c.queue = nil
	c.draining = false
	c.mu.Unlock()
}

func (c *Controller) deliver(n notification, obs Observer, cb func(session.Snapshot)) {
	switch n.kind {
	case notifyStarted:
		if obs != nil {
			obs.SessionStarted(n.snap)
		}
	case notifyTransition:
		if n.tr.To == session.PhaseEnded {
			logrus.WithFields(logrus.Fields{
				"function":   "Controller",
				"call_id":    n.snap.Call.ID,
				"end_reason": n.snap.EndReason,
				"duration":   n.snap.FormattedDuration(),
			}).Info("Call session ended")
		}
		if obs != nil {
			obs.PhaseChanged(n.tr, n.snap)
			if n.tr.To == session.PhaseEnded {
				obs.SessionEnded(n.snap)
			}
		}
	case notifyRingtoneUnavailable:
		if obs != nil {
			obs.RingtoneUnavailable(n.snap.Call.ID, n.err)
		}
		return
	}
	if cb != nil {
		cb(n.snap)
	}
}

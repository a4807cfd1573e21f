package session

import (
	"testing"
	"time"

	"github.com/opd-ai/meetcall/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func incomingVideo() CallData {
	return CallData{
		ID:         "abc",
		Type:       CallTypeVideo,
		RemoteName: "Ada",
		Direction:  DirectionIncoming,
	}
}

func newTestSession(t *testing.T, data CallData) (*Session, *clock.Manual) {
	t.Helper()
	sched := clock.NewManual(epoch)
	s, err := New(data, sched)
	require.NoError(t, err)
	return s, sched
}

func TestNewSessionInitialState(t *testing.T) {
	s, _ := newTestSession(t, incomingVideo())
	assert.Equal(t, PhaseRingingIncoming, s.Phase())
	assert.Equal(t, 0, s.Elapsed())
	assert.False(t, s.Muted())
	assert.True(t, s.VideoEnabled(), "video calls start with video enabled")
	assert.False(t, s.TimerRunning())

	audio := incomingVideo()
	audio.Type = CallTypeAudio
	audio.Direction = DirectionOutgoing
	s2, _ := newTestSession(t, audio)
	assert.Equal(t, PhaseRingingOutgoing, s2.Phase())
	assert.False(t, s2.VideoEnabled())
}

func TestNewSessionValidation(t *testing.T) {
	sched := clock.NewManual(epoch)

	bad := []CallData{
		{Type: CallTypeAudio, Direction: DirectionIncoming},
		{ID: "x", Type: "fax", Direction: DirectionIncoming},
		{ID: "x", Type: CallTypeAudio},
	}
	for _, d := range bad {
		_, err := New(d, sched)
		assert.ErrorIs(t, err, ErrInvalidCallData)
	}

	_, err := New(incomingVideo(), nil)
	assert.Error(t, err)
}

func TestRejectFromRingingIncoming(t *testing.T) {
	s, sched := newTestSession(t, incomingVideo())

	tr, ok := s.Fire(EventReject)
	require.True(t, ok)
	assert.Equal(t, PhaseRingingIncoming, tr.From)
	assert.Equal(t, PhaseEnded, tr.To)
	assert.Equal(t, EndReasonRejected, tr.Reason)

	sched.Advance(10 * time.Second)
	assert.Equal(t, PhaseEnded, s.Phase())
	assert.Equal(t, 0, s.Elapsed())
}

func TestEndedIsTerminal(t *testing.T) {
	s, _ := newTestSession(t, incomingVideo())
	_, ok := s.Fire(EventReject)
	require.True(t, ok)

	for e := EventAccept; e <= EventRingTimeout; e++ {
		_, ok := s.Fire(e)
		assert.False(t, ok, "event %s must not leave ended", e)
		assert.Equal(t, PhaseEnded, s.Phase())
	}
	assert.Equal(t, EndReasonRejected, s.Snapshot().EndReason)
}

func TestInvalidEventsAreNoOps(t *testing.T) {
	s, _ := newTestSession(t, incomingVideo())

	for _, e := range []Event{EventMediaConnected, EventHangUp, EventRemoteAccept, EventCancel} {
		_, ok := s.Fire(e)
		assert.False(t, ok, "event %s", e)
		assert.Equal(t, PhaseRingingIncoming, s.Phase())
	}
}

func TestDurationTicksOnlyWhileConnected(t *testing.T) {
	s, sched := newTestSession(t, incomingVideo())

	sched.Advance(5 * time.Second)
	assert.Equal(t, 0, s.Elapsed(), "no ticks while ringing")

	_, ok := s.Fire(EventAccept)
	require.True(t, ok)
	sched.Advance(5 * time.Second)
	assert.Equal(t, 0, s.Elapsed(), "no ticks while connecting")

	_, ok = s.Fire(EventMediaConnected)
	require.True(t, ok)
	assert.True(t, s.TimerRunning())

	for i := 1; i <= 3; i++ {
		sched.Advance(time.Second)
		assert.Equal(t, i, s.Elapsed())
	}

	sched.Advance(62 * time.Second)
	assert.Equal(t, 65, s.Elapsed())
	assert.Equal(t, "01:05", s.Snapshot().FormattedDuration())

	_, ok = s.Fire(EventHangUp)
	require.True(t, ok)
	assert.False(t, s.TimerRunning())
	assert.Equal(t, 0, sched.Pending(), "duration timer must be cancelled")

	sched.Advance(time.Hour)
	assert.Equal(t, 65, s.Elapsed(), "duration must stop permanently after hang-up")
}

func TestSubSecondConnectionDoesNotTick(t *testing.T) {
	s, sched := newTestSession(t, incomingVideo())
	s.Fire(EventAccept)
	s.Fire(EventMediaConnected)

	sched.Advance(999 * time.Millisecond)
	s.Fire(EventRemoteDisconnect)
	sched.Advance(time.Minute)

	assert.Equal(t, 0, s.Elapsed())
	assert.Equal(t, EndReasonRemoteDisconnect, s.Snapshot().EndReason)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from   Phase
		event  Event
		to     Phase
		reason EndReason
	}{
		{PhaseRingingIncoming, EventAccept, PhaseConnecting, EndReasonNone},
		{PhaseRingingIncoming, EventReject, PhaseEnded, EndReasonRejected},
		{PhaseRingingIncoming, EventRingTimeout, PhaseEnded, EndReasonMissed},
		{PhaseRingingIncoming, EventRemoteDisconnect, PhaseEnded, EndReasonRemoteDisconnect},
		{PhaseRingingOutgoing, EventRemoteAccept, PhaseConnecting, EndReasonNone},
		{PhaseRingingOutgoing, EventCancel, PhaseEnded, EndReasonCancelled},
		{PhaseRingingOutgoing, EventRemoteReject, PhaseEnded, EndReasonRejected},
		{PhaseRingingOutgoing, EventTransportError, PhaseEnded, EndReasonFailed},
		{PhaseConnecting, EventMediaConnected, PhaseConnected, EndReasonNone},
		{PhaseConnecting, EventMediaFailed, PhaseEnded, EndReasonFailed},
		{PhaseConnecting, EventRemoteDisconnect, PhaseEnded, EndReasonRemoteDisconnect},
		{PhaseConnected, EventHangUp, PhaseEnded, EndReasonCompleted},
		{PhaseConnected, EventRemoteHangUp, PhaseEnded, EndReasonCompleted},
		{PhaseConnected, EventTransportError, PhaseEnded, EndReasonFailed},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.event.String(), func(t *testing.T) {
			to, reason, ok := Next(tt.from, tt.event)
			require.True(t, ok)
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.reason, reason)
		})
	}

	_, _, ok := Next(PhaseRingingIncoming, EventCancel)
	assert.False(t, ok)
	_, _, ok = Next(PhaseRingingOutgoing, EventAccept)
	assert.False(t, ok)
}

func TestToggleOnlyWithActiveMedia(t *testing.T) {
	s, _ := newTestSession(t, incomingVideo())

	muted, changed := s.ToggleMute()
	assert.False(t, changed, "mute toggle while ringing is a no-op")
	assert.False(t, muted)
	video, changed := s.ToggleVideo()
	assert.False(t, changed)
	assert.True(t, video)

	s.Fire(EventAccept)
	muted, changed = s.ToggleMute()
	assert.True(t, changed)
	assert.True(t, muted)

	s.Fire(EventMediaConnected)
	video, changed = s.ToggleVideo()
	assert.True(t, changed)
	assert.False(t, video)

	s.Fire(EventHangUp)
	muted, changed = s.ToggleMute()
	assert.False(t, changed, "mute toggle after end is a no-op")
	assert.True(t, muted)
	assert.True(t, s.Muted())
	_, changed = s.ToggleVideo()
	assert.False(t, changed)
	assert.False(t, s.VideoEnabled())
}

func TestSnapshotTimestamps(t *testing.T) {
	s, sched := newTestSession(t, incomingVideo())
	sched.Advance(3 * time.Second)
	s.Fire(EventAccept)
	sched.Advance(2 * time.Second)
	s.Fire(EventMediaConnected)
	sched.Advance(10 * time.Second)
	s.Fire(EventHangUp)

	snap := s.Snapshot()
	assert.Equal(t, epoch, snap.CreatedAt)
	assert.Equal(t, epoch.Add(5*time.Second), snap.ConnectedAt)
	assert.Equal(t, epoch.Add(15*time.Second), snap.EndedAt)
	assert.Equal(t, 10, snap.ElapsedSeconds)
	assert.Equal(t, EndReasonCompleted, snap.EndReason)
	assert.Equal(t, "abc", snap.Call.ID)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{125, "02:05"},
		{3599, "59:59"},
		{3600, "60:00"},
		{6001, "100:01"},
		{-4, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestNewCallIDUnique(t *testing.T) {
	a, b := NewCallID(), NewCallID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestPhaseAndEventStrings(t *testing.T) {
	assert.Equal(t, "ringing-incoming", PhaseRingingIncoming.String())
	assert.Equal(t, "unknown", Phase(42).String())
	assert.Equal(t, "ring-timeout", EventRingTimeout.String())
	assert.Equal(t, "unknown", Event(-1).String())
	assert.True(t, PhaseRingingOutgoing.IsRinging())
	assert.False(t, PhaseConnecting.IsRinging())
	assert.True(t, PhaseConnected.HasMedia())
	assert.False(t, PhaseEnded.HasMedia())
}

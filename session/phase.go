package session

// Phase is a call's position in its lifecycle.
type Phase int

const (
	// PhaseRingingIncoming: an offer arrived and the local ringtone plays.
	PhaseRingingIncoming Phase = iota
	// PhaseRingingOutgoing: the local user dialed and waits for the remote side.
	PhaseRingingOutgoing
	// PhaseConnecting: both sides agreed; media is being set up.
	PhaseConnecting
	// PhaseConnected: media flows and the duration counter runs.
	PhaseConnected
	// PhaseEnded is terminal.
	PhaseEnded
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseRingingIncoming:
		return "ringing-incoming"
	case PhaseRingingOutgoing:
		return "ringing-outgoing"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// IsRinging reports whether p is one of the ringing phases.
func (p Phase) IsRinging() bool {
	return p == PhaseRingingIncoming || p == PhaseRingingOutgoing
}

// HasMedia reports whether mute and video flags apply in p.
func (p Phase) HasMedia() bool {
	return p == PhaseConnecting || p == PhaseConnected
}

// Event drives a phase transition.
type Event int

const (
	EventAccept Event = iota
	EventReject
	EventRemoteAccept
	EventRemoteReject
	EventCancel
	EventMediaConnected
	EventMediaFailed
	EventHangUp
	EventRemoteHangUp
	EventRemoteDisconnect
	EventTransportError
	// EventRingTimeout fires when the ringtone exhausts its loops unanswered.
	EventRingTimeout
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case EventAccept:
		return "accept"
	case EventReject:
		return "reject"
	case EventRemoteAccept:
		return "remote-accept"
	case EventRemoteReject:
		return "remote-reject"
	case EventCancel:
		return "cancel"
	case EventMediaConnected:
		return "media-connected"
	case EventMediaFailed:
		return "media-failed"
	case EventHangUp:
		return "hang-up"
	case EventRemoteHangUp:
		return "remote-hang-up"
	case EventRemoteDisconnect:
		return "remote-disconnect"
	case EventTransportError:
		return "transport-error"
	case EventRingTimeout:
		return "ring-timeout"
	default:
		return "unknown"
	}
}

// EndReason records why a session reached PhaseEnded.
type EndReason string

const (
	EndReasonNone             EndReason = ""
	EndReasonRejected         EndReason = "rejected"
	EndReasonCancelled        EndReason = "cancelled"
	EndReasonMissed           EndReason = "missed"
	EndReasonFailed           EndReason = "failed"
	EndReasonCompleted        EndReason = "completed"
	EndReasonRemoteDisconnect EndReason = "remote-disconnect"
)

type transition struct {
	to     Phase
	reason EndReason
}

// transitions is the complete table; anything absent is a no-op.
var transitions = map[Phase]map[Event]transition{
	PhaseRingingIncoming: {
		EventAccept:           {PhaseConnecting, EndReasonNone},
		EventReject:           {PhaseEnded, EndReasonRejected},
		EventRingTimeout:      {PhaseEnded, EndReasonMissed},
		EventRemoteDisconnect: {PhaseEnded, EndReasonRemoteDisconnect},
		EventTransportError:   {PhaseEnded, EndReasonFailed},
	},
	PhaseRingingOutgoing: {
		EventRemoteAccept:     {PhaseConnecting, EndReasonNone},
		EventCancel:           {PhaseEnded, EndReasonCancelled},
		EventRemoteReject:     {PhaseEnded, EndReasonRejected},
		EventRemoteDisconnect: {PhaseEnded, EndReasonRemoteDisconnect},
		EventTransportError:   {PhaseEnded, EndReasonFailed},
	},
	PhaseConnecting: {
		EventMediaConnected:   {PhaseConnected, EndReasonNone},
		EventMediaFailed:      {PhaseEnded, EndReasonFailed},
		EventHangUp:           {PhaseEnded, EndReasonCancelled},
		EventRemoteDisconnect: {PhaseEnded, EndReasonRemoteDisconnect},
		EventTransportError:   {PhaseEnded, EndReasonFailed},
	},
	PhaseConnected: {
		EventHangUp:           {PhaseEnded, EndReasonCompleted},
		EventRemoteHangUp:     {PhaseEnded, EndReasonCompleted},
		EventRemoteDisconnect: {PhaseEnded, EndReasonRemoteDisconnect},
		EventTransportError:   {PhaseEnded, EndReasonFailed},
		EventMediaFailed:      {PhaseEnded, EndReasonFailed},
	},
}

// Next returns the phase e leads to from p, the end reason recorded when
// that phase is PhaseEnded, and whether the transition exists.
func Next(p Phase, e Event) (Phase, EndReason, bool) {
	t, ok := transitions[p][e]
	if !ok {
		return p, EndReasonNone, false
	}
	return t.to, t.reason, true
}

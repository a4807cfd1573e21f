package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CallType is the media kind offered for a call.
type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

// Direction tells who placed the call.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// ErrInvalidCallData indicates a call offer that cannot start a session.
var ErrInvalidCallData = errors.New("invalid call data")

// CallData is the immutable description of one call attempt.
type CallData struct {
	// ID is globally unique per call attempt.
	ID string
	// Type is the offered media kind.
	Type CallType
	// RemoteName is the display name of the other party.
	RemoteName string
	// RemoteAvatar optionally references the other party's picture.
	RemoteAvatar string
	// Direction is set by the controller entry point used.
	Direction Direction
}

// Validate checks the offer has an identifier, a known type and a known
// direction.
func (d CallData) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty call id", ErrInvalidCallData)
	}
	switch d.Type {
	case CallTypeAudio, CallTypeVideo:
	default:
		return fmt.Errorf("%w: unknown call type %q", ErrInvalidCallData, d.Type)
	}
	switch d.Direction {
	case DirectionIncoming, DirectionOutgoing:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidCallData, d.Direction)
	}
	return nil
}

// IsVideo reports whether the call was offered with video.
func (d CallData) IsVideo() bool {
	return d.Type == CallTypeVideo
}

// NewCallID returns a fresh random call identifier.
func NewCallID() string {
	return uuid.NewString()
}

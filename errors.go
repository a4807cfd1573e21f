package meetcall

import "errors"

// Sentinel errors for controller operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrSessionBusy indicates an offer arrived while another session is
	// still active. The signaling layer should reject or queue it.
	ErrSessionBusy = errors.New("call session already active")

	// ErrNoActiveSession indicates a command with no non-terminal session.
	// UI callers usually treat it as a no-op.
	ErrNoActiveSession = errors.New("no active call session")

	// ErrInvalidOptions indicates configuration that failed validation.
	ErrInvalidOptions = errors.New("invalid options")
)

package ringtone

import "errors"

// Sentinel errors for ringtone operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrResourceUnavailable indicates the alert sound could not be loaded
	// or started. It is never fatal: the call proceeds without an audible ring.
	ErrResourceUnavailable = errors.New("ringtone resource unavailable")

	// ErrInvalidWAV indicates the sound file is not a usable RIFF/WAVE file.
	ErrInvalidWAV = errors.New("invalid wav file")

	// ErrNotLoaded indicates an operation on a sound that was unloaded.
	ErrNotLoaded = errors.New("sound not loaded")
)

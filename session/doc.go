// Package session models one call attempt as a small state machine.
//
// Phases run ringing-incoming or ringing-outgoing, then connecting,
// connected, and finally ended, which is terminal. Events not valid from the
// current phase are ignored rather than reported as errors so duplicate UI
// taps and late transport events are harmless.
package session

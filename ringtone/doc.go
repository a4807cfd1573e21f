// Package ringtone drives the locally audible alert played while a call
// rings.
//
// A Player owns at most one playback of a single clip. The clip is played a
// bounded number of times (DefaultMaxLoops) and then a one-shot completion
// handler runs; the call controller uses that signal as its ring timeout.
// Failing to load or start the clip is reported with ErrResourceUnavailable
// and never blocks the call itself.
//
// Loading is abstracted behind Loader and Sound. WAVLoader reads RIFF/WAVE
// files from an fs.FS and times each pass on a clock.Scheduler.
package ringtone

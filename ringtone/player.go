package ringtone

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultMaxLoops is the number of complete clip passes played before the
// player stops on its own and reports completion.
const DefaultMaxLoops = 2

// Status is a playback progress report delivered by a Sound.
type Status struct {
	// DidJustFinish is set when the clip reached its end.
	DidJustFinish bool
	// IsLooping is set when the underlying primitive loops by itself; such
	// reports are not counted as completed passes.
	IsLooping bool
}

// Sound is a loaded, playable alert clip.
//
// Implementations must deliver status reports asynchronously: never from
// inside Play, Replay, Stop or Unload.
type Sound interface {
	SetStatusHandler(h func(Status))
	Play() error
	// Replay restarts the already loaded clip from the beginning.
	Replay() error
	Stop() error
	Unload() error
}

// Loader acquires the audio resource named by name.
type Loader interface {
	Load(name string) (Sound, error)
}

// Player plays one alert sound up to a bounded number of passes.
//
// At most one playback is active at any time: Play always tears down the
// previous playback first. Each playback carries its own generation so a
// late status report from an earlier playback is dropped, and a completion
// handler fires at most once.
type Player struct {
	loader   Loader
	name     string
	maxLoops int

	mu         sync.Mutex
	sound      Sound
	playing    bool
	loopCount  int
	onComplete func()
	generation uint64
}

// NewPlayer creates an idle player for the named resource. A maxLoops
// below one selects DefaultMaxLoops.
func NewPlayer(loader Loader, name string, maxLoops int) *Player {
	if maxLoops < 1 {
		maxLoops = DefaultMaxLoops
	}
	return &Player{
		loader:   loader,
		name:     name,
		maxLoops: maxLoops,
	}
}

// Play starts the ringtone from loop 0 and stores onComplete, which runs
// once after the final pass. A returned error wraps ErrResourceUnavailable;
// it is informational only and leaves the player idle.
func (p *Player) Play(onComplete func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.generation++
	gen := p.generation

	if p.loader == nil {
		return p.unavailableLocked(fmt.Errorf("no loader configured"))
	}

	sound, err := p.loader.Load(p.name)
	if err != nil {
		return p.unavailableLocked(err)
	}

	sound.SetStatusHandler(func(st Status) {
		p.handleStatus(gen, st)
	})
	p.sound = sound
	p.onComplete = onComplete
	p.loopCount = 0
	p.playing = true

	if err := sound.Play(); err != nil {
		p.stopLocked()
		return p.unavailableLocked(err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Player.Play",
		"resource":  p.name,
		"max_loops": p.maxLoops,
	}).Debug("Ringtone playback started")
	return nil
}

func (p *Player) unavailableLocked(cause error) error {
	logrus.WithFields(logrus.Fields{
		"function": "Player.Play",
		"resource": p.name,
		"error":    cause.Error(),
	}).Warn("Ringtone unavailable, continuing without audible ring")
	return fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, p.name, cause)
}

// handleStatus advances the loop counter for playback gen.
func (p *Player) handleStatus(gen uint64, st Status) {
	if !st.DidJustFinish || st.IsLooping {
		return
	}

	p.mu.Lock()
	if gen != p.generation || !p.playing {
		p.mu.Unlock()
		return
	}

	p.loopCount++
	if p.loopCount < p.maxLoops {
		err := p.sound.Replay()
		if err == nil {
			p.mu.Unlock()
			return
		}
		logrus.WithFields(logrus.Fields{
			"function":   "Player.handleStatus",
			"resource":   p.name,
			"loop_count": p.loopCount,
			"error":      err.Error(),
		}).Warn("Ringtone replay failed, ending ring period")
	}

	cb := p.onComplete
	p.onComplete = nil
	p.stopLocked()
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Player.handleStatus",
		"resource": p.name,
	}).Debug("Ringtone playback completed")

	if cb != nil {
		cb()
	}
}

// Stop halts playback if any. It never invokes the completion handler and
// is safe to call at any time, any number of times.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked releases the sound and unconditionally resets state; errors
// from the underlying primitive are logged and dropped.
func (p *Player) stopLocked() {
	if p.sound != nil {
		if err := p.sound.Stop(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Player.stop",
				"resource": p.name,
				"error":    err.Error(),
			}).Warn("Failed to stop ringtone")
		}
		if err := p.sound.Unload(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Player.stop",
				"resource": p.name,
				"error":    err.Error(),
			}).Warn("Failed to unload ringtone")
		}
	}
	p.sound = nil
	p.playing = false
	p.loopCount = 0
	p.onComplete = nil
}

// IsPlaying reports whether a playback is in progress.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// LoopCount returns the passes completed by the current playback.
func (p *Player) LoopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loopCount
}

// MaxLoops returns the configured pass bound.
func (p *Player) MaxLoops() int {
	return p.maxLoops
}

package meetcall

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/opd-ai/meetcall/clock"
	"github.com/opd-ai/meetcall/ringtone"
	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// DefaultSilentRingTimeout bounds an incoming call whose ringtone could not
// be played.
const DefaultSilentRingTimeout = 30 * time.Second

// Options contains controller and logging configuration.
type Options struct {
	// MaxRingLoops bounds how many times the ringtone plays before an
	// unanswered incoming call is ended as missed.
	MaxRingLoops int
	// RingtoneName is the clip file name inside SoundsDir.
	RingtoneName string
	// SoundsDir is the directory ringtone clips are read from.
	SoundsDir string
	// SilentRingTimeout ends an incoming call as missed when its ringtone
	// is unavailable and nobody answers.
	SilentRingTimeout time.Duration
	Logging           LoggingOptions
}

// LoggingOptions configures the process logger.
type LoggingOptions struct {
	Level      string
	Format     string // "text" or "json"
	File       string // empty disables the rotating file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewOptions returns the default configuration.
func NewOptions() *Options {
	return &Options{
		MaxRingLoops:      ringtone.DefaultMaxLoops,
		RingtoneName:      "ringtone.wav",
		SoundsDir:         "sounds",
		SilentRingTimeout: DefaultSilentRingTimeout,
		Logging: LoggingOptions{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadOptions reads an ini file on top of the defaults. Missing sections
// and keys keep their default values.
//
//	[ringtone]
//	name = ringtone.wav
//	dir = sounds
//	max_loops = 2
//	silent_timeout = 30s
//
//	[logging]
//	level = debug
//	format = json
//	file = meetcall.log
func LoadOptions(path string) (*Options, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading options from %s: %w", path, err)
	}
	opts := NewOptions()

	sec := cfg.Section("ringtone")
	opts.RingtoneName = sec.Key("name").MustString(opts.RingtoneName)
	opts.SoundsDir = sec.Key("dir").MustString(opts.SoundsDir)
	opts.MaxRingLoops = sec.Key("max_loops").MustInt(opts.MaxRingLoops)
	opts.SilentRingTimeout = sec.Key("silent_timeout").MustDuration(opts.SilentRingTimeout)

	sec = cfg.Section("logging")
	opts.Logging.Level = sec.Key("level").MustString(opts.Logging.Level)
	opts.Logging.Format = sec.Key("format").MustString(opts.Logging.Format)
	opts.Logging.File = sec.Key("file").String()
	opts.Logging.MaxSizeMB = sec.Key("max_size_mb").MustInt(opts.Logging.MaxSizeMB)
	opts.Logging.MaxBackups = sec.Key("max_backups").MustInt(opts.Logging.MaxBackups)
	opts.Logging.MaxAgeDays = sec.Key("max_age_days").MustInt(opts.Logging.MaxAgeDays)

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":  "LoadOptions",
		"path":      path,
		"max_loops": opts.MaxRingLoops,
		"ringtone":  opts.RingtoneName,
	}).Debug("Options loaded")

	return opts, nil
}

// Validate checks option ranges and enumerations.
func (o *Options) Validate() error {
	if o.MaxRingLoops < 1 {
		return fmt.Errorf("%w: max ring loops must be at least 1, got %d", ErrInvalidOptions, o.MaxRingLoops)
	}
	if o.SilentRingTimeout <= 0 {
		return fmt.Errorf("%w: silent ring timeout must be positive, got %s", ErrInvalidOptions, o.SilentRingTimeout)
	}
	if strings.TrimSpace(o.RingtoneName) == "" {
		return fmt.Errorf("%w: ringtone name cannot be empty", ErrInvalidOptions)
	}
	if _, err := logrus.ParseLevel(o.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	switch o.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidOptions, o.Logging.Format)
	}
	if o.Logging.MaxSizeMB < 0 || o.Logging.MaxBackups < 0 || o.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("%w: log rotation limits cannot be negative", ErrInvalidOptions)
	}
	return nil
}

// NewController builds a controller whose ringtone is read from fsys as
// described by NewRingtonePlayer.
func (o *Options) NewController(fsys fs.FS, sched clock.Scheduler, sink io.Writer) (*Controller, error) {
	ctrl, err := NewController(o.NewRingtonePlayer(fsys, sched, sink), sched)
	if err != nil {
		return nil, err
	}
	ctrl.SetSilentRingTimeout(o.SilentRingTimeout)
	return ctrl, nil
}

// NewRingtonePlayer builds a player that reads RingtoneName as a WAV clip
// from fsys, timing playback on sched and copying PCM to sink if non-nil.
func (o *Options) NewRingtonePlayer(fsys fs.FS, sched clock.Scheduler, sink io.Writer) *ringtone.Player {
	loader := &ringtone.WAVLoader{FS: fsys, Scheduler: sched, Sink: sink}
	return ringtone.NewPlayer(loader, o.RingtoneName, o.MaxRingLoops)
}

package meetcall

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/opd-ai/meetcall/clock"
	"github.com/opd-ai/meetcall/ringtone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meetcall.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()
	assert.Equal(t, 2, opts.MaxRingLoops)
	assert.Equal(t, "ringtone.wav", opts.RingtoneName)
	assert.Equal(t, "sounds", opts.SoundsDir)
	assert.Equal(t, DefaultSilentRingTimeout, opts.SilentRingTimeout)
	assert.Equal(t, "info", opts.Logging.Level)
	assert.Equal(t, "text", opts.Logging.Format)
	assert.Empty(t, opts.Logging.File)
	assert.NoError(t, opts.Validate())
}

func TestLoadOptions(t *testing.T) {
	path := writeConfig(t, `
[ringtone]
name = chime.wav
dir = /usr/share/meetcall
max_loops = 4
silent_timeout = 45s

[logging]
level = debug
format = json
file = /var/log/meetcall.log
max_backups = 7
`)

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "chime.wav", opts.RingtoneName)
	assert.Equal(t, "/usr/share/meetcall", opts.SoundsDir)
	assert.Equal(t, 4, opts.MaxRingLoops)
	assert.Equal(t, 45*time.Second, opts.SilentRingTimeout)
	assert.Equal(t, "debug", opts.Logging.Level)
	assert.Equal(t, "json", opts.Logging.Format)
	assert.Equal(t, "/var/log/meetcall.log", opts.Logging.File)
	assert.Equal(t, 7, opts.Logging.MaxBackups)
	assert.Equal(t, 10, opts.Logging.MaxSizeMB, "unset keys keep defaults")
}

func TestLoadOptionsEmptyFileKeepsDefaults(t *testing.T) {
	opts, err := LoadOptions(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, NewOptions(), opts)
}

func TestLoadOptionsErrors(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)

	_, err = LoadOptions(writeConfig(t, "[ringtone]\nmax_loops = 0\n"))
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = LoadOptions(writeConfig(t, "[logging]\nlevel = loud\n"))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero loops", func(o *Options) { o.MaxRingLoops = 0 }},
		{"zero silent timeout", func(o *Options) { o.SilentRingTimeout = 0 }},
		{"blank ringtone", func(o *Options) { o.RingtoneName = "  " }},
		{"bad level", func(o *Options) { o.Logging.Level = "verbose" }},
		{"bad format", func(o *Options) { o.Logging.Format = "xml" }},
		{"negative rotation", func(o *Options) { o.Logging.MaxAgeDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.mutate(opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)
		})
	}
}

func TestNewRingtonePlayerUsesOptions(t *testing.T) {
	opts := NewOptions()
	opts.RingtoneName = "chime.wav"
	opts.MaxRingLoops = 3

	sched := clock.NewManual(epoch)
	files := fstest.MapFS{"chime.wav": &fstest.MapFile{Data: ringtone.GenerateTone(oneSecondTone)}}
	player := opts.NewRingtonePlayer(files, sched, nil)
	assert.Equal(t, 3, player.MaxLoops())

	done := 0
	require.NoError(t, player.Play(func() { done++ }))
	sched.Advance(2 * time.Second)
	assert.Equal(t, 0, done)
	sched.Advance(time.Second)
	assert.Equal(t, 1, done)
}

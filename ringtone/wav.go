package ringtone

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/opd-ai/meetcall/clock"
	"github.com/sirupsen/logrus"
)

// wavHeader holds the fields of a WAV header needed to time playback.
type wavHeader struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Duration returns the play length of the data chunk.
func (h *wavHeader) Duration() time.Duration {
	if h.ByteRate == 0 {
		return 0
	}
	return time.Duration(uint64(h.DataSize) * uint64(time.Second) / uint64(h.ByteRate))
}

// parseWAV validates a RIFF/WAVE file and returns its header and the
// contents of the data chunk.
func parseWAV(data []byte) (*wavHeader, []byte, error) {
	r := bytes.NewReader(data)

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: reading riff header: %v", ErrInvalidWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrInvalidWAV)
	}

	hdr := &wavHeader{}
	foundFmt := false
	for {
		var chunkID [4]byte
		var chunkSize uint32
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
			}
			return nil, nil, fmt.Errorf("%w: reading chunk id: %v", ErrInvalidWAV, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, fmt.Errorf("%w: reading chunk size: %v", ErrInvalidWAV, err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			if chunkSize < 16 {
				return nil, nil, fmt.Errorf("%w: fmt chunk too small: %d bytes", ErrInvalidWAV, chunkSize)
			}
			fields := []any{&hdr.AudioFormat, &hdr.NumChannels, &hdr.SampleRate,
				&hdr.ByteRate, &hdr.BlockAlign, &hdr.BitsPerSample}
			for _, f := range fields {
				if err := binary.Read(r, binary.LittleEndian, f); err != nil {
					return nil, nil, fmt.Errorf("%w: reading fmt chunk: %v", ErrInvalidWAV, err)
				}
			}
			if _, err := r.Seek(int64(chunkSize-16), io.SeekCurrent); err != nil {
				return nil, nil, fmt.Errorf("%w: skipping fmt extension: %v", ErrInvalidWAV, err)
			}
			foundFmt = true

		case "data":
			if !foundFmt {
				return nil, nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			if int64(chunkSize) > int64(r.Len()) {
				return nil, nil, fmt.Errorf("%w: data chunk truncated", ErrInvalidWAV)
			}
			if hdr.ByteRate == 0 {
				return nil, nil, fmt.Errorf("%w: zero byte rate", ErrInvalidWAV)
			}
			hdr.DataSize = chunkSize
			if chunkSize == 0 || chunkSize < uint32(hdr.BlockAlign) || hdr.Duration() <= 0 {
				return nil, nil, fmt.Errorf("%w: data chunk holds no complete frame", ErrInvalidWAV)
			}
			pcm := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, pcm); err != nil {
				return nil, nil, fmt.Errorf("%w: reading data chunk: %v", ErrInvalidWAV, err)
			}
			return hdr, pcm, nil

		default:
			// Chunks are word aligned.
			skip := int64(chunkSize) + int64(chunkSize&1)
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return nil, nil, fmt.Errorf("%w: skipping chunk %q: %v", ErrInvalidWAV, chunkID[:], err)
			}
		}
	}
}

// WAVLoader loads ringtone clips from WAV files in FS.
//
// Playback writes the PCM payload to Sink, when set, and reports the end of
// the clip after its natural duration on Scheduler.
type WAVLoader struct {
	FS        fs.FS
	Scheduler clock.Scheduler
	Sink      io.Writer
}

// Load reads and validates the named file.
func (l *WAVLoader) Load(name string) (Sound, error) {
	if l.FS == nil || l.Scheduler == nil {
		return nil, errors.New("wav loader not configured")
	}
	data, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	hdr, pcm, err := parseWAV(data)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "WAVLoader.Load",
		"resource":    name,
		"sample_rate": hdr.SampleRate,
		"channels":    hdr.NumChannels,
		"duration":    hdr.Duration(),
	}).Debug("Loaded ringtone clip")

	return &wavSound{
		name:     name,
		pcm:      pcm,
		duration: hdr.Duration(),
		sched:    l.Scheduler,
		sink:     l.Sink,
		loaded:   true,
	}, nil
}

type wavSound struct {
	name     string
	duration time.Duration
	sched    clock.Scheduler
	sink     io.Writer

	mu      sync.Mutex
	pcm     []byte
	loaded  bool
	handler func(Status)
	pending clock.Timer
	pass    uint64
}

func (s *wavSound) SetStatusHandler(h func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *wavSound) Play() error {
	return s.start()
}

func (s *wavSound) Replay() error {
	return s.start()
}

func (s *wavSound) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if s.sink != nil {
		if _, err := s.sink.Write(s.pcm); err != nil {
			return fmt.Errorf("writing %s to sink: %w", s.name, err)
		}
	}

	s.pass++
	pass := s.pass
	s.pending = s.sched.AfterFunc(s.duration, func() { s.finish(pass) })
	return nil
}

// finish reports the end of the given pass, unless that pass was stopped
// or superseded meanwhile.
func (s *wavSound) finish(pass uint64) {
	s.mu.Lock()
	if s.pending == nil || s.pass != pass {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	h := s.handler
	s.mu.Unlock()

	if h != nil {
		h(Status{DidJustFinish: true})
	}
}

func (s *wavSound) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	return nil
}

func (s *wavSound) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.loaded = false
	s.pcm = nil
	s.handler = nil
	return nil
}

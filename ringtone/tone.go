package ringtone

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// ToneSpec describes a synthesized two-tone ring burst.
type ToneSpec struct {
	SampleRate uint32
	Frequency1 float64
	Frequency2 float64
	On         time.Duration
	Off        time.Duration
	Amplitude  float64
}

// DefaultTone is a 400+450 Hz burst, 2s on and 1s off, at 8 kHz.
var DefaultTone = ToneSpec{
	SampleRate: 8000,
	Frequency1: 400,
	Frequency2: 450,
	On:         2 * time.Second,
	Off:        time.Second,
	Amplitude:  0.4,
}

// GenerateTone renders spec as a mono 16-bit PCM WAV file. It backs the
// example programs when no ringtone file is installed. Negative durations
// count as zero and Amplitude is clamped to [0, 1].
func GenerateTone(spec ToneSpec) []byte {
	if spec.SampleRate == 0 {
		spec.SampleRate = DefaultTone.SampleRate
	}
	spec.On = max(spec.On, 0)
	spec.Off = max(spec.Off, 0)
	spec.Amplitude = min(max(spec.Amplitude, 0), 1)
	onSamples := int(uint64(spec.On) * uint64(spec.SampleRate) / uint64(time.Second))
	offSamples := int(uint64(spec.Off) * uint64(spec.SampleRate) / uint64(time.Second))
	total := onSamples + offSamples

	pcm := make([]int16, total)
	rate := float64(spec.SampleRate)
	for i := 0; i < onSamples; i++ {
		t := float64(i) / rate
		v := 0.5*math.Sin(2*math.Pi*spec.Frequency1*t) + 0.5*math.Sin(2*math.Pi*spec.Frequency2*t)
		pcm[i] = int16(v * spec.Amplitude * math.MaxInt16)
	}

	const bitsPerSample = 16
	const channels = 1
	blockAlign := uint16(channels * bitsPerSample / 8)
	dataSize := uint32(total) * uint32(blockAlign)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, spec.SampleRate)
	_ = binary.Write(&buf, binary.LittleEndian, spec.SampleRate*uint32(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	_ = binary.Write(&buf, binary.LittleEndian, pcm)
	return buf.Bytes()
}

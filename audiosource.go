// audiosource.go - AudioSource contract and the two backends usable on any
// platform: a synthetic signal generator (used by tests) and a WAV file
// reader.
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import (
	"encoding/binary"
	"io"
	"math"
	"os"
)

// AudioSource is the capture-side contract the core drives (SPEC_FULL.md
// 4.9, spec.md 6): Open negotiates the real rate and buffer size, Start/
// Stop/Close manage the device lifecycle, and every captured buffer is
// delivered to the callback registered via SetCallback. Implementations
// must never block the callback on anything but the temporal ring's short
// mutex.
type AudioSource interface {
	Open(device string, desiredRate int) (realRate, bufferSize int, err error)
	SetCallback(cb func(samples []float32))
	Start() error
	Stop() error
	Close() error
	// ShutdownEvents delivers a value whenever the backend itself fails
	// mid-stream (device unplugged, server died); the core sets
	// Interrupted and halts the compute thread on receipt.
	ShutdownEvents() <-chan error
}

// SyntheticSource generates a deterministic PCM stream from a waveform
// function, for tests and offline use. It has no real device to open;
// Open simply records the requested rate.
type SyntheticSource struct {
	sampleRate int
	bufferSize int
	callback   func(samples []float32)
	shutdown   chan error
	phase      float64
	wave       func(t float64) float32
}

// NewSyntheticSineSource returns a SyntheticSource producing a sine wave
// at freqHz scaled by amplitude.
func NewSyntheticSineSource(freqHz, amplitude float64) *SyntheticSource {
	return &SyntheticSource{
		shutdown: make(chan error, 1),
		wave: func(t float64) float32 {
			return float32(amplitude * math.Sin(2*math.Pi*freqHz*t))
		},
	}
}

// NewSyntheticSilenceSource returns a SyntheticSource producing silence.
func NewSyntheticSilenceSource() *SyntheticSource {
	return &SyntheticSource{
		shutdown: make(chan error, 1),
		wave:     func(t float64) float32 { return 0 },
	}
}

// NewSyntheticWaveSource wraps an arbitrary waveform function (a noisy
// tone, a square wave, ...).
func NewSyntheticWaveSource(wave func(t float64) float32) *SyntheticSource {
	return &SyntheticSource{shutdown: make(chan error, 1), wave: wave}
}

func (s *SyntheticSource) Open(device string, desiredRate int) (int, int, error) {
	s.sampleRate = desiredRate
	s.bufferSize = desiredRate / 20
	if s.bufferSize < 1 {
		s.bufferSize = 1
	}
	return s.sampleRate, s.bufferSize, nil
}

func (s *SyntheticSource) SetCallback(cb func(samples []float32)) { s.callback = cb }

func (s *SyntheticSource) Start() error { return nil }
func (s *SyntheticSource) Stop() error  { return nil }
func (s *SyntheticSource) Close() error { return nil }

func (s *SyntheticSource) ShutdownEvents() <-chan error { return s.shutdown }

// GenerateBuffer produces and delivers one buffer's worth of samples to
// the registered callback, advancing the source's phase. Tests drive the
// source with repeated calls rather than a real-time ticker.
func (s *SyntheticSource) GenerateBuffer() {
	if s.callback == nil {
		return
	}
	buf := make([]float32, s.bufferSize)
	dt := 1.0 / float64(s.sampleRate)
	for i := range buf {
		buf[i] = s.wave(s.phase)
		s.phase += dt
	}
	s.callback(buf)
}

// WAVSource reads mono 16-bit PCM from a canonical WAV file, delivering
// fixed-size buffers to the callback via ReadAll (offline analysis rather
// than a live device).
type WAVSource struct {
	file       *os.File
	sampleRate int
	bufferSize int
	callback   func(samples []float32)
	shutdown   chan error
	dataStart  int64
	dataLen    int64
}

func NewWAVSource(path string, bufferSize int) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &AudioOpenError{Device: path, Reason: err.Error()}
	}
	src := &WAVSource{file: f, bufferSize: bufferSize, shutdown: make(chan error, 1)}
	if err := src.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

type wavFmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

func (s *WAVSource) readHeader() error {
	var riff [12]byte
	if _, err := io.ReadFull(s.file, riff[:]); err != nil {
		return &AudioOpenError{Device: s.file.Name(), Reason: "short RIFF header"}
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return &AudioOpenError{Device: s.file.Name(), Reason: "not a WAV file"}
	}

	var fmtChunk wavFmtChunk
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(s.file, hdr[:]); err != nil {
			return &AudioOpenError{Device: s.file.Name(), Reason: "truncated chunk table"}
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(s.file, body); err != nil {
				return &AudioOpenError{Device: s.file.Name(), Reason: "truncated fmt chunk"}
			}
			fmtChunk.AudioFormat = binary.LittleEndian.Uint16(body[0:2])
			fmtChunk.NumChannels = binary.LittleEndian.Uint16(body[2:4])
			fmtChunk.SampleRate = binary.LittleEndian.Uint32(body[4:8])
			fmtChunk.BitsPerSample = binary.LittleEndian.Uint16(body[14:16])
		case "data":
			pos, _ := s.file.Seek(0, io.SeekCurrent)
			s.dataStart = pos
			s.dataLen = int64(size)
			s.sampleRate = int(fmtChunk.SampleRate)
			return nil
		default:
			if _, err := s.file.Seek(int64(size), io.SeekCurrent); err != nil {
				return &AudioOpenError{Device: s.file.Name(), Reason: "seek failed skipping chunk"}
			}
		}
	}
}

func (s *WAVSource) Open(device string, desiredRate int) (int, int, error) {
	return s.sampleRate, s.bufferSize, nil
}

func (s *WAVSource) SetCallback(cb func(samples []float32)) { s.callback = cb }
func (s *WAVSource) Start() error                            { return nil }
func (s *WAVSource) Stop() error                             { return nil }
func (s *WAVSource) Close() error                            { return s.file.Close() }
func (s *WAVSource) ShutdownEvents() <-chan error            { return s.shutdown }

// ReadAll streams the whole file to the callback in bufferSize chunks,
// converting 16-bit signed PCM to float32 in [-1, 1]. Mono only: the
// header's channel count is not checked, so the interleaved samples of a
// stereo file are delivered as if they were one channel.
func (s *WAVSource) ReadAll() error {
	if _, err := s.file.Seek(s.dataStart, io.SeekStart); err != nil {
		return &AudioRuntimeError{Reason: err.Error()}
	}
	raw := make([]byte, s.bufferSize*2)
	for {
		n, err := io.ReadFull(s.file, raw)
		if n > 0 {
			samples := make([]float32, n/2)
			for i := range samples {
				v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
				samples[i] = float32(v) / 32768.0
			}
			if s.callback != nil {
				s.callback(samples)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			s.shutdown <- &AudioRuntimeError{Reason: err.Error()}
			return err
		}
	}
}

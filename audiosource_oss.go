//go:build linux && !headless

// audiosource_oss.go - OSS (/dev/dsp) capture backend
//
// Adapted from the teacher's audio_backend_oto.go concurrency discipline
// (atomic.Pointer for the real-time hot path, a mutex reserved for
// open/start/stop) and from lingot-audio-oss.c's ioctl sequence, ported to
// a pure-Go unix.IoctlSetInt call instead of cgo.
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const ossDMABufferSize = 512

// OSS ioctl requests from <sys/soundcard.h>, expanded by hand from the
// asm-generic _IOWR(type, nr, size) macro: x/sys/unix does not carry the
// OSS soundcard constants the way it carries termios/network ones, so
// these are computed once here rather than invented as magic numbers at
// each call site.
const (
	sndctlDSPSpeed       = 0xc0045002 // _IOWR('P', 2, int)
	sndctlDSPSetFmt      = 0xc0045005 // _IOWR('P', 5, int)
	sndctlDSPChannels    = 0xc0045006 // _IOWR('P', 6, int)
	sndctlDSPSetFragment = 0xc004500a // _IOWR('P', 10, int)
	afmtS16LE            = 0x00000010
)

// OSSSource captures mono 16-bit PCM from a Linux OSS device. The
// read loop runs on its own goroutine; SetCallback's target is stored
// behind an atomic.Pointer so the loop never takes a lock on its hot path.
type OSSSource struct {
	mu      sync.Mutex
	device  string
	fd      int
	opened  bool
	started atomic.Bool

	callback atomic.Pointer[func([]float32)]

	bufferSize int
	realRate   int

	shutdown chan error
	stopCh   chan struct{}
	done     chan struct{}
}

func NewOSSSource() *OSSSource {
	return &OSSSource{shutdown: make(chan error, 1), fd: -1}
}

func (s *OSSSource) Open(device string, desiredRate int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if device == "" || device == "default" {
		device = "/dev/dsp"
	}
	s.device = device

	fd, err := unix.Open(device, unix.O_RDONLY, 0)
	if err != nil {
		return 0, 0, &AudioOpenError{Device: device, Reason: err.Error()}
	}

	channels := 1
	if err := unix.IoctlSetInt(fd, sndctlDSPChannels, channels); err != nil {
		unix.Close(fd)
		return 0, 0, &AudioOpenError{Device: device, Reason: "setting channel count: " + err.Error()}
	}

	format := afmtS16LE
	if err := unix.IoctlSetInt(fd, sndctlDSPSetFmt, format); err != nil {
		unix.Close(fd)
		return 0, 0, &AudioOpenError{Device: device, Reason: "setting sample format: " + err.Error()}
	}

	fragmentSize := 1
	param := 0
	for ; fragmentSize < ossDMABufferSize; param++ {
		fragmentSize <<= 1
	}
	param |= 0x00ff0000
	if err := unix.IoctlSetInt(fd, sndctlDSPSetFragment, param); err != nil {
		unix.Close(fd)
		return 0, 0, &AudioOpenError{Device: device, Reason: "setting DMA buffer size: " + err.Error()}
	}

	rate := desiredRate
	if err := unix.IoctlSetInt(fd, sndctlDSPSpeed, rate); err != nil {
		unix.Close(fd)
		return 0, 0, &AudioOpenError{Device: device, Reason: "setting sample rate: " + err.Error()}
	}

	switch {
	case desiredRate >= 44100:
		s.bufferSize = 1024
	case desiredRate >= 22050:
		s.bufferSize = 512
	default:
		s.bufferSize = 256
	}

	s.fd = fd
	s.realRate = desiredRate
	s.opened = true
	return s.realRate, s.bufferSize, nil
}

func (s *OSSSource) SetCallback(cb func(samples []float32)) {
	s.callback.Store(&cb)
}

func (s *OSSSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return &AudioOpenError{Device: s.device, Reason: "Start called before Open"}
	}
	if s.started.Load() {
		return nil
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.started.Store(true)
	go s.readLoop(s.fd, s.bufferSize, s.stopCh, s.done)
	return nil
}

func (s *OSSSource) readLoop(fd, bufferSize int, stopCh, done chan struct{}) {
	defer close(done)
	raw := make([]byte, bufferSize*2)
	samples := make([]float32, bufferSize)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		n, err := unix.Read(fd, raw)
		if err != nil {
			s.shutdown <- &AudioRuntimeError{Reason: fmt.Sprintf("read from %s failed: %v", s.device, err)}
			return
		}
		if n <= 0 {
			continue
		}

		count := n / 2
		for i := 0; i < count; i++ {
			v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
			samples[i] = float32(v) / 32768.0
		}

		if cb := s.callback.Load(); cb != nil {
			(*cb)(samples[:count])
		}
	}
}

func (s *OSSSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started.Load() {
		return nil
	}
	close(s.stopCh)
	<-s.done
	s.started.Store(false)
	return nil
}

func (s *OSSSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fd >= 0 {
		err := unix.Close(s.fd)
		s.fd = -1
		s.opened = false
		if err != nil {
			return &AudioRuntimeError{Reason: err.Error()}
		}
	}
	return nil
}

func (s *OSSSource) ShutdownEvents() <-chan error { return s.shutdown }

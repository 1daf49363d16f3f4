//go:build headless || !linux

// audiosource_headless.go - no-op capture backend for platforms without an
// OSS device, and for headless builds that want a trivially stubbed
// AudioSource instead of talking to hardware.
//
// Adapted from the teacher's audio_backend_headless.go no-op stub.
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

// OSSSource on non-Linux platforms (or headless builds) is a stub that
// opens successfully but never delivers samples, matching the teacher's
// headless backend. Use SyntheticSource or WAVSource for actual input.
type OSSSource struct {
	realRate   int
	bufferSize int
	shutdown   chan error
}

func NewOSSSource() *OSSSource {
	return &OSSSource{shutdown: make(chan error, 1)}
}

func (s *OSSSource) Open(device string, desiredRate int) (int, int, error) {
	s.realRate = desiredRate
	s.bufferSize = 1024
	return s.realRate, s.bufferSize, nil
}

func (s *OSSSource) SetCallback(cb func(samples []float32)) {}
func (s *OSSSource) Start() error                            { return nil }
func (s *OSSSource) Stop() error                             { return nil }
func (s *OSSSource) Close() error                            { return nil }
func (s *OSSSource) ShutdownEvents() <-chan error            { return s.shutdown }

// decimator.go - anti-alias filtering and integer decimation for the audio
// callback thread
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

// decimator runs on the audio callback thread: it owns the anti-alias
// filter's state and the phase carry across callback boundaries, and
// appends decimated samples into the shared temporalRing. It must not
// allocate on its hot path (processCallback); rawIn/filtered are
// pre-sized once at construction and reused.
type decimator struct {
	ring            *temporalRing
	filter          *iirFilter
	oversampling    int
	decimationPhase int
	rawIn           []float64
	filtered        []float64
	decimated       []float64
}

// newDecimator builds a decimator for the given oversampling factor and
// maximum callback size in samples. oversampling == 1 bypasses the
// anti-alias filter (no downsampling needed).
func newDecimator(ring *temporalRing, oversampling, maxCallbackSamples int) *decimator {
	d := &decimator{
		ring:         ring,
		oversampling: oversampling,
		rawIn:        make([]float64, maxCallbackSamples),
		filtered:     make([]float64, maxCallbackSamples),
		decimated:    make([]float64, maxCallbackSamples),
	}
	if oversampling > 1 {
		d.filter = chebyshevLowPass(8, 0.5, 0.9/float64(oversampling))
	}
	return d
}

// processCallback implements lingot_core_read_callback: it scales the
// incoming frame into rawIn, runs the anti-alias filter when oversampling
// requires it, decimates, and shift-appends the result into the ring.
func (d *decimator) processCallback(samples []float32) {
	m := len(samples)
	if cap(d.rawIn) < m {
		// Real-time contract: capacity must have been sized for the
		// largest callback up front; a short buffer here indicates a
		// misconfigured AudioSource rather than something to recover
		// from on the hot path.
		m = cap(d.rawIn)
	}
	raw := d.rawIn[:m]
	for i, s := range samples[:m] {
		raw[i] = float64(s)
	}

	if d.oversampling <= 1 {
		d.ring.shiftAppend(raw)
		return
	}

	outLen := 1 + (m-d.decimationPhase-1)/d.oversampling
	if outLen < 0 {
		outLen = 0
	}

	filtered := d.filtered[:m]
	d.filter.filter(raw, filtered)

	out := d.decimated[:outLen]
	for j := 0; j < outLen; j++ {
		idx := d.decimationPhase + j*d.oversampling
		out[j] = filtered[idx]
	}

	d.ring.shiftAppend(out)
	d.decimationPhase = (d.decimationPhase + outLen*d.oversampling - m) % d.oversampling
	if d.decimationPhase < 0 {
		d.decimationPhase += d.oversampling
	}
}

// reset clears filter state and phase carry, used when the core restarts.
func (d *decimator) reset() {
	d.decimationPhase = 0
	if d.filter != nil {
		d.filter.reset()
	}
}

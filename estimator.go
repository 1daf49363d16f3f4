// estimator.go - per-tick pitch estimation: window, FFT, denoise, candidate
// selection and Newton-Raphson refinement
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import "math"

// pitchEstimator runs on the compute thread at calculationRate. It owns the
// windowed snapshot buffers, the FFT plan and the published spectrum; all
// of it is sized once at construction (see newPitchEstimator) and never
// reallocated while the core is running.
type pitchEstimator struct {
	ring *temporalRing

	fftSize      int
	temporalSize int
	oversampling int
	sampleRateHW float64

	windowFFT      []float64
	windowTemporal []float64

	windowedFFT      []float64
	windowedTemporal []float64

	tailBuf []float64
	fullBuf []float64

	plan *fftPlan
	spd  []float64
	spl  []float64

	peakNumber    int
	peakHalfWidth int
	minSNR        float64
	minOverallSNR float64
	maxNRIter     int
	minFreq       float64
	maxFreq       float64

	noiseHalfWidth int
	lowestIdx      int
	highestIdx     int

	prevF float64
}

// newPitchEstimator allocates all per-tick buffers from cfg. The FFT plan
// is bound directly to windowedFFT so computeDFTAndSPD reads the windowed
// snapshot in place.
func newPitchEstimator(ring *temporalRing, cfg *Config) *pitchEstimator {
	internalRate := cfg.SampleRateHW / float64(cfg.Oversampling)
	deltaF := internalRate / float64(cfg.FFTSize)

	e := &pitchEstimator{
		ring:             ring,
		fftSize:          cfg.FFTSize,
		temporalSize:     cfg.TemporalBufferSize,
		oversampling:     cfg.Oversampling,
		sampleRateHW:     cfg.SampleRateHW,
		windowFFT:        makeWindow(cfg.FFTSize, cfg.WindowType),
		windowTemporal:   makeWindow(cfg.TemporalBufferSize, cfg.WindowType),
		windowedFFT:      make([]float64, cfg.FFTSize),
		windowedTemporal: make([]float64, cfg.TemporalBufferSize),
		tailBuf:          make([]float64, cfg.FFTSize),
		fullBuf:          make([]float64, cfg.TemporalBufferSize),
		spd:              make([]float64, cfg.FFTSize/2),
		spl:              make([]float64, cfg.FFTSize/2),
		peakNumber:       cfg.PeakNumber,
		peakHalfWidth:    cfg.PeakHalfWidth,
		minSNR:           cfg.MinSNR,
		minOverallSNR:    cfg.MinOverallSNR,
		maxNRIter:        cfg.MaxNRIter,
		minFreq:          cfg.InternalMinFrequency,
		maxFreq:          cfg.InternalMaxFrequency,
	}
	e.plan = newFFTPlan(e.windowedFFT, cfg.FFTSize)

	// Noise-floor averaging reaches ~150 Hz to each side of a bin, in bins.
	e.noiseHalfWidth = int(150.0 / deltaF)
	if e.noiseHalfWidth < 1 {
		e.noiseHalfWidth = 1
	}
	e.lowestIdx = int(cfg.InternalMinFrequency / deltaF)
	e.highestIdx = int(cfg.InternalMaxFrequency / deltaF)
	if e.highestIdx >= len(e.spd) {
		e.highestIdx = len(e.spd) - 1
	}

	return e
}

// tick executes one compute-thread pass: snapshot, spectrum, denoise,
// candidate selection and two-pass Newton-Raphson refinement. It returns
// the raw fundamental estimate in Hz (0 meaning "no pitch") to be fed to
// the frequency locker.
func (e *pitchEstimator) tick() float64 {
	e.snapshot()
	e.plan.computeDFTAndSPD(e.spd, len(e.spd))
	e.computeSPL()
	e.denoise()

	internalRate := e.sampleRateHW / float64(e.oversampling)
	deltaF := internalRate / float64(e.fftSize)

	fRaw, divisor := selectFundamental(e.spl, e.prevF, len(e.spd), e.peakNumber,
		e.lowestIdx, e.highestIdx, e.peakHalfWidth, deltaF,
		e.minSNR, e.minOverallSNR, e.minFreq)

	if fRaw == 0 {
		e.prevF = 0
		return 0
	}

	omega0 := 2 * math.Pi * fRaw * float64(e.oversampling) / e.sampleRateHW

	omega1, ok := e.newtonRefine(e.windowedFFT, omega0)
	if !ok {
		e.prevF = 0
		return 0
	}

	omega2, ok := e.newtonRefine(e.windowedTemporal, omega1)
	if !ok {
		omega2 = omega1
	}

	f := omega2 * e.sampleRateHW / (float64(divisor) * 2 * math.Pi * float64(e.oversampling))
	if f <= 0 || f < e.minFreq || f > e.maxFreq {
		e.prevF = 0
		return 0
	}

	e.prevF = f
	return f
}

// snapshot copies the windowed FFT and temporal buffers out of the ring
// under its mutex, matching step 1 of the pitch-estimator pass.
func (e *pitchEstimator) snapshot() {
	e.ring.snapshotTail(e.tailBuf)
	for i, v := range e.tailBuf {
		e.windowedFFT[i] = v * e.windowFFT[i]
	}

	e.ring.snapshotFull(e.fullBuf)
	for i, v := range e.fullBuf {
		e.windowedTemporal[i] = v * e.windowTemporal[i]
	}
}

func (e *pitchEstimator) computeSPL() {
	for i, p := range e.spd {
		v := 10 * math.Log10(p)
		if v < -200 || math.IsInf(v, -1) || math.IsNaN(v) {
			v = -200
		}
		e.spl[i] = v
	}
}

func (e *pitchEstimator) denoise() {
	noise := noiseFloor(e.spl, e.noiseHalfWidth)
	for i := range e.spl {
		e.spl[i] -= noise[i]
		if e.spl[i] < 0 {
			e.spl[i] = 0
		}
	}
}

// newtonRefine iterates ω_{k+1} = ω_k - d1/d2 over buf, stopping on
// convergence, non-improvement of d0, or a zero or non-finite second
// derivative.
func (e *pitchEstimator) newtonRefine(buf []float64, omega0 float64) (float64, bool) {
	omega := omega0
	prevD0 := math.Inf(-1)

	for i := 0; i < e.maxNRIter; i++ {
		d0, d1, d2 := spdDiffsEval(buf, omega)
		if d2 == 0 || math.IsNaN(d2) || math.IsInf(d2, 0) {
			return omega, i > 0
		}
		if d0 < prevD0 {
			return 0, false
		}
		prevD0 = d0

		next := omega - d1/d2
		if next <= 0 {
			return omega, true
		}
		if math.Abs(next-omega) <= 1e-4 {
			return next, true
		}
		omega = next
	}
	return omega, true
}

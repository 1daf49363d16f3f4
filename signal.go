// signal.go - windowing, noise-floor estimation, peak picking and
// fundamental candidate selection
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import (
	"math"
	"sort"
)

// WindowType selects the analysis window applied before the FFT.
type WindowType int

const (
	WindowNone WindowType = iota
	WindowHamming
	WindowHanning
)

// makeWindow generates an N-sample window of the given type. WindowNone
// yields all ones (a bypass), so the estimator's window multiply leaves the
// samples unchanged.
func makeWindow(n int, windowType WindowType) []float64 {
	w := make([]float64, n)
	switch windowType {
	case WindowHamming:
		for k := range w {
			w[k] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(k)/float64(n-1))
		}
	case WindowHanning:
		for k := range w {
			w[k] = 0.5 * (1 - math.Cos(2*math.Pi*float64(k)/float64(n-1)))
		}
	default:
		for k := range w {
			w[k] = 1.0
		}
	}
	return w
}

// noiseFloor estimates, for each index i, the local noise floor as the
// average of spl over [i-halfWidth, i+halfWidth], clipped to array bounds.
func noiseFloor(spl []float64, halfWidth int) []float64 {
	n := len(spl)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - halfWidth
		if lo < 0 {
			lo = 0
		}
		hi := i + halfWidth
		if hi >= n {
			hi = n - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += spl[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// peak is a candidate spectral local maximum.
type peak struct {
	index     int
	amplitude float64
}

// pickPeaks selects up to peakNumber local maxima in spl (noise already
// subtracted) where the sample exceeds both neighbours within
// peakHalfWidth, exceeds minSNR, and falls within [lowest, highest]. The
// result is sorted by amplitude descending.
func pickPeaks(spl []float64, lowest, highest, peakHalfWidth, peakNumber int, minSNR float64) []peak {
	var candidates []peak
	if highest >= len(spl) {
		highest = len(spl) - 1
	}
	for i := lowest; i <= highest; i++ {
		if spl[i] < minSNR {
			continue
		}
		isMax := true
		for d := 1; d <= peakHalfWidth && isMax; d++ {
			if i-d >= 0 && spl[i-d] >= spl[i] {
				isMax = false
			}
			if i+d < len(spl) && spl[i+d] >= spl[i] {
				isMax = false
			}
		}
		if isMax {
			candidates = append(candidates, peak{index: i, amplitude: spl[i]})
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].amplitude > candidates[b].amplitude
	})
	if len(candidates) > peakNumber {
		candidates = candidates[:peakNumber]
	}
	return candidates
}

// selectFundamental implements the fundamental candidate selection of
// spec.md 4.3/4.6: among the detected peaks, it picks the candidate p*
// whose index is the smallest such that a harmonic series {p*, 2p*, 3p*,
// ...} explains the remaining strong peaks, biasing toward prevFreqHz to
// keep continuity across ticks. It returns the candidate frequency in Hz
// (0 meaning "no pitch") and the divisor the caller must use to scale the
// Newton-refined angular frequency back to Hz.
func selectFundamental(spl []float64, prevFreqHz float64, spdSize, peakNumber, lowest, highest, peakHalfWidth int, deltaF, minSNR, minOverallSNR, minFreqHz float64) (freqHz float64, divisor int) {
	peaks := pickPeaks(spl, lowest, highest, peakHalfWidth, peakNumber, minSNR)
	if len(peaks) == 0 {
		return 0, 1
	}

	// Bias: boost peaks near the previous tick's fundamental so a stable
	// tone doesn't hop between harmonically-related bins tick to tick.
	if prevFreqHz > 0 {
		prevIdx := prevFreqHz / deltaF
		const biasWindow = 2.0
		const biasBoost = 3.0
		for i := range peaks {
			if math.Abs(float64(peaks[i].index)-prevIdx) <= biasWindow {
				peaks[i].amplitude += biasBoost
			}
		}
		sort.Slice(peaks, func(a, b int) bool { return peaks[a].amplitude > peaks[b].amplitude })
	}

	overallPower := 0.0
	for _, p := range peaks {
		overallPower += p.amplitude
	}
	if overallPower < minOverallSNR {
		return 0, 1
	}

	const tol = 0.08

	byIndex := make([]peak, len(peaks))
	copy(byIndex, peaks)
	sort.Slice(byIndex, func(a, b int) bool { return byIndex[a].index < byIndex[b].index })

	for _, candidate := range byIndex {
		if candidate.index == 0 {
			continue
		}
		unexplained := 0
		for _, other := range peaks {
			if other.index == candidate.index {
				continue
			}
			ratio := float64(other.index) / float64(candidate.index)
			n := math.Round(ratio)
			if n < 1 || math.Abs(ratio-n) > tol {
				unexplained++
			}
		}
		// allow one stray peak's worth of slack; everything else in the
		// peak set must sit on the candidate's harmonic series. Since the
		// candidate already explains the set treating itself as the
		// fundamental (d=1), no further sub-multiple search is needed.
		if unexplained <= 1 {
			return float64(candidate.index) * deltaF, 1
		}
	}

	// Fall back to the strongest peak if no harmonic-consistent candidate
	// was found.
	freq := float64(peaks[0].index) * deltaF
	return freq, 1
}

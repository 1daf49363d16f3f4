package lingot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestChebyshevLowPassAttenuation is property (3) of SPEC_FULL.md 8: an
// order-8, 0.5 dB ripple filter designed for cutoff 0.9/k must attenuate a
// pure tone at 0.95*(sampleRate/(2k)) by at least 40 dB.
func TestChebyshevLowPassAttenuation(t *testing.T) {
	for _, k := range []int{1, 2, 4} {
		filt := chebyshevLowPass(8, 0.5, 0.9/float64(k))

		const sampleRate = 44100.0
		stopFreq := 0.95 * (sampleRate / (2 * float64(k)))

		n := 4096
		x := make([]float64, n)
		for i := range x {
			x[i] = math.Sin(2 * math.Pi * stopFreq * float64(i) / sampleRate)
		}

		y := make([]float64, n)
		filt.filter(x, y)

		// discard the transient
		settle := n / 2
		inRMS := rms(x[settle:])
		outRMS := rms(y[settle:])

		attenuationDB := 20 * math.Log10(inRMS/outRMS)
		assert.GreaterOrEqual(t, attenuationDB, 40.0, "k=%d: only %.1f dB attenuation", k, attenuationDB)
	}
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestIIRFilterResetClearsState(t *testing.T) {
	filt := newIIRFilter([]float64{1, -0.5}, []float64{1})
	filt.filterSample(1.0)
	filt.reset()
	for _, s := range filt.s {
		assert.Zero(t, s)
	}
}

func TestIIRFilterAliasingPermitted(t *testing.T) {
	filt1 := newIIRFilter([]float64{1, -0.3}, []float64{0.5, 0.5})
	filt2 := newIIRFilter([]float64{1, -0.3}, []float64{0.5, 0.5})

	x := []float64{1, 0, 0, 0, 0, 0, 0, 0}
	separate := make([]float64, len(x))
	filt1.filter(x, separate)

	inPlace := append([]float64(nil), x...)
	filt2.filter(inPlace, inPlace)

	assert.Equal(t, separate, inPlace)
}

package lingot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestSPDDiffsEvalMatchesFiniteDifference is property (4) of
// SPEC_FULL.md 8: d1 must agree with a central finite-difference estimate
// of d0's slope for small h.
func TestSPDDiffsEvalMatchesFiniteDifference(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.SampledFrom([]int{32, 64, 128}).Draw(t, "n")
		w := rapid.Float64Range(0.05, 3.0).Draw(t, "w")

		x := make([]float64, n)
		for i := range x {
			x[i] = math.Sin(0.3*float64(i)) + 0.2*math.Cos(0.7*float64(i))
		}

		const h = 1e-5
		_, d1, _ := spdDiffsEval(x, w)
		d0plus, _, _ := spdDiffsEval(x, w+h)
		d0minus, _, _ := spdDiffsEval(x, w-h)

		finiteDiff := (d0plus - d0minus) / (2 * h)
		tol := 1e-2 * math.Max(1, math.Abs(finiteDiff))
		assert.InDelta(t, finiteDiff, d1, tol)
	})
}

func TestFFTRadix2MatchesDirectSum(t *testing.T) {
	n := 64
	in := make([]float64, n)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 5 * float64(i) / float64(n))
	}

	plan := newFFTPlan(in, n)
	spd := make([]float64, n/2)
	plan.computeDFTAndSPD(spd, n/2)

	for k := 0; k < n/2; k++ {
		w := 2 * math.Pi * float64(k) / float64(n)
		var direct [1]float64
		spdEval(in, n, w, 0, direct[:], 1)
		assert.InDelta(t, direct[0], spd[k], 1e-6*math.Max(1, direct[0]))
	}
}

func TestComputeDFTAndSPDPeakAtExpectedBin(t *testing.T) {
	n := 256
	binFreq := 10
	in := make([]float64, n)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * float64(binFreq) * float64(i) / float64(n))
	}

	plan := newFFTPlan(in, n)
	spd := make([]float64, n/2)
	plan.computeDFTAndSPD(spd, n/2)

	maxIdx := 0
	for i, v := range spd {
		if v > spd[maxIdx] {
			maxIdx = i
		}
	}
	assert.Equal(t, binFreq, maxIdx)
}

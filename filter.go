// filter.go - Direct-Form-II IIR filter and Chebyshev-I low-pass design
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import "math"

// iirFilter implements the Direct-Form-II transposed recurrence used for
// the anti-alias low-pass ahead of decimation (see decimator.go). N is
// max(len(a)-1, len(b)-1); coefficients are normalized internally so that
// a[0] == 1.
type iirFilter struct {
	a []float64 // feedback coefficients, a[0]..a[N], normalized
	b []float64 // feedforward coefficients, b[0]..b[N]
	s []float64 // N+1 delay-line state
	n int
}

// newIIRFilter builds a filter from raw (possibly unnormalized) polynomial
// coefficients a (feedback) and b (feedforward). len(a)-1 and len(b)-1 are
// the respective polynomial orders; shorter slices are implicitly
// zero-padded.
func newIIRFilter(a, b []float64) *iirFilter {
	na := len(a) - 1
	nb := len(b) - 1
	n := na
	if nb > n {
		n = nb
	}

	f := &iirFilter{
		a: make([]float64, n+1),
		b: make([]float64, n+1),
		s: make([]float64, n+1),
		n: n,
	}
	copy(f.a, a)
	copy(f.b, b)

	a0 := a[0]
	for i := range f.a {
		f.a[i] /= a0
		f.b[i] /= a0
	}
	return f
}

// reset zeros the filter's delay-line state.
func (f *iirFilter) reset() {
	for i := range f.s {
		f.s[i] = 0
	}
}

// filter runs the Direct-Form-II transposed recurrence over x, writing into
// out. x and out may alias (in-place filtering is permitted).
func (f *iirFilter) filter(x, out []float64) {
	for i, xi := range x {
		w := xi
		y := 0.0
		for j := f.n - 1; j >= 0; j-- {
			w -= f.a[j+1] * f.s[j]
			y += f.b[j+1] * f.s[j]
			f.s[j+1] = f.s[j]
		}
		y += w * f.b[0]
		f.s[0] = w
		out[i] = y
	}
}

// filterSample filters a single sample, delegating to the block form.
func (f *iirFilter) filterSample(x float64) float64 {
	var out [1]float64
	f.filter([]float64{x}, out[:])
	return out[0]
}

// chebyshevLowPass designs an order-n Chebyshev type I low-pass filter with
// pass-band ripple Rp (dB) and normalized cutoff wc in (0, 1) (relative to
// the Nyquist frequency), following the pole placement, bilinear transform
// and biquad expansion of lingot_filter_cheby_design.
func chebyshevLowPass(n int, rp, wc float64) *iirFilter {
	const tSample = 2.0

	// 1. prewarp.
	w := 2.0 / tSample * math.Tan(math.Pi*wc/tSample)

	// 2. place analog poles on the Chebyshev ellipse.
	epsilon := math.Sqrt(math.Pow(10, 0.1*rp) - 1)
	v0 := math.Asinh(1/epsilon) / float64(n)
	sv0 := math.Sinh(v0)
	cv0 := math.Cosh(v0)

	poles := make([]complexNum, n)
	for k := 0; k < n; k++ {
		i := -(n - 1) + 2*k
		t := math.Pi * float64(i) / (2.0 * float64(n))
		poles[k] = complexNum{re: -sv0 * math.Cos(t), im: cv0 * math.Sin(t)}
	}

	gain := complexVectorProduct(poles)
	if n%2 == 0 {
		f := math.Pow(10, -0.05*rp)
		gain.re *= f
		gain.im *= f
	}
	fw := math.Pow(w, float64(n))
	gain.re *= fw
	gain.im *= fw

	// 3. scale poles by the prewarped cutoff.
	for i := range poles {
		poles[i].re *= w
		poles[i].im *= w
	}

	// 4. bilinear transform.
	sp := make([]complexNum, n)
	for i, p := range poles {
		sp[i] = complexNum{re: (2.0 - p.re*tSample) / tSample, im: (0.0 - p.im*tSample) / tSample}
	}
	denomProd := complexVectorProduct(sp)
	gain.divBy(denomProd)

	for i, p := range poles {
		num := complexNum{re: 2.0 + p.re*tSample, im: 0.0 + p.im*tSample}
		den := complexNum{re: 2.0 - p.re*tSample, im: 0.0 - p.im*tSample}
		poles[i] = divComplex(num, den)
	}

	// 5. expand prod(1 - z_k z^-1) into real biquad coefficients.
	a := make([]float64, n+1)
	b := make([]float64, n+1)
	a[0], b[0] = 1, 1

	if n%2 == 1 {
		// first subfilter is first order, the unpaired real pole sits at n/2.
		a[1] = -poles[n/2].re
		b[1] = 1.0
	}

	for p := 0; p < n/2; p++ {
		b1, b2 := 2.0, 1.0
		a1 := -2.0 * poles[p].re
		a2 := poles[p].re*poles[p].re + poles[p].im*poles[p].im

		newA := make([]float64, n+1)
		newB := make([]float64, n+1)
		newA[0], newB[0] = 1, 1
		newA[1] = a[1] + a1*a[0]
		newB[1] = b[1] + b1*b[0]
		for i := 2; i <= n; i++ {
			newA[i] = a[i] + a1*a[i-1] + a2*a[i-2]
			newB[i] = b[i] + b1*b[i-1] + b2*b[i-2]
		}
		copy(a[1:], newA[1:])
		copy(b[1:], newB[1:])
	}

	absGain := math.Abs(gain.re)
	for i := range b {
		b[i] *= absGain
	}

	return newIIRFilter(a, b)
}

// fft.go - real-input FFT plan, SPD computation, and direct spectral evaluation
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import "math"

// fftPlan binds a real input buffer of power-of-two length n and computes
// its spectral power distribution. It mirrors lingot-fft.h's contract: a
// radix-2 FFT for the full-resolution transform, plus closed-form direct
// sums (no FFT) for point evaluation of the SPD and its derivatives at
// arbitrary angular frequencies, used by the Newton-Raphson refinement in
// estimator.go.
type fftPlan struct {
	n       int
	in      []float64
	twiddle []complex128 // precomputed e^{-2*pi*i*k/n}, k in [0, n/2)
	out     []complex128 // complex spectrum of the most recent compute, length n/2
}

// newFFTPlan binds in as the plan's input buffer. n must be a power of two
// and equal to len(in).
func newFFTPlan(in []float64, n int) *fftPlan {
	p := &fftPlan{n: n, in: in}
	p.twiddle = make([]complex128, n/2)
	for k := 0; k < n/2; k++ {
		theta := -2 * math.Pi * float64(k) / float64(n)
		p.twiddle[k] = complex(math.Cos(theta), math.Sin(theta))
	}
	p.out = make([]complex128, n/2)
	return p
}

// computeDFTAndSPD executes the real-to-complex DFT over the plan's bound
// input buffer and writes spdOut[k] = |X[k]|^2 for k in [0, nOut), where
// nOut == n/2. It also retains the complex spectrum of bins [0, n/2) in
// p.out; no caller in this package reads it.
func (p *fftPlan) computeDFTAndSPD(spdOut []float64, nOut int) {
	buf := make([]complex128, p.n)
	for i, v := range p.in {
		buf[i] = complex(v, 0)
	}
	fftRadix2(buf)
	copy(p.out, buf[:p.n/2])
	for k := 0; k < nOut; k++ {
		re := real(p.out[k])
		im := imag(p.out[k])
		spdOut[k] = re*re + im*im
	}
}

// fftRadix2 performs an in-place iterative Cooley-Tukey FFT. len(buf) must
// be a power of two.
func fftRadix2(buf []complex128) {
	n := len(buf)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wlen := complex(math.Cos(angle), math.Sin(angle))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			half := length / 2
			for j := 0; j < half; j++ {
				u := buf[i+j]
				v := buf[i+j+half] * w
				buf[i+j] = u + v
				buf[i+j+half] = u - v
				w *= wlen
			}
		}
	}
}

// spdEval evaluates |X(w)|^2 directly (no FFT) at angular frequencies
// w_i + dw*j for j in [0, N2), over signal in[0:N1]. Used for
// high-resolution local re-sampling around a candidate peak.
func spdEval(in []float64, n1 int, wi, dw float64, out []float64, n2 int) {
	for j := 0; j < n2; j++ {
		w := wi + dw*float64(j)
		var acc complex128
		for n := 0; n < n1; n++ {
			theta := -w * float64(n)
			acc += complex(in[n]*math.Cos(theta), in[n]*math.Sin(theta))
		}
		re, im := real(acc), imag(acc)
		out[j] = re*re + im*im
	}
}

// spdDiffsEval returns d0 = |X(w)|^2 and its first two derivatives with
// respect to w, evaluated in closed form. x(w) = sum(x[n]*e^{-jwn}), so
// dx/dw = -j*sum(n*x[n]*e^{-jwn}) and d2x/dw2 = -sum(n^2*x[n]*e^{-jwn});
// the first derivative carries the -j rotation, the second doesn't since
// (-j)^2 is real. Used by the Newton-Raphson refinement in estimator.go.
func spdDiffsEval(in []float64, w float64) (d0, d1, d2 float64) {
	var x, s1, s2 complex128
	for n, xn := range in {
		if xn == 0 {
			continue
		}
		theta := -w * float64(n)
		e := complex(math.Cos(theta), math.Sin(theta))
		term := complex(xn, 0) * e
		x += term
		s1 += complex(float64(n), 0) * term
		s2 += complex(float64(n*n), 0) * term
	}
	dx := complex(0, -1) * s1
	ddx := -s2

	re, im := real(x), imag(x)
	dre, dim := real(dx), imag(dx)
	ddre, ddim := real(ddx), imag(ddx)

	d0 = re*re + im*im
	d1 = 2 * (re*dre + im*dim)
	d2 = 2 * (dre*dre + im*ddim + re*ddre + dim*dim)
	return d0, d1, d2
}

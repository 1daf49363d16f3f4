// complexnum.go - minimal complex arithmetic for the DSP pipeline
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

// complexNum is a 2-wide (re, im) floating point pair. It exists instead of
// the builtin complex128 because the spectral estimator needs the in-place
// MulBy/DivBy mutating forms and the explicit aliasing contract below; a
// plain complex128 value type cannot express "mutate this operand in place".
type complexNum struct {
	re, im float64
}

// addComplex computes a+b. The result may alias either operand.
func addComplex(a, b complexNum) complexNum {
	return complexNum{a.re + b.re, a.im + b.im}
}

// subComplex computes a-b. The result may alias either operand.
func subComplex(a, b complexNum) complexNum {
	return complexNum{a.re - b.re, a.im - b.im}
}

// mulComplex computes a*b. a and b must be disjoint from the result storage;
// callers assign the return value rather than writing through a pointer.
func mulComplex(a, b complexNum) complexNum {
	return complexNum{
		re: a.re*b.re - a.im*b.im,
		im: a.re*b.im + a.im*b.re,
	}
}

// divComplex computes a/b. Division by zero yields non-finite components;
// callers must guard against a zero divisor before trusting the result.
func divComplex(a, b complexNum) complexNum {
	denom := b.re*b.re + b.im*b.im
	return complexNum{
		re: (a.re*b.re + a.im*b.im) / denom,
		im: (a.im*b.re - a.re*b.im) / denom,
	}
}

// mulBy computes *a *= b in place.
func (a *complexNum) mulBy(b complexNum) {
	*a = mulComplex(*a, b)
}

// divBy computes *a /= b in place.
func (a *complexNum) divBy(b complexNum) {
	*a = divComplex(*a, b)
}

// complexVectorProduct returns prod_{i}(1 - v[i]*z), evaluated at z folded
// into v (i.e. prod_i(-v[i])), matching lingot_filter_vector_product: used
// by the Chebyshev pole-to-gain computation in filter.go.
func complexVectorProduct(v []complexNum) complexNum {
	result := complexNum{re: 1, im: 0}
	for _, vi := range v {
		result.mulBy(complexNum{re: -vi.re, im: -vi.im})
	}
	return result
}

// locker.go - temporal frequency locker state machine
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import "math"

// Locker constants, in units of estimator ticks.
const (
	lockerTol            = 0.05
	lockerMaxDivisor     = 4
	lockerNhitsToLock    = 4
	lockerNhitsToUnlock  = 5
	lockerNhitsToRelock  = 6
	lockerNhitsToRelockU = 8
)

// frequencyLocker debounces the raw per-tick fundamental estimate produced
// by the pitch estimator (C6) into a stable published frequency, resolving
// octave/subharmonic ambiguity via integer-divisor relatedness.
type frequencyLocker struct {
	locked   bool
	currentF float64
	hits     int
	rehits   int
	rehitsUp int
	prevMul  float64
	prevMul2 float64
}

func newFrequencyLocker() *frequencyLocker {
	return &frequencyLocker{}
}

// reset returns the locker to its initial unlocked state, used when the
// core restarts or the audio source reports an interruption.
func (l *frequencyLocker) reset() {
	*l = frequencyLocker{}
}

// related tries divisors d in [1, lockerMaxDivisor] on the smaller of f1, f2
// and reports whether the larger is within lockerTol of an integer multiple
// of the smaller/d, subject to the implied fundamental staying above fMin.
// ok is false if either input is zero or no divisor satisfies the test.
func related(f1, f2, fMin float64) (ok bool, m1, m2 float64) {
	if f1 == 0 || f2 == 0 {
		return false, 0, 0
	}

	small, big := f1, f2
	swapped := false
	if small > big {
		small, big = big, small
		swapped = true
	}

	for d := 1; d <= lockerMaxDivisor; d++ {
		sub := small / float64(d)
		if sub < fMin {
			break
		}
		ratio := big / sub
		n := math.Round(ratio)
		if n < 1 {
			continue
		}
		if math.Abs(ratio-n) < lockerTol {
			mSmall := 1.0 / float64(d)
			mBig := 1.0 / n
			if swapped {
				return true, mBig, mSmall
			}
			return true, mSmall, mBig
		}
	}
	return false, 0, 0
}

// update feeds the raw estimate f (0 meaning "no pitch this tick") through
// the locker state machine and returns the published frequency.
func (l *frequencyLocker) update(f, fMin float64) float64 {
	if !l.locked {
		return l.updateUnlocked(f, fMin)
	}
	return l.updateLocked(f, fMin)
}

func (l *frequencyLocker) updateUnlocked(f, fMin float64) float64 {
	consistent := false
	if f > 0 && l.currentF == 0 {
		consistent = true
	} else {
		ok, m1, m2 := related(f, l.currentF, fMin)
		consistent = ok && math.Abs(m1-1) < 1e-5 && math.Abs(m2-1) < 1e-5
	}

	if consistent {
		l.currentF = f
		l.hits++
		if l.hits >= lockerNhitsToLock {
			l.locked = true
			l.hits = 0
		}
	} else {
		l.hits = 0
		l.currentF = 0
	}
	return 0
}

func (l *frequencyLocker) updateLocked(f, fMin float64) float64 {
	ok, m1, m2 := related(f, l.currentF, fMin)
	var result float64
	failed := false

	switch {
	case ok && math.Abs(m2-1) < 1e-5:
		result = f * m1
		l.currentF = result
		l.rehits = 0

		if math.Abs(m1-1) > 1e-5 && math.Abs(m1-l.prevMul) < 1e-5 {
			l.rehitsUp++
			if l.rehitsUp >= lockerNhitsToRelockU {
				result = f
				l.currentF = f
				l.rehitsUp = 0
			}
		} else {
			l.rehitsUp = 0
		}

	case ok:
		// m2 != 1: candidate relates to the locked fundamental through a
		// divisor other than unity on the locked side.
		l.rehitsUp = 0
		if math.Abs(m2-0.5) < 1e-5 {
			l.hits--
		}
		if math.Abs(m2-l.prevMul2) < 1e-5 {
			l.rehits++
			if l.rehits >= lockerNhitsToRelock && f*m1 >= fMin {
				result = f * m1
				l.currentF = result
				l.rehits = 0
			} else {
				failed = true
			}
		} else {
			failed = true
		}

	default:
		failed = true
	}

	if failed {
		result = l.currentF
		l.hits++
		if l.hits >= lockerNhitsToUnlock {
			l.locked = false
			l.currentF = 0
			l.hits = 0
			result = 0
		}
	} else {
		l.hits = 0
	}

	l.prevMul = m1
	l.prevMul2 = m2
	return result
}

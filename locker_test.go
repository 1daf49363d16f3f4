package lingot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLockerIdempotence is property (5) of SPEC_FULL.md 8: feeding the
// same in-band frequency for at least nhitsToLock ticks yields that
// frequency thereafter.
func TestLockerIdempotence(t *testing.T) {
	l := newFrequencyLocker()
	const f = 220.0
	const fMin = 50.0

	var last float64
	for i := 0; i < lockerNhitsToLock+20; i++ {
		last = l.update(f, fMin)
	}
	assert.InDelta(t, f, last, 1e-9)
	assert.True(t, l.locked)
}

func TestLockerStaysUnlockedBelowThreshold(t *testing.T) {
	l := newFrequencyLocker()
	for i := 0; i < lockerNhitsToLock-1; i++ {
		out := l.update(220, 50)
		assert.Zero(t, out)
	}
	assert.False(t, l.locked)
}

func TestLockerUnlocksAfterMisses(t *testing.T) {
	l := newFrequencyLocker()
	for i := 0; i < lockerNhitsToLock; i++ {
		l.update(220, 50)
	}
	assert.True(t, l.locked)

	var out float64
	for i := 0; i < lockerNhitsToUnlock; i++ {
		out = l.update(0, 50)
	}
	assert.Zero(t, out)
	assert.False(t, l.locked)
}

// TestLockerResolvesSecondHarmonic grounds S6: once locked onto 440 Hz, a
// sustained reading at its second harmonic (880 Hz) should not cause the
// locker to adopt 880 as the published frequency within nhits_to_relock
// ticks (ambiguity goes to the lower, previously-locked root absent a
// sustained octave-up signal).
func TestLockerResolvesSecondHarmonic(t *testing.T) {
	l := newFrequencyLocker()
	for i := 0; i < lockerNhitsToLock; i++ {
		l.update(440, 50)
	}
	assert.True(t, l.locked)

	var out float64
	for i := 0; i < lockerNhitsToRelock+2; i++ {
		out = l.update(880, 50)
	}
	assert.InDelta(t, 440, out, 1.0)
}

func TestRelatedRejectsZero(t *testing.T) {
	ok, m1, m2 := related(0, 220, 50)
	assert.False(t, ok)
	assert.Zero(t, m1)
	assert.Zero(t, m2)
}

func TestRelatedDetectsOctave(t *testing.T) {
	// f1=440 is the 2nd harmonic of the common fundamental 220; f2=220 is
	// the fundamental itself, so m1 halves f1 back to 220 and m2 leaves
	// f2 unchanged.
	ok, m1, m2 := related(440, 220, 50)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, m1, 1e-6)
	assert.InDelta(t, 1.0, m2, 1e-6)
}

func TestRelatedUnrelatedFrequencies(t *testing.T) {
	ok, _, _ := related(440, 301, 50)
	assert.False(t, ok)
}

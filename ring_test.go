package lingot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestRingLengthConstant is property (1) of SPEC_FULL.md 8: the ring's
// length never changes across shiftAppend calls.
func TestRingLengthConstant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(4, 256).Draw(t, "n")
		r := newTemporalRing(n)

		for i := 0; i < 10; i++ {
			k := rapid.IntRange(0, n*2).Draw(t, "k")
			samples := make([]float64, k)
			for j := range samples {
				samples[j] = float64(j)
			}
			r.shiftAppend(samples)
			assert.Equal(t, n, r.len())
		}
	})
}

func TestRingShiftAppendOrdering(t *testing.T) {
	r := newTemporalRing(4)
	r.shiftAppend([]float64{1, 2, 3, 4})
	r.shiftAppend([]float64{5, 6})

	out := make([]float64, 4)
	r.snapshotFull(out)
	assert.Equal(t, []float64{3, 4, 5, 6}, out)
}

func TestRingSnapshotTail(t *testing.T) {
	r := newTemporalRing(6)
	r.shiftAppend([]float64{1, 2, 3, 4, 5, 6})

	tail := make([]float64, 3)
	r.snapshotTail(tail)
	assert.Equal(t, []float64{4, 5, 6}, tail)
}

func TestRingShiftAppendLargerThanCapacity(t *testing.T) {
	r := newTemporalRing(3)
	r.shiftAppend([]float64{1, 2, 3, 4, 5})

	out := make([]float64, 3)
	r.snapshotFull(out)
	assert.Equal(t, []float64{3, 4, 5}, out)
}

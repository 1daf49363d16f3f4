package lingot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyntheticSourceDeliversBuffers(t *testing.T) {
	src := NewSyntheticSineSource(440, 0.5)
	rate, bufSize, err := src.Open("default", 44100)
	assert.NoError(t, err)
	assert.Equal(t, 44100, rate)
	assert.Greater(t, bufSize, 0)

	var received []float32
	src.SetCallback(func(samples []float32) {
		received = append(received, samples...)
	})

	src.GenerateBuffer()
	assert.Len(t, received, bufSize)
}

func TestSyntheticSilenceSourceProducesZeros(t *testing.T) {
	src := NewSyntheticSilenceSource()
	_, _, err := src.Open("default", 44100)
	assert.NoError(t, err)

	var received []float32
	src.SetCallback(func(samples []float32) { received = samples })
	src.GenerateBuffer()

	for _, v := range received {
		assert.Zero(t, v)
	}
}

func TestSyntheticSourceNoopLifecycle(t *testing.T) {
	src := NewSyntheticSineSource(100, 1)
	assert.NoError(t, src.Start())
	assert.NoError(t, src.Stop())
	assert.NoError(t, src.Close())
	assert.NotNil(t, src.ShutdownEvents())
}

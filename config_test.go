package lingot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConfigDefaultsOnEmptyInput(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader(""), nil)
	assert.NoError(t, err)
	assert.Equal(t, 1024, cfg.FFTSize)
	assert.Equal(t, WindowHamming, cfg.WindowType)
}

func TestParseConfigReadsScalarKeys(t *testing.T) {
	input := `
# a comment
AUDIO_SYSTEM = oss
AUDIO_DEV.oss = /dev/dsp1
FFT_SIZE = 2048
CALCULATION_RATE = 20
MINIMUM_FREQUENCY = 80
MAXIMUM_FREQUENCY = 1000
`
	cfg, err := parseConfig(strings.NewReader(input), nil)
	assert.NoError(t, err)
	assert.Equal(t, "oss", cfg.AudioSystem)
	assert.Equal(t, "/dev/dsp1", cfg.AudioDev["oss"])
	assert.Equal(t, 2048, cfg.FFTSize)
	assert.Equal(t, 20.0, cfg.CalculationRate)
	assert.Equal(t, 80.0, cfg.MinimumFrequency)
	assert.Equal(t, 1000.0, cfg.MaximumFrequency)
	assert.Equal(t, 80.0, cfg.InternalMinFrequency)
}

func TestParseConfigRejectsInvalidFFTSize(t *testing.T) {
	mq := newMessageQueue(8, nil)
	input := "FFT_SIZE = 999\n"
	cfg, err := parseConfig(strings.NewReader(input), mq)
	assert.NoError(t, err)
	assert.Equal(t, 1024, cfg.FFTSize) // default retained
	assert.NotEmpty(t, mq.drain())
}

func TestParseConfigParsesScaleBlock(t *testing.T) {
	input := `
SCALE = {
  NAME = mine
  BASE_FREQUENCY = 432
  NOTE_COUNT = 2
  NOTES = {
    A 0
    B 200
  }
}
`
	cfg, err := parseConfig(strings.NewReader(input), nil)
	assert.NoError(t, err)
	assert.Equal(t, "mine", cfg.Scale.Name)
	assert.Equal(t, 432.0, cfg.Scale.BaseFrequency)
	assert.Len(t, cfg.Scale.Notes, 2)
}

func TestParseConfigFallsBackToEqualTemperedOnBadScale(t *testing.T) {
	mq := newMessageQueue(8, nil)
	input := `
SCALE = {
  NAME = bad
  BASE_FREQUENCY = 440
  NOTE_COUNT = 2
  NOTES = {
    A 10
    B 20
  }
}
`
	cfg, err := parseConfig(strings.NewReader(input), mq)
	assert.NoError(t, err)
	assert.Equal(t, "12-TET", cfg.Scale.Name)
	assert.NotEmpty(t, mq.drain())
}

func TestConfigRoundTripSaveLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFTSize = 2048
	cfg.TemporalBufferSize = 4096
	cfg.MinimumFrequency = 70
	cfg.MaximumFrequency = 1200

	var buf strings.Builder
	assert.NoError(t, writeConfig(&buf, cfg))

	reloaded, err := parseConfig(strings.NewReader(buf.String()), nil)
	assert.NoError(t, err)

	assert.Equal(t, cfg.FFTSize, reloaded.FFTSize)
	assert.Equal(t, cfg.TemporalBufferSize, reloaded.TemporalBufferSize)
	assert.Equal(t, cfg.MinimumFrequency, reloaded.MinimumFrequency)
	assert.Equal(t, cfg.MaximumFrequency, reloaded.MaximumFrequency)
	assert.Equal(t, cfg.Scale.Name, reloaded.Scale.Name)
	assert.Equal(t, len(cfg.Scale.Notes), len(reloaded.Scale.Notes))
}

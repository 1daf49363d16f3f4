// config.go - config file parsing, validation and round-trip serialization
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config is the immutable snapshot handed to the core at construction
// (SPEC_FULL.md 3). DeriveInternalBounds must be called whenever the user
// changes MinimumFrequency/MaximumFrequency so InternalMinFrequency (the
// locker's fMin) and InternalMaxFrequency follow them.
type Config struct {
	AudioSystem string
	AudioDev    map[string]string

	SampleRateHW float64
	Oversampling int

	FFTSize            int
	TemporalBufferSize int
	WindowType         WindowType
	CalculationRate    float64
	VisualizationRate  float64

	MinimumFrequency     float64
	MaximumFrequency     float64
	InternalMinFrequency float64
	InternalMaxFrequency float64

	PeakNumber    int
	PeakHalfWidth int
	MinSNR        float64
	MinOverallSNR float64
	MaxNRIter     int

	RootFrequencyError float64

	Scale Scale
}

// DefaultConfig returns the factory configuration: A440 equal temperament,
// 44.1 kHz capture, no oversampling, 1024-point Hamming-windowed FFT.
func DefaultConfig() *Config {
	cfg := &Config{
		AudioSystem:          "oss",
		AudioDev:             map[string]string{"oss": "/dev/dsp"},
		SampleRateHW:         44100,
		Oversampling:         1,
		FFTSize:              1024,
		TemporalBufferSize:   2048,
		WindowType:           WindowHamming,
		CalculationRate:      15,
		VisualizationRate:    30,
		MinimumFrequency:     65,
		MaximumFrequency:     1500,
		PeakNumber:           5,
		PeakHalfWidth:        2,
		MinSNR:               15,
		MinOverallSNR:        10,
		MaxNRIter:            20,
		RootFrequencyError:   0,
		Scale:                EqualTempered(440),
	}
	cfg.DeriveInternalBounds()
	return cfg
}

// DeriveInternalBounds re-derives InternalMinFrequency/InternalMaxFrequency
// from MinimumFrequency/MaximumFrequency. The bounds stay in Hz, so they do
// not depend on Oversampling; the conversion to peak-picking bin indices,
// which does, happens in newPitchEstimator. New and ChangeConfig both call
// this.
func (c *Config) DeriveInternalBounds() {
	c.InternalMinFrequency = c.MinimumFrequency
	c.InternalMaxFrequency = c.MaximumFrequency
}

// InternalSampleRate returns SampleRateHW/Oversampling, the rate at which
// decimated samples arrive in the temporal ring.
func (c *Config) InternalSampleRate() float64 {
	return c.SampleRateHW / float64(c.Oversampling)
}

// LoadConfig reads and validates a config file in the format described by
// SPEC_FULL.md 4.11. Out-of-range or malformed values are reported as
// warnings on warnings and replaced with the DefaultConfig value; a
// malformed SCALE block substitutes EqualTempered(440) and reports a
// ScaleError.
func LoadConfig(path string, warnings *messageQueue) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	defer f.Close()
	return parseConfig(f, warnings)
}

func parseConfig(r io.Reader, warnings *messageQueue) (*Config, error) {
	cfg := DefaultConfig()
	scanner := bufio.NewScanner(r)

	var scaleLines []string
	var scaleName string
	var scaleBase float64
	inScale := false
	inNotes := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		switch {
		case line == "}":
			if inNotes {
				inNotes = false
			} else if inScale {
				inScale = false
			}
			continue
		case strings.HasPrefix(line, "NOTES") && strings.Contains(line, "{"):
			inNotes = true
			continue
		case strings.HasPrefix(line, "SCALE") && strings.Contains(line, "{"):
			inScale = true
			continue
		}

		if inNotes {
			scaleLines = append(scaleLines, line)
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "{" {
			continue
		}

		if inScale {
			switch key {
			case "NAME":
				scaleName = value
			case "BASE_FREQUENCY":
				scaleBase = mustFloat(value, warnings, key, scaleBase)
			case "NOTE_COUNT":
				// informational only; ParseScale derives the count from
				// the NOTES block itself.
			}
			continue
		}

		applyConfigKey(cfg, key, value, warnings)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	if len(scaleLines) > 0 {
		scale, err := ParseScale(scaleName, scaleBase, scaleLines)
		if err != nil {
			if warnings != nil {
				warnings.warn(err)
			}
			cfg.Scale = EqualTempered(440)
		} else {
			cfg.Scale = scale
		}
	}

	cfg.DeriveInternalBounds()
	return cfg, nil
}

func applyConfigKey(cfg *Config, key, value string, warnings *messageQueue) {
	switch {
	case key == "AUDIO_SYSTEM":
		cfg.AudioSystem = value
	case strings.HasPrefix(key, "AUDIO_DEV."):
		backend := strings.TrimPrefix(key, "AUDIO_DEV.")
		if cfg.AudioDev == nil {
			cfg.AudioDev = map[string]string{}
		}
		cfg.AudioDev[backend] = value
	case key == "MIN_SNR":
		cfg.MinSNR = mustFloat(value, warnings, key, cfg.MinSNR)
	case key == "ROOT_FREQUENCY_ERROR":
		cfg.RootFrequencyError = mustFloat(value, warnings, key, cfg.RootFrequencyError)
	case key == "FFT_SIZE":
		n := mustInt(value, warnings, key)
		if isValidFFTSize(n) {
			cfg.FFTSize = n
		} else if warnings != nil {
			warnings.warn(&ConfigError{Key: key, Reason: fmt.Sprintf("invalid FFT size %d, using %d", n, cfg.FFTSize)})
		}
	case key == "TEMPORAL_WINDOW":
		n := mustInt(value, warnings, key)
		if n >= cfg.FFTSize {
			cfg.TemporalBufferSize = n
		} else if warnings != nil {
			warnings.warn(&ConfigError{Key: key, Reason: "must be >= FFT_SIZE"})
		}
	case key == "CALCULATION_RATE":
		v := mustFloat(value, warnings, key, cfg.CalculationRate)
		if v >= 1 && v <= 30 {
			cfg.CalculationRate = v
		} else if warnings != nil {
			warnings.warn(&ConfigError{Key: key, Reason: "out of [1, 30] range"})
		}
	case key == "VISUALIZATION_RATE":
		cfg.VisualizationRate = mustFloat(value, warnings, key, cfg.VisualizationRate)
	case key == "MINIMUM_FREQUENCY":
		cfg.MinimumFrequency = mustFloat(value, warnings, key, cfg.MinimumFrequency)
	case key == "MAXIMUM_FREQUENCY":
		cfg.MaximumFrequency = mustFloat(value, warnings, key, cfg.MaximumFrequency)
	}
}

func isValidFFTSize(n int) bool {
	switch n {
	case 256, 512, 1024, 2048, 4096:
		return true
	default:
		return false
	}
}

func mustFloat(s string, warnings *messageQueue, key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if warnings != nil {
			warnings.warn(&ConfigError{Key: key, Reason: "not a number: " + s})
		}
		return fallback
	}
	return v
}

func mustInt(s string, warnings *messageQueue, key string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		if warnings != nil {
			warnings.warn(&ConfigError{Key: key, Reason: "not an integer: " + s})
		}
		return 0
	}
	return v
}

// SaveConfig writes cfg back out in the same KEY = VALUE format accepted
// by LoadConfig. Save then Load restores every field that has a key here;
// Oversampling, WindowType, PeakNumber, PeakHalfWidth, MinOverallSNR,
// MaxNRIter and SampleRateHW have no key, are not written, and come back
// at their DefaultConfig values.
func SaveConfig(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	defer f.Close()
	return writeConfig(f, cfg)
}

func writeConfig(w io.Writer, cfg *Config) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "AUDIO_SYSTEM = %s\n", cfg.AudioSystem)
	for backend, dev := range cfg.AudioDev {
		fmt.Fprintf(bw, "AUDIO_DEV.%s = %s\n", backend, dev)
	}
	fmt.Fprintf(bw, "MIN_SNR = %g\n", cfg.MinSNR)
	fmt.Fprintf(bw, "ROOT_FREQUENCY_ERROR = %g\n", cfg.RootFrequencyError)
	fmt.Fprintf(bw, "FFT_SIZE = %d\n", cfg.FFTSize)
	fmt.Fprintf(bw, "TEMPORAL_WINDOW = %d\n", cfg.TemporalBufferSize)
	fmt.Fprintf(bw, "CALCULATION_RATE = %g\n", cfg.CalculationRate)
	fmt.Fprintf(bw, "VISUALIZATION_RATE = %g\n", cfg.VisualizationRate)
	fmt.Fprintf(bw, "MINIMUM_FREQUENCY = %g\n", cfg.MinimumFrequency)
	fmt.Fprintf(bw, "MAXIMUM_FREQUENCY = %g\n", cfg.MaximumFrequency)
	bw.WriteString(cfg.Scale.String())
	return bw.Flush()
}

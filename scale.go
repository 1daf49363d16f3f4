// scale.go - musical scale representation and note arithmetic
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Note is one entry of a Scale: a name and its offset from the scale's
// base frequency, expressed in cents.
type Note struct {
	Name  string
	Cents float64
}

// Scale is an ordered, monotonically increasing set of Notes anchored at
// BaseFrequency. It belongs to the Consumer, not the core (SPEC_FULL.md
// 4.10): the core only ever reports raw Hz.
type Scale struct {
	Name          string
	BaseFrequency float64
	Notes         []Note
}

// EqualTempered returns the standard 12-tone equal-tempered scale anchored
// at baseFrequency (conventionally A4 = 440 Hz), used as the ScaleError
// fallback.
func EqualTempered(baseFrequency float64) Scale {
	names := []string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}
	notes := make([]Note, len(names))
	for i, name := range names {
		notes[i] = Note{Name: name, Cents: float64(i) * 100}
	}
	return Scale{Name: "12-TET", BaseFrequency: baseFrequency, Notes: notes}
}

// ParseScale parses the body of a SCALE block already split into lines of
// "name shift" pairs (shift is "<cents>" or "<num>/<den>"), returning a
// ScaleError if the notes are not monotonically increasing or the first
// note is not at 0 cents.
func ParseScale(name string, baseFrequency float64, lines []string) (Scale, error) {
	notes := make([]Note, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return Scale{}, &ScaleError{Reason: fmt.Sprintf("malformed note line %q", line)}
		}
		cents, err := parseShift(fields[1])
		if err != nil {
			return Scale{}, &ScaleError{Reason: fmt.Sprintf("note %q: %v", fields[0], err)}
		}
		notes = append(notes, Note{Name: fields[0], Cents: cents})
	}

	if len(notes) == 0 {
		return Scale{}, &ScaleError{Reason: "empty scale"}
	}
	if notes[0].Cents != 0 {
		return Scale{}, &ScaleError{Reason: "first note must be at 0 cents"}
	}
	for i := 1; i < len(notes); i++ {
		if notes[i].Cents <= notes[i-1].Cents {
			return Scale{}, &ScaleError{Reason: "notes must be strictly increasing"}
		}
	}

	return Scale{Name: name, BaseFrequency: baseFrequency, Notes: notes}, nil
}

// parseShift parses either a bare cents value or a "num/den" frequency
// ratio, converting the latter to cents via 1200*log2(num/den).
func parseShift(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("invalid ratio denominator %q", den)
		}
		return 1200 * math.Log2(n/d), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Nearest returns the note of s closest to freqHz, together with the
// signed deviation in cents (positive = freqHz is sharp of the note).
func (s Scale) Nearest(freqHz float64) (note Note, octave int, cents float64) {
	if freqHz <= 0 || len(s.Notes) == 0 {
		return Note{}, 0, 0
	}

	totalCents := 1200 * math.Log2(freqHz/s.BaseFrequency)

	octaveSize := 1200.0
	oct := math.Floor(totalCents / octaveSize)
	withinOctave := totalCents - oct*octaveSize

	bestIdx := 0
	bestDist := math.Inf(1)
	for i, n := range s.Notes {
		dist := math.Abs(withinOctave - n.Cents)
		// also consider wraparound to the next octave's first note.
		wrapDist := math.Abs(withinOctave - (n.Cents + octaveSize))
		if wrapDist < dist {
			dist = wrapDist
		}
		if dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
	}

	deviation := withinOctave - s.Notes[bestIdx].Cents
	if deviation > octaveSize/2 {
		deviation -= octaveSize
		oct++
	} else if deviation < -octaveSize/2 {
		deviation += octaveSize
		oct--
	}

	return s.Notes[bestIdx], int(oct), deviation
}

// String renders the scale back into the SCALE block body format accepted
// by ParseScale, used by the Config round-trip (save/load identity).
func (s Scale) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SCALE = {\n")
	fmt.Fprintf(&b, "  NAME = %s\n", s.Name)
	fmt.Fprintf(&b, "  BASE_FREQUENCY = %g\n", s.BaseFrequency)
	fmt.Fprintf(&b, "  NOTE_COUNT = %d\n", len(s.Notes))
	fmt.Fprintf(&b, "  NOTES = {\n")
	for _, n := range s.Notes {
		fmt.Fprintf(&b, "    %s %g\n", n.Name, n.Cents)
	}
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")
	return b.String()
}

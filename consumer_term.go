// consumer_term.go - terminal gauge consumer
//
// (c) 2026 the lingot-go authors
// License: GPLv3 or later

package lingot

import (
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/term"
)

// TermConsumer polls Core at VisualizationRate and renders a text gauge:
// the nearest note, its octave, and a bar showing the cents deviation.
// It is a Consumer in the sense of spec.md 6 (a read-only poller of
// Core's published state), scoped here to a terminal instead of a GUI.
type TermConsumer struct {
	core  *Core
	scale Scale
	out   io.Writer
	width int
}

// NewTermConsumer builds a consumer writing to out, sizing its gauge to
// the terminal width when out is a *os.File backed by a tty, or falling
// back to 80 columns otherwise.
func NewTermConsumer(core *Core, scale Scale, out io.Writer) *TermConsumer {
	width := 80
	if f, ok := out.(interface{ Fd() uintptr }); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = w
		}
	}
	return &TermConsumer{core: core, scale: scale, out: out, width: width}
}

// Run polls Core every interval until stop is closed, writing one gauge
// line per tick.
func (tc *TermConsumer) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tc.renderOnce()
		}
	}
}

func (tc *TermConsumer) renderOnce() {
	if !tc.core.IsRunning() {
		fmt.Fprintln(tc.out, "stopped")
		return
	}

	f := tc.core.LatestFrequency()
	if f == 0 {
		fmt.Fprintln(tc.out, "-- no pitch --")
		return
	}

	note, octave, cents := tc.scale.Nearest(f)
	barWidth := tc.width - 24
	if barWidth < 10 {
		barWidth = 10
	}
	center := barWidth / 2
	offset := int(math.Round(cents / 50 * float64(center)))
	if offset > center {
		offset = center
	}
	if offset < -center {
		offset = -center
	}

	bar := make([]byte, barWidth)
	for i := range bar {
		bar[i] = '-'
	}
	bar[center] = '|'
	pos := center + offset
	if pos >= 0 && pos < barWidth {
		bar[pos] = 'o'
	}

	fmt.Fprintf(tc.out, "%6.2f Hz  %-3s%d  %+6.1fc  [%s]\n", f, note.Name, octave, cents, string(bar))
}

// Package analysis measures a render while it is written: level statistics
// over the whole output, the decay of its envelope, and the spectrum of the
// opening frames against the frequency of the played note.
package analysis

import (
	"math"

	dsptime "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/cwbudde/dssi-render/host"
)

// SpectrumFrames is the number of opening frames kept for the spectrum.
const SpectrumFrames = 8192

// Tap is a host.FrameWriter that forwards every block to an inner writer
// and analyzes the frames the inner writer accepted.
type Tap struct {
	w          host.FrameWriter
	sampleRate int
	channels   int

	stats      *dsptime.StreamingStats
	mono       []float64
	head       []float64
	samplePeak float64
	frames     int

	// RMS envelope in hops of hop frames, fed to the decay fit.
	hop      int
	hopSum   float64
	hopCount int
	decay    *decayFit
}

func NewTap(w host.FrameWriter, sampleRate, channels int) *Tap {
	hop := max(1, sampleRate/100)
	return &Tap{
		w:          w,
		sampleRate: sampleRate,
		channels:   channels,
		stats:      dsptime.NewStreamingStats(),
		head:       make([]float64, 0, SpectrumFrames),
		hop:        hop,
		decay:      newDecayFit(float64(hop) / float64(sampleRate)),
	}
}

// WriteFrames forwards interleaved to the inner writer. A count the inner
// writer reports beyond the block is clamped to the block.
func (t *Tap) WriteFrames(interleaved []float32) (int, error) {
	n, err := t.w.WriteFrames(interleaved)
	n = min(n, len(interleaved)/t.channels)
	if n > 0 {
		t.observe(interleaved[:n*t.channels])
	}
	return n, err
}

func (t *Tap) Close() error { return t.w.Close() }

// Frames returns the number of frames analyzed so far.
func (t *Tap) Frames() int { return t.frames }

func (t *Tap) observe(interleaved []float32) {
	frames := len(interleaved) / t.channels
	if cap(t.mono) < frames {
		t.mono = make([]float64, frames)
	}
	mono := t.mono[:frames]
	scale := 1 / float64(t.channels)
	for i := range frames {
		var sum float64
		for _, s := range interleaved[i*t.channels : (i+1)*t.channels] {
			v := float64(s)
			sum += v
			t.samplePeak = math.Max(t.samplePeak, math.Abs(v))
		}
		mono[i] = sum * scale
	}
	t.stats.Update(mono)

	if room := SpectrumFrames - len(t.head); room > 0 {
		t.head = append(t.head, mono[:min(room, frames)]...)
	}

	for _, v := range mono {
		t.hopSum += v * v
		t.hopCount++
		if t.hopCount == t.hop {
			t.decay.add(math.Sqrt(t.hopSum / float64(t.hop)))
			t.hopSum, t.hopCount = 0, 0
		}
	}
	t.frames += frames
}

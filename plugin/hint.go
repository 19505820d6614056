package plugin

import (
	"math"
	"math/rand/v2"
)

// HintDescriptor holds the LADSPA range hint flags.
type HintDescriptor int

const (
	HintBoundedBelow HintDescriptor = 0x1
	HintBoundedAbove HintDescriptor = 0x2
	HintToggled      HintDescriptor = 0x4
	HintSampleRate   HintDescriptor = 0x8
	HintLogarithmic  HintDescriptor = 0x10
	HintInteger      HintDescriptor = 0x20

	HintDefaultMask    HintDescriptor = 0x3C0
	HintDefaultNone    HintDescriptor = 0x0
	HintDefaultMinimum HintDescriptor = 0x40
	HintDefaultLow     HintDescriptor = 0x80
	HintDefaultMiddle  HintDescriptor = 0xC0
	HintDefaultHigh    HintDescriptor = 0x100
	HintDefaultMaximum HintDescriptor = 0x140
	HintDefault0       HintDescriptor = 0x200
	HintDefault1       HintDescriptor = 0x240
	HintDefault100     HintDescriptor = 0x280
	HintDefault440     HintDescriptor = 0x2C0
)

func (h HintDescriptor) BoundedBelow() bool { return h&HintBoundedBelow != 0 }
func (h HintDescriptor) BoundedAbove() bool { return h&HintBoundedAbove != 0 }
func (h HintDescriptor) Logarithmic() bool  { return h&HintLogarithmic != 0 }
func (h HintDescriptor) SampleRate() bool   { return h&HintSampleRate != 0 }

// Default returns the default-value hint, one of the HintDefault constants.
func (h HintDescriptor) Default() HintDescriptor { return h & HintDefaultMask }

// RangeHint is the declared value range of a control port.
type RangeHint struct {
	Descriptor HintDescriptor
	Lower      float32
	Upper      float32
}

// Bounds returns the declared bounds, multiplied by sampleRate when the
// port is sample-rate relative.
func (h RangeHint) Bounds(sampleRate float32) (lower, upper float32) {
	lower, upper = h.Lower, h.Upper
	if h.Descriptor.SampleRate() {
		lower *= sampleRate
		upper *= sampleRate
	}
	return lower, upper
}

// InBounds reports whether v satisfies every declared bound. NaN never does.
func (h RangeHint) InBounds(v, sampleRate float32) bool {
	if math.IsNaN(float64(v)) {
		return false
	}
	lower, upper := h.Bounds(sampleRate)
	if h.Descriptor.BoundedBelow() && v < lower {
		return false
	}
	if h.Descriptor.BoundedAbove() && v > upper {
		return false
	}
	return true
}

// Default guesses a sensible initial value from the hint.
//
// Explicit constant hints win over bounded minimum/maximum, which win over
// the weighted low/middle/high points; anything else is 0. Without a
// default hint the value is 0 when the range is open or spans 0, and the
// lower bound otherwise.
func (h RangeHint) Default(sampleRate float32) float32 {
	d := h.Descriptor
	lower, upper := h.Bounds(sampleRate)

	if d.Default() == HintDefaultNone {
		if !d.BoundedBelow() || !d.BoundedAbove() {
			return 0
		}
		if lower <= 0 && upper >= 0 {
			return 0
		}
		return lower
	}

	switch d.Default() {
	case HintDefault0:
		return 0
	case HintDefault1:
		return 1
	case HintDefault100:
		return 100
	case HintDefault440:
		return 440
	}

	if d.BoundedBelow() && d.Default() == HintDefaultMinimum {
		return lower
	}
	if !d.BoundedAbove() {
		return 0
	}
	if d.Default() == HintDefaultMaximum {
		return upper
	}
	if !d.BoundedBelow() {
		return 0
	}

	var lw, uw float64
	switch d.Default() {
	case HintDefaultLow:
		lw, uw = 0.75, 0.25
	case HintDefaultMiddle:
		lw, uw = 0.5, 0.5
	case HintDefaultHigh:
		lw, uw = 0.25, 0.75
	default:
		return 0
	}
	if d.Logarithmic() && lower > 0 && upper > 0 {
		return float32(math.Exp(math.Log(float64(lower))*lw + math.Log(float64(upper))*uw))
	}
	return float32(float64(lower)*lw + float64(upper)*uw)
}

// Random draws a uniform value within the bounds. Ports that are not
// bounded on both sides get their default.
func (h RangeHint) Random(r *rand.Rand, sampleRate float32) float32 {
	if !h.Descriptor.BoundedBelow() || !h.Descriptor.BoundedAbove() {
		return h.Default(sampleRate)
	}
	lower, upper := h.Bounds(sampleRate)
	x := r.Float32()
	return lower + x*(upper-lower)
}

package host

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/dssi-render/plugin"
)

// State is the position of a render relative to the note.
type State int

const (
	NotStarted State = iota
	Sustaining
	Releasing
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Sustaining:
		return "sustaining"
	case Releasing:
		return "releasing"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// FrameWriter receives interleaved blocks.
type FrameWriter interface {
	// WriteFrames writes one interleaved block and returns the number of
	// frames accepted.
	WriteFrames(interleaved []float32) (int, error)
	Close() error
}

// Interleave writes frames frames of outs into dst using channels channels.
// Channel j takes port j; channels beyond the available ports repeat the
// last port. Ports beyond channels are ignored.
func Interleave(dst []float32, outs [][]float32, channels, frames int) {
	k := len(outs)
	direct := min(k, channels)
	last := outs[k-1]
	for i := 0; i < frames; i++ {
		row := dst[i*channels : (i+1)*channels]
		for j := 0; j < direct; j++ {
			row[j] = outs[j][i]
		}
		for j := k; j < channels; j++ {
			row[j] = last[i]
		}
	}
}

// IsSilent reports whether the absolute sum of samples is below
// SilenceThreshold.
func IsSilent(samples []float32) bool {
	var sum float64
	for _, s := range samples {
		sum += math.Abs(float64(s))
	}
	return sum < SilenceThreshold
}

// Validator checks rendered samples. In strict mode any non-finite or
// out-of-[-1,1] sample is an error; with Clip set they are clamped and each
// violation class is reported once.
type Validator struct {
	Clip   bool
	Logger *slog.Logger

	warnedNonFinite bool
	warnedRange     bool
}

func (v *Validator) logger() *slog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return slog.Default()
}

// Check validates samples in place.
func (v *Validator) Check(samples []float32) error {
	for i, s := range samples {
		f := float64(s)
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			if !v.Clip {
				return fmt.Errorf("%w at sample %d", ErrNonFiniteSample, i)
			}
			if !v.warnedNonFinite {
				v.warnedNonFinite = true
				v.logger().Warn("clipping NaN or Inf in synthesized data")
			}
			if s < 0 {
				samples[i] = -1
			} else {
				samples[i] = 1
			}
		case s < -1 || s > 1:
			if !v.Clip {
				return fmt.Errorf("%w: %g at sample %d", ErrSampleOutOfBounds, s, i)
			}
			if !v.warnedRange {
				v.warnedRange = true
				v.logger().Warn("clipping out-of-bounds value in synthesized data")
			}
			if s < 0 {
				samples[i] = -1
			} else {
				samples[i] = 1
			}
		}
	}
	return nil
}

// renderer drives the block loop of one activated instance.
type renderer struct {
	inst      plugin.Instance
	outs      [][]float32
	w         FrameWriter
	notes     plugin.NotePair
	validator *Validator
	logger    *slog.Logger

	blockSize   int
	channels    int
	length      int
	releaseTail int // < 0: until silence
	maxFrames   int

	out       []float32
	state     State
	total     int
	blocks    int
	truncated bool
}

// events returns the events for the next block and advances the state.
func (r *renderer) events() []plugin.Event {
	switch {
	case r.state == NotStarted:
		r.state = Sustaining
		return []plugin.Event{r.notes.On}
	case r.state == Sustaining && r.total >= r.length:
		r.state = Releasing
		return []plugin.Event{r.notes.Off}
	}
	return nil
}

func (r *renderer) run() error {
	if r.out == nil {
		r.out = make([]float32, r.blockSize*r.channels)
	}
	for r.state != Finished {
		events := r.events()
		if len(events) > 0 {
			r.logger.Debug("sending event", "event", events[0].String(), "frame", r.total)
		}
		r.inst.Run(r.blockSize, events)

		Interleave(r.out, r.outs, r.channels, r.blockSize)
		if err := r.validator.Check(r.out); err != nil {
			return fmt.Errorf("block %d: %w", r.blocks, err)
		}

		n, err := r.w.WriteFrames(r.out)
		if err != nil {
			return fmt.Errorf("block %d: %w", r.blocks, err)
		}
		if n != r.blockSize {
			return fmt.Errorf("%w: block %d: %d of %d frames", ErrShortWrite, r.blocks, n, r.blockSize)
		}
		r.total += n
		r.blocks++

		r.checkDone()
	}
	return nil
}

func (r *renderer) checkDone() {
	if r.releaseTail >= 0 {
		if r.total > r.length+r.releaseTail {
			r.state = Finished
		}
		return
	}
	if r.total > r.length && IsSilent(r.out) {
		r.state = Finished
		return
	}
	if r.total > r.maxFrames {
		r.state = Finished
		r.truncated = true
		r.logger.Warn("truncating render", "frames", r.total)
	}
}

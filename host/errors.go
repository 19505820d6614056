package host

import "errors"

var (
	ErrNoAudioOutputs    = errors.New("no audio output ports")
	ErrNoRenderCallback  = errors.New("no run_synth() or run_multiple_synths() method in plugin")
	ErrInstantiate       = errors.New("failed to instantiate plugin")
	ErrControlInput      = errors.New("cannot read control port value")
	ErrNonFiniteSample   = errors.New("NaN or Inf in synthesized data")
	ErrSampleOutOfBounds = errors.New("sample data out of bounds")
	ErrShortWrite        = errors.New("short write to output file")
	ErrInvalidConfig     = errors.New("invalid render configuration")
)

package dssi

import "errors"

var (
	ErrNotDSSI           = errors.New("not a DSSI plugin")
	ErrLabelNotFound     = errors.New("plugin label not found")
	ErrNoRenderCallback  = errors.New("no run_synth() or run_multiple_synths() method in plugin")
	ErrInstantiate       = errors.New("instantiate returned no instance")
	ErrConfigureRejected = errors.New("configure rejected")
	ErrClosed            = errors.New("plugin library closed")
)

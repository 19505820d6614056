package dssi

// #include <dssi.h>
import "C"

import (
	"fmt"

	"github.com/cwbudde/dssi-render/plugin"
)

type descriptor struct {
	lib   *Library
	d     *C.DSSI_Descriptor
	label string
	name  string
	ports []plugin.Port
	caps  plugin.Capability
}

func newDescriptor(lib *Library, d *C.DSSI_Descriptor) *descriptor {
	l := d.LADSPA_Plugin
	desc := &descriptor{
		lib:   lib,
		d:     d,
		label: C.GoString(l.Label),
		name:  C.GoString(l.Name),
	}
	for i := C.ulong(0); i < l.PortCount; i++ {
		hint := portHint(l, i)
		desc.ports = append(desc.ports, plugin.Port{
			Index:      int(i),
			Name:       portName(l, i),
			Descriptor: plugin.PortDescriptor(portDescriptor(l, i)),
			Hint: plugin.RangeHint{
				Descriptor: plugin.HintDescriptor(hint.HintDescriptor),
				Lower:      float32(hint.LowerBound),
				Upper:      float32(hint.UpperBound),
			},
		})
	}

	if l.activate != nil {
		desc.caps |= plugin.CapActivate
	}
	if l.deactivate != nil {
		desc.caps |= plugin.CapDeactivate
	}
	if l.cleanup != nil {
		desc.caps |= plugin.CapCleanup
	}
	if d.configure != nil {
		desc.caps |= plugin.CapConfigure
	}
	if d.select_program != nil {
		desc.caps |= plugin.CapSelectProgram
	}
	if d.run_synth != nil {
		desc.caps |= plugin.CapRunSynth
	}
	if d.run_multiple_synths != nil {
		desc.caps |= plugin.CapRunMultipleSynths
	}
	return desc
}

func (d *descriptor) Label() string                   { return d.label }
func (d *descriptor) Name() string                    { return d.name }
func (d *descriptor) Ports() []plugin.Port            { return d.ports }
func (d *descriptor) Capabilities() plugin.Capability { return d.caps }

func (d *descriptor) Instantiate(sampleRate int) (plugin.Instance, error) {
	if d.lib.closed {
		return nil, ErrClosed
	}
	h := instantiate(d.d, C.ulong(sampleRate))
	if h == nil {
		return nil, fmt.Errorf("%s at %d Hz: %w", d.label, sampleRate, ErrInstantiate)
	}
	inst := &instance{desc: d, handle: h}
	d.lib.instances = append(d.lib.instances, inst)
	return inst, nil
}

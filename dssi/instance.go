package dssi

// #include <stdlib.h>
// #include <dssi.h>
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/cwbudde/dssi-render/plugin"
)

// instance is a live plugin handle. Port buffers live on the C heap since
// the plugin keeps the pointers between calls.
type instance struct {
	desc     *descriptor
	handle   C.LADSPA_Handle
	buffers  []unsafe.Pointer
	events   []C.snd_seq_event_t
	released bool
}

func (i *instance) has(c plugin.Capability) bool {
	return !i.released && i.desc.caps&c != 0
}

func (i *instance) Connect(index, length int) []float32 {
	p := C.calloc(C.size_t(length), C.size_t(unsafe.Sizeof(C.LADSPA_Data(0))))
	if p == nil {
		panic(fmt.Sprintf("dssi: cannot allocate %d samples for port %d", length, index))
	}
	i.buffers = append(i.buffers, p)
	connectPort(i.desc.d, i.handle, C.ulong(index), (*C.LADSPA_Data)(p))
	return unsafe.Slice((*float32)(p), length)
}

func (i *instance) Activate() {
	if i.has(plugin.CapActivate) {
		activate(i.desc.d, i.handle)
	}
}

func (i *instance) Deactivate() {
	if i.has(plugin.CapDeactivate) {
		deactivate(i.desc.d, i.handle)
	}
}

// Cleanup destroys the plugin instance and frees its port buffers. Later
// calls do nothing.
func (i *instance) Cleanup() {
	if i.released {
		return
	}
	if i.has(plugin.CapCleanup) {
		cleanup(i.desc.d, i.handle)
	}
	i.released = true
	for _, p := range i.buffers {
		C.free(p)
	}
	i.buffers = nil
}

func (i *instance) Configure(key, value string) error {
	if !i.has(plugin.CapConfigure) {
		return nil
	}
	if reply, ok := configure(i.desc.d, i.handle, key, value); !ok {
		return fmt.Errorf("%w: %s", ErrConfigureRejected, reply)
	}
	return nil
}

func (i *instance) SelectProgram(bank, program int) {
	if i.has(plugin.CapSelectProgram) {
		selectProgram(i.desc.d, i.handle, C.ulong(bank), C.ulong(program))
	}
}

// Run converts note events to sequencer events and renders one block.
// Other messages are dropped.
func (i *instance) Run(frames int, events []plugin.Event) {
	if i.released {
		return
	}
	i.events = i.events[:0]
	for _, ev := range events {
		var ch, key, vel uint8
		var off bool
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel):
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			off = true
		default:
			continue
		}
		i.events = append(i.events, C.snd_seq_event_t{})
		fillNote(&i.events[len(i.events)-1], off, ch, key, vel, ev.Offset)
	}
	runSynth(i.desc.d, i.handle, C.ulong(frames), i.events)
}

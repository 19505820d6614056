package dssi

// #cgo pkg-config: dssi alsa
// #cgo LDFLAGS: -ldl
// #include <dlfcn.h>
// #include <stdlib.h>
// #include <string.h>
// #include <dssi.h>
//
// typedef const DSSI_Descriptor *(*descriptor_fn)(unsigned long);
//
// // dlerror is per thread, so it is read in the same C call.
// static void *bridge_dlopen(const char *path, const char **err) {
//     void *h = dlopen(path, RTLD_NOW);
//     if (!h) *err = dlerror();
//     return h;
// }
//
// static void *bridge_dlsym(void *h, const char *name, const char **err) {
//     dlerror();
//     void *sym = dlsym(h, name);
//     if (!sym) *err = dlerror();
//     return sym;
// }
//
// static int bridge_dlclose(void *h, const char **err) {
//     int rc = dlclose(h);
//     if (rc != 0) *err = dlerror();
//     return rc;
// }
//
// static const DSSI_Descriptor *bridge_descriptor(void *fn, unsigned long i) {
//     return ((descriptor_fn)fn)(i);
// }
//
// static const char *bridge_port_name(const LADSPA_Descriptor *l, unsigned long i) {
//     return l->PortNames[i];
// }
//
// static LADSPA_PortDescriptor bridge_port_descriptor(const LADSPA_Descriptor *l, unsigned long i) {
//     return l->PortDescriptors[i];
// }
//
// static LADSPA_PortRangeHint bridge_port_hint(const LADSPA_Descriptor *l, unsigned long i) {
//     return l->PortRangeHints[i];
// }
//
// static LADSPA_Handle bridge_instantiate(const DSSI_Descriptor *d, unsigned long rate) {
//     return d->LADSPA_Plugin->instantiate(d->LADSPA_Plugin, rate);
// }
//
// static void bridge_connect_port(const DSSI_Descriptor *d, LADSPA_Handle h, unsigned long port, LADSPA_Data *buf) {
//     d->LADSPA_Plugin->connect_port(h, port, buf);
// }
//
// static void bridge_activate(const DSSI_Descriptor *d, LADSPA_Handle h)   { d->LADSPA_Plugin->activate(h); }
// static void bridge_deactivate(const DSSI_Descriptor *d, LADSPA_Handle h) { d->LADSPA_Plugin->deactivate(h); }
// static void bridge_cleanup(const DSSI_Descriptor *d, LADSPA_Handle h)    { d->LADSPA_Plugin->cleanup(h); }
//
// static char *bridge_configure(const DSSI_Descriptor *d, LADSPA_Handle h, const char *key, const char *value) {
//     return d->configure(h, key, value);
// }
//
// static void bridge_select_program(const DSSI_Descriptor *d, LADSPA_Handle h, unsigned long bank, unsigned long program) {
//     d->select_program(h, bank, program);
// }
//
// // Plugins exposing only run_multiple_synths get a one-instance call.
// static void bridge_run(const DSSI_Descriptor *d, LADSPA_Handle h, unsigned long frames,
//                        snd_seq_event_t *events, unsigned long count) {
//     if (d->run_synth) {
//         d->run_synth(h, frames, events, count);
//         return;
//     }
//     d->run_multiple_synths(1, &h, frames, &events, &count);
// }
//
// static void bridge_fill_note(snd_seq_event_t *ev, unsigned char type, unsigned char channel,
//                              unsigned char note, unsigned char velocity, unsigned int tick) {
//     memset(ev, 0, sizeof(*ev));
//     ev->type = type;
//     ev->time.tick = tick;
//     ev->data.note.channel = channel;
//     ev->data.note.note = note;
//     if (type == SND_SEQ_EVENT_NOTEOFF) {
//         ev->data.note.off_velocity = velocity;
//     } else {
//         ev->data.note.velocity = velocity;
//     }
// }
import "C"

import (
	"errors"
	"unsafe"
)

const descriptorSymbol = "dssi_descriptor"

// dlopen loads path with immediate symbol binding.
func dlopen(path string) (unsafe.Pointer, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	var msg *C.char
	h := C.bridge_dlopen(cpath, &msg)
	if h == nil {
		return nil, loaderError(msg)
	}
	return h, nil
}

func dlsym(handle unsafe.Pointer, name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var msg *C.char
	sym := C.bridge_dlsym(handle, cname, &msg)
	if sym == nil {
		return nil, loaderError(msg)
	}
	return sym, nil
}

func dlclose(handle unsafe.Pointer) error {
	var msg *C.char
	if C.bridge_dlclose(handle, &msg) != 0 {
		return loaderError(msg)
	}
	return nil
}

func descriptorAt(entry unsafe.Pointer, i C.ulong) *C.DSSI_Descriptor {
	return C.bridge_descriptor(entry, i)
}

func portName(l *C.LADSPA_Descriptor, i C.ulong) string {
	return C.GoString(C.bridge_port_name(l, i))
}

func portDescriptor(l *C.LADSPA_Descriptor, i C.ulong) C.LADSPA_PortDescriptor {
	return C.bridge_port_descriptor(l, i)
}

func portHint(l *C.LADSPA_Descriptor, i C.ulong) C.LADSPA_PortRangeHint {
	return C.bridge_port_hint(l, i)
}

func instantiate(d *C.DSSI_Descriptor, rate C.ulong) C.LADSPA_Handle {
	return C.bridge_instantiate(d, rate)
}

func connectPort(d *C.DSSI_Descriptor, h C.LADSPA_Handle, port C.ulong, buf *C.LADSPA_Data) {
	C.bridge_connect_port(d, h, port, buf)
}

func activate(d *C.DSSI_Descriptor, h C.LADSPA_Handle)   { C.bridge_activate(d, h) }
func deactivate(d *C.DSSI_Descriptor, h C.LADSPA_Handle) { C.bridge_deactivate(d, h) }
func cleanup(d *C.DSSI_Descriptor, h C.LADSPA_Handle)    { C.bridge_cleanup(d, h) }

// configure returns the plugin's reply, or "" with ok set when it accepted
// the pair.
func configure(d *C.DSSI_Descriptor, h C.LADSPA_Handle, key, value string) (reply string, ok bool) {
	ckey := C.CString(key)
	defer C.free(unsafe.Pointer(ckey))
	cvalue := C.CString(value)
	defer C.free(unsafe.Pointer(cvalue))
	msg := C.bridge_configure(d, h, ckey, cvalue)
	if msg == nil {
		return "", true
	}
	defer C.free(unsafe.Pointer(msg))
	return C.GoString(msg), false
}

func selectProgram(d *C.DSSI_Descriptor, h C.LADSPA_Handle, bank, program C.ulong) {
	C.bridge_select_program(d, h, bank, program)
}

func runSynth(d *C.DSSI_Descriptor, h C.LADSPA_Handle, frames C.ulong, events []C.snd_seq_event_t) {
	var first *C.snd_seq_event_t
	if len(events) > 0 {
		first = &events[0]
	}
	C.bridge_run(d, h, frames, first, C.ulong(len(events)))
}

func fillNote(ev *C.snd_seq_event_t, off bool, channel, note, velocity uint8, tick int) {
	typ := C.uchar(C.SND_SEQ_EVENT_NOTEON)
	if off {
		typ = C.SND_SEQ_EVENT_NOTEOFF
	}
	C.bridge_fill_note(ev, typ, C.uchar(channel), C.uchar(note), C.uchar(velocity), C.uint(tick))
}

func loaderError(msg *C.char) error {
	if msg == nil {
		return errors.New("unknown dynamic loader error")
	}
	return errors.New(C.GoString(msg))
}

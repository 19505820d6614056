package host

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/dssi-render/plugin"
)

const (
	audioOut   = plugin.PortAudio | plugin.PortOutput
	audioIn    = plugin.PortAudio | plugin.PortInput
	controlIn  = plugin.PortControl | plugin.PortInput
	controlOut = plugin.PortControl | plugin.PortOutput
	allCaps    = plugin.CapActivate | plugin.CapDeactivate | plugin.CapCleanup |
		plugin.CapConfigure | plugin.CapSelectProgram | plugin.CapRunSynth
)

// fakeDescriptor is an in-process plugin. Its voice holds a level after
// note-on and drops it by release per block after note-off; output port k
// carries (k+1) * gain * level.
type fakeDescriptor struct {
	label   string
	ports   []plugin.Port
	caps    plugin.Capability
	gain    float32
	release float32
	// hook may overwrite the outputs of block n.
	hook     func(block int, outs [][]float32)
	programs map[[2]int]float32
	rejects  map[string]string
	instErr  error

	calls    *[]string
	inst     *fakeInstance
	rejected []string
}

func newFake(outs int, calls *[]string) *fakeDescriptor {
	d := &fakeDescriptor{label: "fake", caps: allCaps, gain: 0.1, release: 1, calls: calls}
	for i := 0; i < outs; i++ {
		d.ports = append(d.ports, plugin.Port{Index: len(d.ports), Name: fmt.Sprintf("out%d", i), Descriptor: audioOut})
	}
	return d
}

func (d *fakeDescriptor) addPort(name string, desc plugin.PortDescriptor, hint plugin.RangeHint) {
	d.ports = append(d.ports, plugin.Port{Index: len(d.ports), Name: name, Descriptor: desc, Hint: hint})
}

func (d *fakeDescriptor) Label() string                   { return d.label }
func (d *fakeDescriptor) Name() string                    { return "Fake synth" }
func (d *fakeDescriptor) Ports() []plugin.Port            { return d.ports }
func (d *fakeDescriptor) Capabilities() plugin.Capability { return d.caps }

func (d *fakeDescriptor) Instantiate(sampleRate int) (plugin.Instance, error) {
	if d.instErr != nil {
		return nil, d.instErr
	}
	d.record("instantiate")
	d.inst = &fakeInstance{d: d, bufs: make(map[int][]float32)}
	return d.inst, nil
}

func (d *fakeDescriptor) record(call string) {
	if d.calls != nil {
		*d.calls = append(*d.calls, call)
	}
}

type fakeInstance struct {
	d      *fakeDescriptor
	bufs   map[int][]float32
	level  float32
	held   bool
	blocks int
	// controlsAtFirstRun snapshots control inputs when rendering starts.
	controlsAtFirstRun map[string]float32
	events             [][]plugin.Event
}

func (f *fakeInstance) Connect(index, length int) []float32 {
	b := make([]float32, length)
	f.bufs[index] = b
	return b
}

func (f *fakeInstance) Activate()   { f.d.record("activate") }
func (f *fakeInstance) Deactivate() { f.d.record("deactivate") }
func (f *fakeInstance) Cleanup()    { f.d.record("cleanup") }

func (f *fakeInstance) Configure(key, value string) error {
	f.d.record("configure " + key + "=" + value)
	if msg, ok := f.d.rejects[key]; ok {
		f.d.rejected = append(f.d.rejected, key)
		return errors.New(msg)
	}
	return nil
}

func (f *fakeInstance) SelectProgram(bank, program int) {
	f.d.record(fmt.Sprintf("select_program %d:%d", bank, program))
	v, ok := f.d.programs[[2]int{bank, program}]
	if !ok {
		return
	}
	for _, p := range f.d.ports {
		if p.IsControlInput() {
			f.bufs[p.Index][0] = v
		}
	}
}

func (f *fakeInstance) Run(frames int, events []plugin.Event) {
	if f.controlsAtFirstRun == nil {
		f.controlsAtFirstRun = make(map[string]float32)
		for _, p := range f.d.ports {
			if p.IsControlInput() {
				f.controlsAtFirstRun[p.Name] = f.bufs[p.Index][0]
			}
		}
	}
	f.events = append(f.events, events)
	for _, ev := range events {
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			f.level = 1
			f.held = true
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			f.held = false
		}
	}

	var outs [][]float32
	k := 0
	for _, p := range f.d.ports {
		if p.Descriptor.IsAudio() && p.Descriptor.IsOutput() {
			buf := f.bufs[p.Index]
			for i := 0; i < frames; i++ {
				buf[i] = float32(k+1) * f.d.gain * f.level
			}
			outs = append(outs, buf)
			k++
		}
	}
	if f.d.hook != nil {
		f.d.hook(f.blocks, outs)
	}
	if !f.held {
		f.level = float32(math.Max(0, float64(f.level-f.d.release)))
	}
	f.blocks++
}

// memWriter collects interleaved output.
type memWriter struct {
	channels   int
	sampleRate int
	data       []float32
	blocks     int
	closed     bool
	shortAt    int
	calls      *[]string
}

func (w *memWriter) WriteFrames(interleaved []float32) (int, error) {
	frames := len(interleaved) / w.channels
	if w.shortAt > 0 && w.blocks+1 == w.shortAt {
		return frames - 1, nil
	}
	w.data = append(w.data, interleaved...)
	w.blocks++
	return frames, nil
}

func (w *memWriter) Close() error {
	w.closed = true
	if w.calls != nil {
		*w.calls = append(*w.calls, "close output")
	}
	return nil
}

func (w *memWriter) frame(i int) []float32 {
	return w.data[i*w.channels : (i+1)*w.channels]
}

// outputTo returns an OutputFunc handing out w.
func outputTo(w *memWriter) OutputFunc {
	return func(sampleRate, channels int) (FrameWriter, error) {
		w.channels = channels
		w.sampleRate = sampleRate
		return w, nil
	}
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// testConfig renders at 1 kHz so frame arithmetic stays readable.
func testConfig(buf *bytes.Buffer) Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 1000
	cfg.Length = 0.5
	cfg.MaxLength = 15
	cfg.Logger = testLogger(buf)
	return cfg
}

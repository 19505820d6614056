package host

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/cwbudde/dssi-render/plugin"
)

var (
	unitRange = plugin.RangeHint{
		Descriptor: plugin.HintBoundedBelow | plugin.HintBoundedAbove | plugin.HintDefaultMiddle,
		Upper:      1,
	}
	cutoffRange = plugin.RangeHint{
		Descriptor: plugin.HintBoundedBelow | plugin.HintBoundedAbove | plugin.HintSampleRate | plugin.HintDefaultMaximum,
		Lower:      0,
		Upper:      0.5,
	}
)

// assignment connects a fake with the given control inputs.
func assignment(t *testing.T, logs *bytes.Buffer, hints ...plugin.RangeHint) (Assignment, *fakeDescriptor) {
	t.Helper()
	d := newFake(1, nil)
	for i, h := range hints {
		d.addPort("c"+string(rune('a'+i)), controlIn, h)
	}
	inst, err := d.Instantiate(1000)
	if err != nil {
		t.Fatal(err)
	}
	b := Connect(inst, d.Ports(), 16)
	return Assignment{
		Instance:     inst,
		Capabilities: d.caps,
		Controls:     b.ControlIn,
		SampleRate:   1000,
		Logger:       testLogger(logs),
	}, d
}

func values(a Assignment) []float32 {
	out := make([]float32, len(a.Controls))
	for i, c := range a.Controls {
		out[i] = c.Value()
	}
	return out
}

func TestDefaults(t *testing.T) {
	var logs bytes.Buffer
	a, _ := assignment(t, &logs, unitRange, cutoffRange)
	if err := (Defaults{}).Assign(a); err != nil {
		t.Fatal(err)
	}
	got := values(a)
	if got[0] != 0.5 || got[1] != 500 {
		t.Fatalf("defaults = %v, want [0.5 500]", got)
	}
}

func TestRandomStaysInBounds(t *testing.T) {
	var logs bytes.Buffer
	a, _ := assignment(t, &logs, unitRange, cutoffRange, plugin.RangeHint{Descriptor: plugin.HintDefault440})
	src := Random{Rand: rand.New(rand.NewPCG(1, 2))}
	for i := 0; i < 100; i++ {
		if err := src.Assign(a); err != nil {
			t.Fatal(err)
		}
		got := values(a)
		if got[0] < 0 || got[0] > 1 {
			t.Fatalf("unit control = %g", got[0])
		}
		if got[1] < 0 || got[1] > 500 {
			t.Fatalf("cutoff control = %g", got[1])
		}
		if got[2] != 440 {
			t.Fatalf("unbounded control = %g, want its default 440", got[2])
		}
	}
	if n := SanitizeControls(a.Controls, a.SampleRate, a.Logger); n != 0 {
		t.Fatalf("random values replaced: %d", n)
	}
}

func TestRandomIsSeeded(t *testing.T) {
	var logs bytes.Buffer
	a, _ := assignment(t, &logs, unitRange, unitRange)
	draw := func() []float32 {
		if err := (Random{Rand: rand.New(rand.NewPCG(7, 7))}).Assign(a); err != nil {
			t.Fatal(err)
		}
		return values(a)
	}
	first, second := draw(), draw()
	if first[0] != second[0] || first[1] != second[1] {
		t.Fatalf("same seed drew %v then %v", first, second)
	}
}

func TestStdin(t *testing.T) {
	var logs bytes.Buffer
	a, _ := assignment(t, &logs, unitRange, cutoffRange, unitRange)
	if err := (Stdin{Reader: strings.NewReader("0.25\n  300\t\n1e-1")}).Assign(a); err != nil {
		t.Fatal(err)
	}
	got := values(a)
	if got[0] != 0.25 || got[1] != 300 || got[2] != float32(0.1) {
		t.Fatalf("values = %v", got)
	}
}

func TestStdinErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short", "0.5"},
		{"empty", ""},
		{"garbage", "0.5 loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			a, _ := assignment(t, &logs, unitRange, unitRange)
			err := (Stdin{Reader: strings.NewReader(tt.input)}).Assign(a)
			if !errors.Is(err, ErrControlInput) {
				t.Fatalf("err = %v, want ErrControlInput", err)
			}
		})
	}
}

func TestStdinNoControls(t *testing.T) {
	var logs bytes.Buffer
	a, _ := assignment(t, &logs)
	if err := (Stdin{Reader: strings.NewReader("")}).Assign(a); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestProgramUnsupported(t *testing.T) {
	var calls []string
	var logs bytes.Buffer
	a, d := assignment(t, &logs, unitRange)
	d.calls = &calls
	a.Capabilities &^= plugin.CapSelectProgram
	a.Controls[0].Set(0.75)

	if err := (Program{Bank: 1, Program: 2}).Assign(a); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Fatalf("calls = %v, want none", calls)
	}
	if !strings.Contains(logs.String(), "select_program") {
		t.Fatalf("no warning in %q", logs.String())
	}
	if a.Controls[0].Value() != 0.75 {
		t.Fatal("control value changed")
	}
}

func TestSanitizeControls(t *testing.T) {
	var logs bytes.Buffer
	a, _ := assignment(t, &logs, unitRange, cutoffRange, unitRange, cutoffRange)
	set := []float32{0.3, 600, float32(math.NaN()), 499}
	for i, v := range set {
		a.Controls[i].Set(v)
	}

	if n := SanitizeControls(a.Controls, a.SampleRate, a.Logger); n != 2 {
		t.Fatalf("replaced = %d, want 2", n)
	}
	got := values(a)
	if got[0] != 0.3 || got[1] != 500 || got[2] != 0.5 || got[3] != 499 {
		t.Fatalf("sanitized = %v, want [0.3 500 0.5 499]", got)
	}
	if n := strings.Count(logs.String(), "control value out of range"); n != 2 {
		t.Fatalf("warnings = %d, want 2:\n%s", n, logs.String())
	}
}

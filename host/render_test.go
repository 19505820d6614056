package host

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func TestInterleave(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{10, 20, 30}
	c := []float32{100, 200, 300}

	tests := []struct {
		name     string
		outs     [][]float32
		channels int
		want     []float32
	}{
		{"mono", [][]float32{a}, 1, []float32{1, 2, 3}},
		{"stereo", [][]float32{a, b}, 2, []float32{1, 10, 2, 20, 3, 30}},
		{"repeat last", [][]float32{a, b}, 3, []float32{1, 10, 10, 2, 20, 20, 3, 30, 30}},
		{"drop extra", [][]float32{a, b, c}, 2, []float32{1, 10, 2, 20, 3, 30}},
		{"mono to stereo", [][]float32{a}, 2, []float32{1, 1, 2, 2, 3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, 3*tt.channels)
			Interleave(dst, tt.outs, tt.channels, 3)
			if !slices.Equal(dst, tt.want) {
				t.Fatalf("Interleave = %v, want %v", dst, tt.want)
			}
		})
	}
}

func TestIsSilent(t *testing.T) {
	tests := []struct {
		in   []float32
		want bool
	}{
		{nil, true},
		{make([]float32, 256), true},
		{[]float32{0.004, -0.004}, true},
		{[]float32{0.006, -0.006}, false},
		{[]float32{0.02}, false},
	}
	for _, tt := range tests {
		if got := IsSilent(tt.in); got != tt.want {
			t.Errorf("IsSilent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidatorStrict(t *testing.T) {
	tests := []struct {
		in   []float32
		want error
	}{
		{[]float32{0, 1, -1, 0.5}, nil},
		{[]float32{0, float32(math.NaN())}, ErrNonFiniteSample},
		{[]float32{float32(math.Inf(1))}, ErrNonFiniteSample},
		{[]float32{0.5, 1.0001}, ErrSampleOutOfBounds},
		{[]float32{-1.5}, ErrSampleOutOfBounds},
	}
	for _, tt := range tests {
		var v Validator
		err := v.Check(tt.in)
		if tt.want == nil && err != nil {
			t.Errorf("Check(%v) = %v, want nil", tt.in, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("Check(%v) = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestValidatorClip(t *testing.T) {
	var logs bytes.Buffer
	v := Validator{Clip: true, Logger: testLogger(&logs)}

	in := []float32{float32(math.NaN()), float32(math.Inf(-1)), 3, -3, 0.25}
	if err := v.Check(in); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if want := []float32{1, -1, 1, -1, 0.25}; !slices.Equal(in, want) {
		t.Fatalf("clipped = %v, want %v", in, want)
	}
	if err := v.Check([]float32{float32(math.NaN()), 9}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n := strings.Count(logs.String(), "level=WARN"); n != 2 {
		t.Fatalf("warnings = %d, want 2:\n%s", n, logs.String())
	}
}

func TestStateString(t *testing.T) {
	if got := Releasing.String(); got != "releasing" {
		t.Fatalf("Releasing.String() = %q", got)
	}
	if got := State(9).String(); got != "State(9)" {
		t.Fatalf("State(9).String() = %q", got)
	}
}

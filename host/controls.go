package host

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/cwbudde/dssi-render/plugin"
)

// Assignment is what a ControlSource works on: the control input ports of
// one freshly connected instance.
type Assignment struct {
	Instance     plugin.Instance
	Capabilities plugin.Capability
	Controls     []ControlPort
	SampleRate   float32
	Logger       *slog.Logger
}

// ControlSource sets the initial control input values.
type ControlSource interface {
	Assign(a Assignment) error
}

// Defaults sets every control input to its hint default.
type Defaults struct{}

func (Defaults) Assign(a Assignment) error {
	for _, c := range a.Controls {
		c.Set(c.Hint.Default(a.SampleRate))
	}
	return nil
}

// Random draws every control input uniformly within its bounds.
type Random struct {
	Rand *rand.Rand
}

func (s Random) Assign(a Assignment) error {
	r := s.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	for _, c := range a.Controls {
		c.Set(c.Hint.Random(r, a.SampleRate))
	}
	return nil
}

// Stdin reads one number per control input, in port order, from Reader.
type Stdin struct {
	Reader io.Reader
}

func (s Stdin) Assign(a Assignment) error {
	if len(a.Controls) == 0 {
		return nil
	}
	sc := bufio.NewScanner(s.Reader)
	sc.Split(bufio.ScanWords)
	for _, c := range a.Controls {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fmt.Errorf("%w: port %d (%s): %w", ErrControlInput, c.Index, c.Name, err)
			}
			return fmt.Errorf("%w: port %d (%s): unexpected end of input", ErrControlInput, c.Index, c.Name)
		}
		v, err := strconv.ParseFloat(sc.Text(), 32)
		if err != nil {
			return fmt.Errorf("%w: port %d (%s): %q", ErrControlInput, c.Index, c.Name, sc.Text())
		}
		c.Set(float32(v))
	}
	return nil
}

// Program asks the plugin to load a bank/program preset. The plugin writes
// the control values itself.
type Program struct {
	Bank    int
	Program int
}

func (s Program) Assign(a Assignment) error {
	if a.Capabilities&plugin.CapSelectProgram == 0 {
		a.Logger.Warn("plugin has no select_program(), keeping control values",
			"bank", s.Bank, "program", s.Program)
		return nil
	}
	a.Instance.SelectProgram(s.Bank, s.Program)
	return nil
}

// SanitizeControls replaces every control value that violates its declared
// bounds, or is NaN, with the port default. It returns how many were
// replaced.
func SanitizeControls(controls []ControlPort, sampleRate float32, logger *slog.Logger) int {
	replaced := 0
	for _, c := range controls {
		v := c.Value()
		if c.Hint.InBounds(v, sampleRate) {
			logger.Debug("control port", "port", c.Index, "name", c.Name,
				"hint", int(c.Hint.Descriptor), "lower", c.Hint.Lower, "upper", c.Hint.Upper, "value", v)
			continue
		}
		def := c.Hint.Default(sampleRate)
		logger.Warn("control value out of range, overriding",
			"port", c.Index, "name", c.Name,
			"value", fmt.Sprintf("%.3f", v), "default", fmt.Sprintf("%.3f", def))
		c.Set(def)
		replaced++
	}
	return replaced
}

package host

import "github.com/cwbudde/dssi-render/plugin"

// Counts is the number of ports in each category.
type Counts struct {
	AudioIn    int
	AudioOut   int
	ControlIn  int
	ControlOut int
}

// Classify counts ports by direction and signal class.
func Classify(ports []plugin.Port) Counts {
	var c Counts
	for _, p := range ports {
		d := p.Descriptor
		switch {
		case d.IsAudio() && d.IsInput():
			c.AudioIn++
		case d.IsAudio() && d.IsOutput():
			c.AudioOut++
		case d.IsControl() && d.IsInput():
			c.ControlIn++
		case d.IsControl() && d.IsOutput():
			c.ControlOut++
		}
	}
	return c
}

// ControlPort is a connected control port and its one-value buffer.
type ControlPort struct {
	plugin.Port
	value []float32
}

func (c ControlPort) Value() float32    { return c.value[0] }
func (c ControlPort) Set(v float32)     { c.value[0] = v }
func (c ControlPort) Buffer() []float32 { return c.value }

// Buffers holds every connected port buffer, in port order per category.
type Buffers struct {
	AudioIn    [][]float32
	AudioOut   [][]float32
	ControlIn  []ControlPort
	ControlOut []ControlPort
}

// Connect connects every port of inst: audio ports to blockSize-frame
// blocks, control ports to single values.
func Connect(inst plugin.Instance, ports []plugin.Port, blockSize int) *Buffers {
	b := &Buffers{}
	for _, p := range ports {
		d := p.Descriptor
		switch {
		case d.IsAudio() && d.IsInput():
			b.AudioIn = append(b.AudioIn, inst.Connect(p.Index, blockSize))
		case d.IsAudio() && d.IsOutput():
			b.AudioOut = append(b.AudioOut, inst.Connect(p.Index, blockSize))
		case d.IsControl() && d.IsInput():
			b.ControlIn = append(b.ControlIn, ControlPort{Port: p, value: inst.Connect(p.Index, 1)})
		case d.IsControl() && d.IsOutput():
			b.ControlOut = append(b.ControlOut, ControlPort{Port: p, value: inst.Connect(p.Index, 1)})
		}
	}
	return b
}

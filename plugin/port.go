package plugin

// PortDescriptor holds the LADSPA port flags.
type PortDescriptor int

const (
	PortInput   PortDescriptor = 0x1
	PortOutput  PortDescriptor = 0x2
	PortControl PortDescriptor = 0x4
	PortAudio   PortDescriptor = 0x8
)

func (d PortDescriptor) IsInput() bool   { return d&PortInput != 0 }
func (d PortDescriptor) IsOutput() bool  { return d&PortOutput != 0 }
func (d PortDescriptor) IsControl() bool { return d&PortControl != 0 }
func (d PortDescriptor) IsAudio() bool   { return d&PortAudio != 0 }

// Port is one entry of a plugin's port table.
type Port struct {
	Index      int
	Name       string
	Descriptor PortDescriptor
	Hint       RangeHint
}

// IsControlInput reports whether the host assigns this port's value.
func (p Port) IsControlInput() bool {
	return p.Descriptor.IsControl() && p.Descriptor.IsInput()
}

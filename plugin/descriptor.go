// Package plugin models the DSSI/LADSPA plugin ABI as Go types: the port
// table and its range hints, the capability set of a descriptor, the
// instance lifecycle, note events, and plugin library lookup.
//
// The native backend lives in package dssi; host code depends only on the
// interfaces declared here.
package plugin

import "strings"

// ProjectDirectoryKey is the reserved configure key carrying the project
// directory.
const ProjectDirectoryKey = "__DSSI_PROJECT_DIRECTORY__"

// Capability names an optional callback of a descriptor.
type Capability uint

const (
	CapActivate Capability = 1 << iota
	CapDeactivate
	CapCleanup
	CapConfigure
	CapSelectProgram
	CapRunSynth
	CapRunMultipleSynths
)

var capabilityNames = []struct {
	c    Capability
	name string
}{
	{CapActivate, "activate"},
	{CapDeactivate, "deactivate"},
	{CapCleanup, "cleanup"},
	{CapConfigure, "configure"},
	{CapSelectProgram, "select_program"},
	{CapRunSynth, "run_synth"},
	{CapRunMultipleSynths, "run_multiple_synths"},
}

func (c Capability) String() string {
	var names []string
	for _, cn := range capabilityNames {
		if c&cn.c != 0 {
			names = append(names, cn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// CanRender reports whether either render callback shape is present.
func (c Capability) CanRender() bool {
	return c&(CapRunSynth|CapRunMultipleSynths) != 0
}

// Descriptor is one entry of a plugin library's descriptor table.
type Descriptor interface {
	Label() string
	Name() string
	Ports() []Port
	Capabilities() Capability
	// Instantiate creates one instance running at sampleRate.
	Instantiate(sampleRate int) (Instance, error)
}

// Instance is a live plugin instance. Methods for callbacks the descriptor
// lacks are no-ops; callers check Capabilities first when it matters.
type Instance interface {
	// Connect attaches port index to a zeroed buffer of length floats and
	// returns it. The instance owns the memory until Cleanup.
	Connect(index, length int) []float32
	Activate()
	Deactivate()
	// Cleanup destroys the instance and releases the port buffers.
	Cleanup()
	// Configure passes a key/value pair. A non-nil error carries the
	// plugin's rejection message.
	Configure(key, value string) error
	SelectProgram(bank, program int)
	// Run renders frames frames with the given events.
	Run(frames int, events []Event)
}

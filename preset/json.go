package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/cwbudde/dssi-render/host"
)

var ErrUnknownPort = errors.New("no such control input port")

// File is the JSON schema for control-value presets.
type File struct {
	// Program, when set, is selected before Values are applied. Without it
	// every control input starts from its default.
	Program *ProgramRef        `json:"program"`
	Values  map[string]float32 `json:"values"`
}

// ProgramRef names a bank/program of the plugin.
type ProgramRef struct {
	Bank    int `json:"bank"`
	Program int `json:"program"`
}

// LoadJSON reads and parses a preset file.
func LoadJSON(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Program != nil && (f.Program.Bank < 0 || f.Program.Program < 0) {
		return nil, fmt.Errorf("%s: negative bank or program", path)
	}
	return &f, nil
}

// Assign implements host.ControlSource.
func (f *File) Assign(a host.Assignment) error {
	var base host.ControlSource = host.Defaults{}
	if f.Program != nil {
		base = host.Program{Bank: f.Program.Bank, Program: f.Program.Program}
	}
	if err := base.Assign(a); err != nil {
		return err
	}
	return ApplyValues(a.Controls, f.Values)
}

// ApplyValues sets controls by port name or decimal port index. Keys are
// applied in sorted order; a key matching no control input is an error.
func ApplyValues(controls []host.ControlPort, values map[string]float32) error {
	if len(values) == 0 {
		return nil
	}
	byName := make(map[string]host.ControlPort, len(controls))
	byIndex := make(map[int]host.ControlPort, len(controls))
	for _, c := range controls {
		byName[c.Name] = c
		byIndex[c.Index] = c
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c, ok := byName[k]
		if !ok {
			idx, err := strconv.Atoi(k)
			if err == nil {
				c, ok = byIndex[idx]
			}
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPort, k)
		}
		c.Set(values[k])
	}
	return nil
}

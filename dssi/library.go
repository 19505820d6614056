// Package dssi loads DSSI synthesis plugins from shared objects through the
// system dynamic loader and exposes them as plugin.Descriptor values.
package dssi

// #include <dssi.h>
import "C"

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/cwbudde/dssi-render/plugin"
)

// Library is an open plugin shared object. Descriptors and instances it
// hands out are valid until Close.
type Library struct {
	path      string
	handle    unsafe.Pointer
	entry     unsafe.Pointer
	instances []*instance
	closed    bool
}

// Open loads the shared object at path and looks up its descriptor entry
// point. path is passed to the loader unchanged.
func Open(path string) (*Library, error) {
	h, err := dlopen(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return newLibrary(h, path)
}

func newLibrary(handle unsafe.Pointer, path string) (*Library, error) {
	entry, err := dlsym(handle, descriptorSymbol)
	if err != nil {
		_ = dlclose(handle)
		return nil, fmt.Errorf("%w: %s: %w", ErrNotDSSI, path, err)
	}
	return &Library{path: path, handle: handle, entry: entry}, nil
}

// Load resolves a "path[:label]" locator against dirs, opens the library
// and selects the descriptor. The caller closes the returned Library.
func Load(locator string, dirs []string, logger *slog.Logger) (*Library, plugin.Descriptor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path, label := plugin.ParseLocator(locator)
	h, resolved, err := plugin.Resolve(path, dirs, dlopen, logger)
	if err != nil {
		return nil, nil, err
	}
	lib, err := newLibrary(h, resolved)
	if err != nil {
		return nil, nil, err
	}
	desc, err := lib.Lookup(label)
	if err != nil {
		_ = lib.Close()
		return nil, nil, err
	}
	logger.Debug("loaded plugin", "path", resolved, "label", desc.Label(), "name", desc.Name(),
		"capabilities", desc.Capabilities().String())
	return lib, desc, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// Descriptors returns the whole descriptor table.
func (l *Library) Descriptors() ([]plugin.Descriptor, error) {
	if l.closed {
		return nil, ErrClosed
	}
	var out []plugin.Descriptor
	for i := C.ulong(0); ; i++ {
		d := descriptorAt(l.entry, i)
		if d == nil {
			return out, nil
		}
		out = append(out, newDescriptor(l, d))
	}
}

// Lookup returns the descriptor with the given label, or the first one
// when label is empty. The descriptor must be able to render.
func (l *Library) Lookup(label string) (plugin.Descriptor, error) {
	descs, err := l.Descriptors()
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		if label != "" && d.Label() != label {
			continue
		}
		if !d.Capabilities().CanRender() {
			return nil, fmt.Errorf("%s: %w", d.Label(), ErrNoRenderCallback)
		}
		return d, nil
	}
	if label == "" {
		return nil, fmt.Errorf("%w: %s has no descriptors", ErrLabelNotFound, l.path)
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrLabelNotFound, label, l.path)
}

// Close cleans up any live instances and unloads the library.
func (l *Library) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	for _, inst := range l.instances {
		inst.Cleanup()
	}
	l.instances = nil
	if err := dlclose(l.handle); err != nil {
		return fmt.Errorf("unloading %s: %w", l.path, err)
	}
	return nil
}

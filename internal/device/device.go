// Package device instantiates channel-kind catalogues into named device
// instances: one working-set clone of every catalogue variable per
// device, so grouping/pruning mutation on one check never leaks into the
// catalogue or into a sibling worker's clone of the same device.
package device

import (
	"fmt"
	"sort"

	"safechain/internal/catalog"
	"safechain/internal/value"
)

// Device is one instantiated device: a name, the channel kind it was
// built from, and a working copy of that kind's variable declarations.
type Device struct {
	Name        string
	ChannelKind string
	Catalog     *catalog.Catalog
	Variables   map[string]*value.Variable
}

// New instantiates a device named name from cat, cloning every variable
// declaration into its own working copy.
func New(name string, cat *catalog.Catalog) *Device {
	vars := make(map[string]*value.Variable, len(cat.Variables))
	for vn, v := range cat.Variables {
		vars[vn] = v.Clone()
	}
	return &Device{Name: name, ChannelKind: cat.ChannelKind, Catalog: cat, Variables: vars}
}

// Variable looks up one of this device's working-set variables by name.
func (d *Device) Variable(name string) (*value.Variable, error) {
	v, ok := d.Variables[name]
	if !ok {
		return nil, fmt.Errorf("device %s: unknown variable %q", d.Name, name)
	}
	return v, nil
}

// HasVariable reports whether name is one of this device's variables.
func (d *Device) HasVariable(name string) bool {
	_, ok := d.Variables[name]
	return ok
}

// VariableNames returns this device's variable names, sorted, for
// deterministic iteration during model emission.
func (d *Device) VariableNames() []string {
	names := make([]string, 0, len(d.Variables))
	for n := range d.Variables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetState applies a concrete valuation, keyed by variable name, to the
// current Value of this device's variables.
func (d *Device) SetState(state map[string]value.Literal) error {
	for name, val := range state {
		v, err := d.Variable(name)
		if err != nil {
			return err
		}
		v.Value = val
	}
	return nil
}

// Pruned reports whether every one of this device's variables has been
// pruned, meaning the device itself can be omitted from model emission.
func (d *Device) Pruned() bool {
	for _, v := range d.Variables {
		if !v.Pruned() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of d with freshly cloned variables,
// for the explicit per-worker isolation §5 requires.
func (d *Device) Clone() *Device {
	vars := make(map[string]*value.Variable, len(d.Variables))
	for n, v := range d.Variables {
		vars[n] = v.Clone()
		vars[n].Value = v.Value
	}
	return &Device{Name: d.Name, ChannelKind: d.ChannelKind, Catalog: d.Catalog, Variables: vars}
}

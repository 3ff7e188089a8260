// Package controller is the compiler's center of gravity: it owns the
// instantiated devices and bound rules, assembles per-variable
// transitions, applies the grouping and pruning optimizations, emits the
// textual model a policy checks, and drives the rule-satisfaction probe
// used for counter-example attribution.
package controller

import (
	"fmt"
	"sort"

	hashset "github.com/hashicorp/go-set/v3"

	"safechain/internal/catalog"
	"safechain/internal/cond"
	"safechain/internal/config"
	"safechain/internal/device"
	"safechain/internal/rng"
	"safechain/internal/rule"
	"safechain/internal/template"
	"safechain/internal/value"
)

// Controller is the working set for one check: its devices, its bound
// rules, the attacker-observable (vulnerable) variables, and the
// grouping/pruning/custom state those checks mutate. Per §5, a
// Controller is never shared across workers — Clone hands out an
// independent copy.
type Controller struct {
	Devices     map[string]*device.Device
	Rules       []*rule.Rule
	Vulnerables *hashset.Set[cond.VarRef]
	Config      config.Config

	customsBound bool
	groupingOn   bool
	pruningOn    bool

	survivingRules *hashset.Set[string]
}

// New builds an empty controller over the given devices.
func New(devices map[string]*device.Device, cfg config.Config) *Controller {
	return &Controller{
		Devices:     devices,
		Vulnerables: hashset.New[cond.VarRef](0),
		Config:      cfg,
	}
}

// Variable implements cond.Resolver: it looks up a device's working-set
// variable, surfacing an unknown-device/unknown-variable reference as a
// fatal composition error per §7.1's taxonomy.
func (c *Controller) Variable(deviceName, variableName string) (*value.Variable, error) {
	d, err := c.Device(deviceName)
	if err != nil {
		return nil, err
	}
	return d.Variable(variableName)
}

// Device looks up a device instance by name.
func (c *Controller) Device(name string) (*device.Device, error) {
	d, ok := c.Devices[name]
	if !ok {
		return nil, fmt.Errorf("controller: unknown device %q", name)
	}
	return d, nil
}

// AddVulnerable marks (deviceName, variableName) as attacker-observable.
func (c *Controller) AddVulnerable(deviceName, variableName string) error {
	d, err := c.Device(deviceName)
	if err != nil {
		return err
	}
	if !d.HasVariable(variableName) {
		return fmt.Errorf("controller: device %s has no variable %q", deviceName, variableName)
	}
	c.Vulnerables.Insert(cond.VarRef{Device: deviceName, Variable: variableName})
	return nil
}

// AddVulnerableDevice marks every variable of deviceName as vulnerable.
func (c *Controller) AddVulnerableDevice(deviceName string) error {
	d, err := c.Device(deviceName)
	if err != nil {
		return err
	}
	for _, vn := range d.VariableNames() {
		c.Vulnerables.Insert(cond.VarRef{Device: deviceName, Variable: vn})
	}
	return nil
}

// AddRule composes a catalogue trigger and action, bound with concrete
// parameters, into a rule and appends it, preserving insertion order per
// §4.4's ordering requirement. Every referenced device must already
// exist; an unknown device or variable is a fatal composition error.
func (c *Controller) AddRule(name string, triggerKind string, trig catalog.Trigger, triggerArgs []string, actionKind string, act catalog.Action, actionArgs []string) error {
	r, err := rule.Bind(name, triggerKind, trig, triggerArgs, actionKind, act, actionArgs)
	if err != nil {
		return err
	}
	if err := c.validateRuleReferences(r); err != nil {
		return err
	}
	c.Rules = append(c.Rules, r)
	return nil
}

func (c *Controller) validateRuleReferences(r *rule.Rule) error {
	for _, vr := range r.Variables() {
		d, err := c.Device(vr.Device)
		if err != nil {
			return fmt.Errorf("rule %s: %w", r.Name, err)
		}
		if !d.HasVariable(vr.Variable) {
			return fmt.Errorf("rule %s: device %s has no variable %q", r.Name, vr.Device, vr.Variable)
		}
	}
	return nil
}

// TouchedVariables returns every (device, variable) mentioned by at
// least one rule — the `self.device_variables` set of the original,
// which gates which variables ever get a `VAR`/`next()` declaration at
// all (a variable no rule ever mentions is frozen at its initial value
// and omitted from the emitted model entirely).
func (c *Controller) TouchedVariables() *hashset.Set[cond.VarRef] {
	touched := hashset.New[cond.VarRef](0)
	for _, r := range c.Rules {
		for _, vr := range r.Variables() {
			touched.Insert(vr)
		}
	}
	return touched
}

// BindCustoms instantiates every device's custom auto-rules exactly
// once, and only for devices that actually appear in some existing
// rule's variable set — mirroring Device.addCustomRules's guard that
// checks the device is already present in controller.device_variables.
// Idempotent: a second call is a no-op.
func (c *Controller) BindCustoms() error {
	if c.customsBound {
		return nil
	}
	c.customsBound = true

	active := hashset.New[string](0)
	for _, r := range c.Rules {
		for _, vr := range r.Variables() {
			active.Insert(vr.Device)
		}
	}

	names := make([]string, 0, len(c.Devices))
	for n := range c.Devices {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		d := c.Devices[name]
		if !active.Contains(name) {
			continue
		}
		for _, custom := range d.Catalog.Customs {
			trig, ok := d.Catalog.Triggers[custom.Trigger]
			if !ok {
				return fmt.Errorf("device %s: custom %s references unknown trigger %s", name, custom.Name, custom.Trigger)
			}
			act, ok := d.Catalog.Actions[custom.Action]
			if !ok {
				return fmt.Errorf("device %s: custom %s references unknown action %s", name, custom.Name, custom.Action)
			}
			ruleName := fmt.Sprintf("%s_%s", name, custom.Name)
			if err := c.AddRule(ruleName, d.ChannelKind, trig, []string{name}, d.ChannelKind, act, []string{name}); err != nil {
				return fmt.Errorf("device %s: custom %s: %w", name, custom.Name, err)
			}
		}
	}
	return nil
}

// FeasibleInputs returns the set of legal values for the next positional
// slot of a trigger/action input definition given the parameters already
// chosen, per §4.3. Returns (nil, nil) once every slot has been filled.
func (c *Controller) FeasibleInputs(slots []catalog.InputSlot, params []string) ([]string, error) {
	if len(params) >= len(slots) {
		return nil, nil
	}
	slot := slots[len(params)]

	var feasible []string
	switch slot.Type {
	case "device":
		kinds := hashset.From(slot.Device)
		for name, d := range c.Devices {
			if kinds.Contains(d.ChannelKind) {
				feasible = append(feasible, name)
			}
		}
	case "variable":
		deviceName, err := template.Expand(slot.DeviceRef, params)
		if err != nil {
			return nil, err
		}
		d, err := c.Device(deviceName)
		if err != nil {
			return nil, err
		}
		feasible = d.VariableNames()
	case "value":
		deviceName, err := template.Expand(slot.DeviceRef, params)
		if err != nil {
			return nil, err
		}
		variableName, err := template.Expand(slot.Variable, params)
		if err != nil {
			return nil, err
		}
		v, err := c.Variable(deviceName, variableName)
		if err != nil {
			return nil, err
		}
		for _, lit := range v.PossibleValues() {
			feasible = append(feasible, lit.String())
		}
	case "set":
		feasible = append(feasible, slot.Elements...)
	default:
		return nil, fmt.Errorf("controller: unknown input slot type %q", slot.Type)
	}

	if len(slot.Exceptions) > 0 {
		excluded := hashset.From(slot.Exceptions)
		kept := feasible[:0]
		for _, f := range feasible {
			if !excluded.Contains(f) {
				kept = append(kept, f)
			}
		}
		feasible = kept
	}

	if feasible == nil {
		feasible = []string{}
	}
	sort.Strings(feasible)
	return feasible, nil
}

// ChooseInputs fills every slot of a trigger/action input definition by
// repeatedly calling FeasibleInputs and handing the candidates to
// chooser, per §9's redesign note making getFeasibleInputsForTrigger/
// getFeasibleInputsForAction's random.choice pluggable. Passing an
// rng.Random drives random rule generation (property tests); passing
// an rng.Exhaustive and calling ChooseInputs repeatedly until the
// returned slice repeats drives exhaustive enumeration.
func (c *Controller) ChooseInputs(slots []catalog.InputSlot, chooser rng.Chooser) ([]string, error) {
	var params []string
	for {
		feasible, err := c.FeasibleInputs(slots, params)
		if err != nil {
			return nil, err
		}
		if feasible == nil {
			return params, nil
		}
		if len(feasible) == 0 {
			return nil, fmt.Errorf("controller: no feasible input for slot %d", len(params))
		}
		params = append(params, chooser.Choose(feasible))
	}
}

// Clone returns an independent controller: cloned device working sets
// (so grouping/pruning mutation is isolated), the same rule slice
// (rules themselves are immutable once bound), and a copy of the
// vulnerable set.
func (c *Controller) Clone() *Controller {
	devices := make(map[string]*device.Device, len(c.Devices))
	for n, d := range c.Devices {
		devices[n] = d.Clone()
	}
	return &Controller{
		Devices:      devices,
		Rules:        append([]*rule.Rule(nil), c.Rules...),
		Vulnerables:  c.Vulnerables.Copy(),
		Config:       c.Config,
		customsBound: c.customsBound,
	}
}

// Package catalog ingests the external channel-kind catalogue (§6): the
// JSON declaration of a device type's variables, triggers, actions, and
// customs, and compiles it into the value-domain declarations the rest
// of the module builds on.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"safechain/internal/template"
	"safechain/internal/value"
)

// InputSlot is one positional parameter of a trigger or action, per §6's
// `input` array: a typed slot (device, variable, value, or set) with an
// optional list of values that are never legal in that slot.
//
//   - device: Device names the legal channel kinds for this slot.
//   - variable, value: DeviceRef is a `{n}` template referencing an
//     earlier slot's bound device name; value additionally carries
//     Variable, a template for the variable name to draw the domain from.
//   - set: Elements is the explicit legal-value list.
type InputSlot struct {
	Type       string   `json:"type"`
	Device     []string `json:"device,omitempty"`
	DeviceRef  string   `json:"deviceRef,omitempty"`
	Variable   string   `json:"variable,omitempty"`
	Elements   []string `json:"setValue,omitempty"`
	Exceptions []string `json:"exceptions,omitempty"`
}

// Situation is one (optional guard, assignment) pair from an action's
// `definition` array.
type Situation struct {
	Boolean    string `json:"boolean,omitempty"`
	Assignment string `json:"assignment"`
}

type variableSpec struct {
	Type       string   `json:"type"`
	SetValue   []string `json:"setValue,omitempty"`
	MinValue   int      `json:"minValue,omitempty"`
	MaxValue   int      `json:"maxValue,omitempty"`
	Repeat     bool     `json:"repeat,omitempty"`
	ResetValue *int     `json:"resetValue,omitempty"`
	Previous   bool     `json:"previous,omitempty"`
}

type triggerSpec struct {
	Input      []InputSlot `json:"input"`
	Definition struct {
		Boolean string `json:"boolean"`
	} `json:"definition"`
}

type actionSpec struct {
	Input      []InputSlot `json:"input"`
	Definition []Situation `json:"definition"`
}

type customSpec struct {
	Name    string `json:"name"`
	Trigger string `json:"trigger"`
	Action  string `json:"action"`
}

type document struct {
	Variables map[string]variableSpec `json:"variables"`
	Triggers  map[string]triggerSpec  `json:"triggers"`
	Actions   map[string]actionSpec   `json:"actions"`
	Customs   []customSpec            `json:"customs,omitempty"`
}

// Trigger is a compiled trigger definition: the input slot shape plus
// the boolean template rules bind parameters against.
type Trigger struct {
	Name    string
	Input   []InputSlot
	Boolean string
}

// Action is a compiled action definition: the input slot shape plus the
// ordered list of guarded assignment templates.
type Action struct {
	Name       string
	Input      []InputSlot
	Situations []Situation
}

// Custom names the trigger/action pair a channel kind wants instantiated
// automatically, once per device of that kind that appears in some rule
// (the countdown-timer auto-decrement is the canonical example).
type Custom struct {
	Name    string
	Trigger string
	Action  string
}

// Catalog is one channel kind's compiled declaration: its variable
// domains and its trigger/action/custom vocabulary.
type Catalog struct {
	ChannelKind string
	Variables   map[string]*value.Variable
	Triggers    map[string]Trigger
	Actions     map[string]Action
	Customs     []Custom
}

// Parse compiles a channel kind's JSON declaration, collecting every
// validation failure (rather than stopping at the first) via
// go-multierror so a malformed catalogue reports all of its problems at
// once, matching the spirit of checkDefinitionErrors being consulted for
// every variable before construction gives up.
func Parse(channelKind string, data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog %s: invalid JSON: %w", channelKind, err)
	}

	cat := &Catalog{
		ChannelKind: channelKind,
		Variables:   map[string]*value.Variable{},
		Triggers:    map[string]Trigger{},
		Actions:     map[string]Action{},
	}

	var errs *multierror.Error

	for name, spec := range doc.Variables {
		v, err := compileVariable(channelKind, name, spec)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		cat.Variables[name] = v
	}

	for name, spec := range doc.Triggers {
		if err := validateArity(channelKind, "trigger", name, spec.Input, spec.Definition.Boolean); err != nil {
			errs = multierror.Append(errs, err)
		}
		cat.Triggers[name] = Trigger{Name: name, Input: spec.Input, Boolean: spec.Definition.Boolean}
	}

	for name, spec := range doc.Actions {
		for i, sit := range spec.Definition {
			if sit.Boolean != "" {
				if err := validateArity(channelKind, "action", name, spec.Input, sit.Boolean); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
			if err := validateArity(channelKind, "action", name, spec.Input, sit.Assignment); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%w (situation %d)", err, i))
			}
		}
		cat.Actions[name] = Action{Name: name, Input: spec.Input, Situations: spec.Definition}
	}

	for _, c := range doc.Customs {
		if _, ok := cat.Triggers[c.Trigger]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("catalog %s: custom %s references unknown trigger %s", channelKind, c.Name, c.Trigger))
		}
		if _, ok := cat.Actions[c.Action]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("catalog %s: custom %s references unknown action %s", channelKind, c.Name, c.Action))
		}
		cat.Customs = append(cat.Customs, Custom{Name: c.Name, Trigger: c.Trigger, Action: c.Action})
	}

	if errs.ErrorOrNil() != nil {
		return nil, errs
	}
	return cat, nil
}

func compileVariable(channelKind, name string, spec variableSpec) (*value.Variable, error) {
	switch spec.Type {
	case "boolean":
		return value.NewBoolean(channelKind, name, spec.Previous), nil
	case "set":
		return value.NewSet(channelKind, name, spec.SetValue, spec.Previous)
	case "range":
		var reset *value.Literal
		if spec.ResetValue != nil {
			lit := value.Int(*spec.ResetValue)
			reset = &lit
		}
		return value.NewRange(channelKind, name, spec.MinValue, spec.MaxValue, reset, spec.Previous)
	case "timer":
		return value.NewTimer(channelKind, name, spec.MaxValue, spec.Repeat, spec.Previous)
	default:
		return nil, fmt.Errorf("catalog %s: variable %s has unknown type %q", channelKind, name, spec.Type)
	}
}

// validateArity checks that a template's highest placeholder index is
// within the declared input slot count.
func validateArity(channelKind, kind, name string, input []InputSlot, tpl string) error {
	if tpl == "" {
		return nil
	}
	n, err := template.Arity(tpl)
	if err != nil {
		return fmt.Errorf("catalog %s: %s %s: %w", channelKind, kind, name, err)
	}
	if n > len(input) {
		return fmt.Errorf("catalog %s: %s %s: template references slot {%d} but only %d input(s) declared", channelKind, kind, name, n-1, len(input))
	}
	return nil
}

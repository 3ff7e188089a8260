// Package rule binds a catalogue trigger and action, each with concrete
// positional arguments, into a single trigger-action rule: the unit the
// controller compiles into transitions.
package rule

import (
	"fmt"

	"safechain/internal/catalog"
	"safechain/internal/cond"
	"safechain/internal/template"
)

// Situation is one guarded assignment of a bound action, mirroring
// Action.py's (boolean, assignment) pair. Guard is nil when the
// situation carries no boolean (always fires).
type Situation struct {
	Guard      cond.Condition
	Assignment cond.Condition
}

// Rule is one trigger-action pair bound with concrete parameters, ready
// to contribute transitions and conditions to a controller.
type Rule struct {
	Name string

	TriggerChannelKind string
	TriggerName        string
	TriggerCondition   cond.Condition

	ActionChannelKind string
	ActionName        string
	Situations        []Situation
}

// Bind instantiates trig and act against their respective positional
// argument lists, expanding each template and parsing the result,
// producing a fully-formed Rule. Mirrors Trigger.__init__ / Action.__init__
// composing a catalogue definition with a rule's concrete parameters.
func Bind(name string, triggerKind string, trig catalog.Trigger, triggerArgs []string, actionKind string, act catalog.Action, actionArgs []string) (*Rule, error) {
	triggerText, err := template.Expand(trig.Boolean, triggerArgs)
	if err != nil {
		return nil, fmt.Errorf("rule %s: trigger %s: %w", name, trig.Name, err)
	}
	triggerCond, err := cond.Parse(triggerText)
	if err != nil {
		return nil, fmt.Errorf("rule %s: trigger %s: %w", name, trig.Name, err)
	}

	situations := make([]Situation, 0, len(act.Situations))
	for i, sit := range act.Situations {
		var guard cond.Condition
		if sit.Boolean != "" {
			text, err := template.Expand(sit.Boolean, actionArgs)
			if err != nil {
				return nil, fmt.Errorf("rule %s: action %s situation %d: %w", name, act.Name, i, err)
			}
			guard, err = cond.Parse(text)
			if err != nil {
				return nil, fmt.Errorf("rule %s: action %s situation %d: %w", name, act.Name, i, err)
			}
		}

		assignText, err := template.Expand(sit.Assignment, actionArgs)
		if err != nil {
			return nil, fmt.Errorf("rule %s: action %s situation %d: %w", name, act.Name, i, err)
		}
		assignment, err := cond.ParseAssignment(assignText)
		if err != nil {
			return nil, fmt.Errorf("rule %s: action %s situation %d: %w", name, act.Name, i, err)
		}

		situations = append(situations, Situation{Guard: guard, Assignment: assignment})
	}

	return &Rule{
		Name:               name,
		TriggerChannelKind: triggerKind,
		TriggerName:        trig.Name,
		TriggerCondition:   triggerCond,
		ActionChannelKind:  actionKind,
		ActionName:         act.Name,
		Situations:         situations,
	}, nil
}

// TriggerConditions yields the trigger's own condition plus every
// situation guard, mirroring Rule.py's getTriggerConditions (trigger
// conditions ∪ action's trigger conditions, i.e. the guards).
func (r *Rule) TriggerConditions() []cond.Condition {
	out := []cond.Condition{r.TriggerCondition}
	for _, s := range r.Situations {
		if s.Guard != nil {
			out = append(out, s.Guard)
		}
	}
	return out
}

// ActionConditions yields every situation's assignment condition.
func (r *Rule) ActionConditions() []cond.Condition {
	out := make([]cond.Condition, 0, len(r.Situations))
	for _, s := range r.Situations {
		out = append(out, s.Assignment)
	}
	return out
}

// Conditions is the union consulted by grouping and pruning passes.
func (r *Rule) Conditions() []cond.Condition {
	return append(r.TriggerConditions(), r.ActionConditions()...)
}

// Variables returns every distinct (device, variable) pair this rule
// mentions, across both trigger and action conditions.
func (r *Rule) Variables() []cond.VarRef {
	seen := map[cond.VarRef]bool{}
	var out []cond.VarRef
	for _, c := range r.Conditions() {
		for _, vr := range cond.Variables(c) {
			if !seen[vr] {
				seen[vr] = true
				out = append(out, vr)
			}
		}
	}
	return out
}

// Transition is one guarded (variable, value) assignment this rule
// contributes to a variable's case table.
type Transition struct {
	Guard    cond.Condition // nil means unconditional (TRUE)
	Target   cond.Ref
	Object   cond.Object
	RuleName string
}

// Transitions expands every situation's assignment into one Transition
// per atom, combining the trigger condition with the situation's guard —
// eliding either side when it is trivially TRUE — per Rule.py's
// getTransitions.
func (r *Rule) Transitions() []Transition {
	var out []Transition
	triggerTrivial := isTrue(r.TriggerCondition)

	for _, s := range r.Situations {
		guardTrivial := s.Guard == nil || isTrue(s.Guard)
		var guard cond.Condition
		switch {
		case !triggerTrivial && !guardTrivial:
			guard = &cond.And{Left: r.TriggerCondition, Right: s.Guard}
		case !triggerTrivial:
			guard = r.TriggerCondition
		case !guardTrivial:
			guard = s.Guard
		default:
			guard = nil
		}

		for _, atom := range cond.Atoms(s.Assignment) {
			out = append(out, Transition{Guard: guard, Target: atom.Subject, Object: atom.Object, RuleName: r.Name})
		}
	}
	return out
}

func isTrue(c cond.Condition) bool {
	_, ok := c.(*cond.True)
	return ok
}

// Dependency is a (trigger variable, action variable) pair, one edge of
// the rule dependency graph pruning builds.
type Dependency struct {
	Trigger cond.VarRef
	Action  cond.VarRef
}

// Dependencies yields the cross product of trigger variables and action
// variables, per Rule.py's getDependencies (itertools.product).
func (r *Rule) Dependencies() []Dependency {
	var triggerVars, actionVars []cond.VarRef
	seenT, seenA := map[cond.VarRef]bool{}, map[cond.VarRef]bool{}
	for _, c := range r.TriggerConditions() {
		for _, vr := range cond.Variables(c) {
			if !seenT[vr] {
				seenT[vr] = true
				triggerVars = append(triggerVars, vr)
			}
		}
	}
	for _, c := range r.ActionConditions() {
		for _, vr := range cond.Variables(c) {
			if !seenA[vr] {
				seenA[vr] = true
				actionVars = append(actionVars, vr)
			}
		}
	}

	deps := make([]Dependency, 0, len(triggerVars)*len(actionVars))
	for _, t := range triggerVars {
		for _, a := range actionVars {
			deps = append(deps, Dependency{Trigger: t, Action: a})
		}
	}
	return deps
}

package controller

import (
	"sort"

	"safechain/internal/cond"
	"safechain/internal/value"
)

// CaseRow is one row of a variable's eventual `next(v):= case ... esac`
// block: a guard condition (nil means unconditional/TRUE) and the literal
// right-hand-side text to assign when the guard holds, tagged with the
// name of the rule (or the synthetic "RESET"/"ATTACK" pseudo-rule) that
// contributed it, so trace attribution (§4.8) can name a cause.
type CaseRow struct {
	Guard    cond.Condition // nil is TRUE
	RHS      string
	RuleName string
	Random   bool // RHS came from the `random` assignment sentinel
}

// reset, attack are the two synthetic pseudo-rule names §4.5.1's
// transition assembly inserts alongside rule-induced rows.
const (
	ruleNameReset  = "RESET"
	ruleNameAttack = "ATTACK"
)

// Transitions assembles, for every (device, variable) any rule ever
// touches, its ordered list of case rows: rule-induced rows in rule
// insertion order, then (only if that list is already non-empty) a
// trailing unconditional RESET row for variables with an auto-reset
// value, with a leading (not trailing) ATTACK row prepended ahead of
// everything else for vulnerable variables — also only when the list
// is already non-empty, since an attack on a variable no rule ever
// assigns would have nothing to override. A variable with no rows at
// all stays frozen: its model declaration omits `next()` entirely.
//
// Grounded on Controller.py's getTransitions: the "because no rules"
// comments guarding both the reset and attack appends are the reason
// both are conditional on pre-existing entries, and the attack row is
// inserted at index 0 (true prepend, not append).
func (c *Controller) Transitions() map[cond.VarRef][]CaseRow {
	out := map[cond.VarRef][]CaseRow{}

	for _, r := range c.Rules {
		for _, t := range r.Transitions() {
			v, err := c.Variable(t.Target.Device, t.Target.Variable)
			if err != nil || v.Pruned() {
				continue
			}
			rhs, err := cond.AssignmentRHS(t.Target, t.Object, c)
			if err != nil {
				continue
			}
			ref := cond.VarRef{Device: t.Target.Device, Variable: t.Target.Variable}
			out[ref] = append(out[ref], CaseRow{
				Guard:    t.Guard,
				RHS:      rhs,
				RuleName: t.RuleName,
				Random:   t.Object.Kind == cond.ObjLiteral && t.Object.Literal.IsRandom(),
			})
		}
	}

	for devName, d := range c.Devices {
		for _, varName := range d.VariableNames() {
			v, _ := d.Variable(varName)
			if v == nil || v.Reset == nil || v.Pruned() {
				continue
			}
			ref := cond.VarRef{Device: devName, Variable: varName}
			rows, ok := out[ref]
			if !ok || len(rows) == 0 {
				continue
			}
			out[ref] = append(rows, CaseRow{
				Guard:    nil,
				RHS:      v.EquivalentActionCondition(*v.Reset),
				RuleName: ruleNameReset,
			})
		}
	}

	vulnerable := c.Vulnerables.Slice()
	sort.Slice(vulnerable, func(i, j int) bool {
		if vulnerable[i].Device != vulnerable[j].Device {
			return vulnerable[i].Device < vulnerable[j].Device
		}
		return vulnerable[i].Variable < vulnerable[j].Variable
	})
	for _, ref := range vulnerable {
		v, err := c.Variable(ref.Device, ref.Variable)
		if err != nil || v.Pruned() {
			continue
		}
		rows, ok := out[ref]
		if !ok || len(rows) == 0 {
			continue
		}
		prepended := append([]CaseRow{{
			Guard:    attackGuard{},
			RHS:      attackDomain(v),
			RuleName: ruleNameAttack,
		}}, rows...)
		out[ref] = prepended
	}

	return out
}

// attackGuard is the literal `next(attack)` guard text the ATTACK row
// uses in place of a parsed condition: it refers to the attacker's own
// next-state choice rather than any device variable, so it never goes
// through cond.NuSMV's resolver-based rendering.
type attackGuard struct{}

func (attackGuard) isCondition()  {}
func (attackGuard) String() string { return "next(attack)" }

// attackDomain is the full two-valued domain for a boolean variable
// even when grouping has collapsed it to the single {ALL} partition —
// an attacker splitting on a variable's value needs both branches to
// exist, matching Controller.py's special-case string swap for
// `variable_range == 'boolean'`. Every other kind already yields a
// sound case split from PossibleGroupsNuSMV.
func attackDomain(v *value.Variable) string {
	if v.Kind == value.Boolean {
		return v.PossibleValuesNuSMV()
	}
	return v.PossibleGroupsNuSMV()
}

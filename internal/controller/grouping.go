package controller

import (
	"safechain/internal/cond"
	"safechain/internal/policy"
	"safechain/internal/value"
)

// Grouping applies §4.1's state-space reduction: every variable's
// domain collapses to the coarsest partition the conditions that
// actually constrain it allow. It is idempotent and safe to call
// repeatedly — Ungroup always runs first so a second Grouping call over
// a different policy starts from a clean slate, per §5's ordering
// guarantee.
//
// Grounded on Controller.py's grouping method: gather every (op, value)
// constraint any rule or the policy records against a variable first,
// resolve `≡` atoms by merging the two sides' constraint sets, then
// flip every variable's grouped flag — constraints must be fully
// gathered before any flag flips, since PossibleGroupsNuSMV consults
// grouped state.
func (c *Controller) Grouping(p policy.Policy) error {
	c.Ungroup()

	conditions := c.allConditions()
	conditions = append(conditions, p.Constraints(c.Rules)...)

	var equivalences []cond.Constraint
	for _, cn := range conditions {
		for _, ct := range cond.Constraints(cn) {
			if ct.Op == "≡" {
				equivalences = append(equivalences, ct)
				continue
			}
			v, err := c.Variable(ct.Device, ct.Variable)
			if err != nil {
				return err
			}
			v.AddConstraint(ct.Op, ct.Value)
		}
	}

	for _, eq := range equivalences {
		a, err := c.Variable(eq.Device, eq.Variable)
		if err != nil {
			return err
		}
		b, err := c.Variable(eq.EquivDevice, eq.EquivVariable)
		if err != nil {
			return err
		}
		value.MergeConstraints(a, b)
	}

	for _, d := range c.Devices {
		for _, vn := range d.VariableNames() {
			v, _ := d.Variable(vn)
			v.SetGrouping(true)
		}
	}
	c.groupingOn = true
	return nil
}

// Ungroup resets every variable to its raw, unpartitioned domain and
// discards the constraints a prior Grouping pass recorded, so a later
// Grouping call (over a different policy) starts from an empty
// constraint set instead of accumulating duplicates from every pass run
// so far.
func (c *Controller) Ungroup() {
	for _, d := range c.Devices {
		for _, vn := range d.VariableNames() {
			v, _ := d.Variable(vn)
			v.SetGrouping(false)
			v.ClearConstraints()
		}
	}
	c.groupingOn = false
}

// allConditions collects every rule's trigger and action conditions,
// the input the grouping pass scans for constraints.
func (c *Controller) allConditions() []cond.Condition {
	var out []cond.Condition
	for _, r := range c.Rules {
		out = append(out, r.Conditions()...)
	}
	return out
}

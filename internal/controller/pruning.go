package controller

import (
	"sort"

	"safechain/internal/cond"
	"safechain/internal/graph"
	"safechain/internal/policy"
)

// Pruning applies §4.5.4's state-space reduction: every (device,
// variable) not reverse-reachable, in the rule dependency graph, from
// the policy's related variables is marked pruned and omitted from
// model emission and transition assembly. Idempotent — Unprune always
// runs first.
//
// Grounded on pruner.py's predecessor walk, collapsed to the
// variable-granularity dependency graph §4.5.4 describes (see
// internal/graph's own grounding note) rather than the original's
// per-value node graph.
func (c *Controller) Pruning(p policy.Policy) error {
	c.Unprune()

	g := graph.New[cond.VarRef]()
	for _, r := range c.Rules {
		for _, dep := range r.Dependencies() {
			g.AddEdge(dep.Trigger, dep.Action, r.Name)
		}
	}

	related := p.RelatedVariables(c.Rules, c.Vulnerables, g)
	reached, survivingRules := g.ReverseReachable(related)

	for _, d := range c.Devices {
		for _, vn := range d.VariableNames() {
			v, _ := d.Variable(vn)
			ref := cond.VarRef{Device: d.Name, Variable: vn}
			v.SetPruned(!reached.Contains(ref))
		}
	}
	c.pruningOn = true
	c.survivingRules = survivingRules
	return nil
}

// Unprune resets every variable to unpruned.
func (c *Controller) Unprune() {
	for _, d := range c.Devices {
		for _, vn := range d.VariableNames() {
			v, _ := d.Variable(vn)
			v.SetPruned(false)
		}
	}
	c.pruningOn = false
	c.survivingRules = nil
}

// SurvivingRules reports, after a Pruning pass, the names of the rules
// that contributed at least one edge the reverse-reachability walk
// actually traversed — the rules the CLI's --explain-pruning flag
// prints as "why did this variable survive pruning" justification.
// Returns nil if pruning has not run (or was reset by Unprune).
func (c *Controller) SurvivingRules() []string {
	if c.survivingRules == nil {
		return nil
	}
	out := c.survivingRules.Slice()
	sort.Strings(out)
	return out
}

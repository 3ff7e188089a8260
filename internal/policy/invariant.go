package policy

import (
	hashset "github.com/hashicorp/go-set/v3"

	"safechain/internal/cond"
	"safechain/internal/graph"
	"safechain/internal/rule"
)

// Invariant is a temporal safety property (§4.6): a boolean expression
// over device variables that must hold in every reachable state.
//
// Grounded on original_source/policy.py's InvariantPolicy
// (`dump_model`, `getRelatedVariables`, `getConstraints`, `check`),
// generalized from a single comparison tuple to the full cond.Condition
// tree the same way internal/rule generalizes Rule.py.
type Invariant struct {
	PolicyName string
	Condition  cond.Condition
}

// NewInvariant parses text as a full boolean condition and wraps it as
// an Invariant policy named name.
func NewInvariant(name, text string) (*Invariant, error) {
	c, err := cond.Parse(text)
	if err != nil {
		return nil, err
	}
	return &Invariant{PolicyName: name, Condition: c}, nil
}

func (p *Invariant) Name() string { return p.PolicyName }

// RelatedVariables is exactly the variables φ mentions, per
// policy.py's getRelatedVariables — an invariant's pruning pass never
// needs the rule graph or the vulnerable set.
func (p *Invariant) RelatedVariables(_ []*rule.Rule, _ *hashset.Set[cond.VarRef], _ *graph.Graph[cond.VarRef]) []cond.VarRef {
	return cond.Variables(p.Condition)
}

// Constraints is just φ itself: grouping records every literal φ
// compares a variable against, same as any rule condition.
func (p *Invariant) Constraints(_ []*rule.Rule) []cond.Condition {
	return []cond.Condition{p.Condition}
}

// Spec renders φ through the same grouping-aware rewrite every
// condition in the model goes through.
func (p *Invariant) Spec(r cond.Resolver) (string, error) {
	text, err := cond.NuSMV(p.Condition, r, false)
	if err != nil {
		return "", err
	}
	return cond.SimplifyText(text), nil
}

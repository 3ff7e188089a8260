package policy

import (
	"sort"

	hashset "github.com/hashicorp/go-set/v3"

	"safechain/internal/cond"
	"safechain/internal/graph"
	"safechain/internal/rule"
)

// Privacy is a non-interference policy (§4.7): no sequence of
// attacker-visible observations of the vulnerable variable set V can
// distinguish two runs that differ only in the high/secret variable
// set H. Checked via self-composition — two copies of the model,
// "a" and "b" — rather than by reasoning about probability
// distributions directly.
//
// Grounded on original_source/policy.py's PrivacyPolicy
// (`getRelatedVariables` walking `networkx.descendants`,
// `getConstraints` collecting action atoms that write a vulnerable
// variable, and the self-composition INIT/INVAR/TRANS/INVARSPEC
// construction described in the accompanying design notes).
type Privacy struct {
	PolicyName string
	High       *hashset.Set[cond.VarRef]
	Vulnerable *hashset.Set[cond.VarRef]
}

func NewPrivacy(name string, high, vulnerable []cond.VarRef) *Privacy {
	return &Privacy{PolicyName: name, High: hashset.From(high), Vulnerable: hashset.From(vulnerable)}
}

func (p *Privacy) Name() string { return p.PolicyName }

// RelatedVariables is V ∩ descendants_in_G(H): pruning only needs to
// keep the causal ancestors of the vulnerable variables that a
// high/secret input can actually reach — a vulnerable variable H can
// never influence contributes nothing to the non-interference question
// and is safe to prune away, same as any variable an invariant's own
// spec never mentions.
func (p *Privacy) RelatedVariables(_ []*rule.Rule, vulnerable *hashset.Set[cond.VarRef], g *graph.Graph[cond.VarRef]) []cond.VarRef {
	descendants := g.Descendants(p.High.Slice())
	var out []cond.VarRef
	for _, v := range vulnerable.Slice() {
		if descendants.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// Constraints is every action atom, across all rules, that assigns a
// vulnerable variable — the literals grouping needs to know about so a
// vulnerable variable's partitions stay fine enough to distinguish the
// values the attacker can actually observe.
func (p *Privacy) Constraints(rules []*rule.Rule) []cond.Condition {
	var out []cond.Condition
	for _, r := range rules {
		for _, c := range r.ActionConditions() {
			for _, atom := range cond.Atoms(c) {
				if p.Vulnerable.Contains(cond.VarRef{Device: atom.Subject.Device, Variable: atom.Subject.Variable}) {
					out = append(out, atom)
				}
			}
		}
	}
	return out
}

// Spec renders the INVARSPEC text for the self-composed model: the two
// copies agree on every vulnerable variable's value, using the `a_`/`b_`
// device-name prefixes EmitSelfComposedModel instantiates its two
// copies under.
func (p *Privacy) Spec(r cond.Resolver) (string, error) {
	vars := p.Vulnerable.Slice()
	if len(vars) == 0 {
		return "TRUE", nil
	}
	sort.Slice(vars, func(i, j int) bool {
		if vars[i].Device != vars[j].Device {
			return vars[i].Device < vars[j].Device
		}
		return vars[i].Variable < vars[j].Variable
	})
	var parts []string
	for _, v := range vars {
		parts = append(parts, "a_"+v.Device+"."+v.Variable+" = b_"+v.Device+"."+v.Variable)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out = "(" + out + " & " + p + ")"
	}
	return out, nil
}

package value

import (
	"fmt"
	"sort"
)

// AddConstraint records that val (or, if val is nil, an opaque reference)
// appeared in some atom about v under operator op. Called once per atom
// that mentions v during a grouping pass (Controller.grouping in the
// original), before SetGrouping(true) flips the variable over.
func (v *Variable) AddConstraint(op string, val *Literal) {
	v.constraints = append(v.constraints, constraint{Op: op, Value: val})
}

// MergeConstraints implements the `≡` (variable-to-variable) rule: at the
// moment of the merge, both variables adopt the union of each other's
// constraints, so literals mentioned against either side up to that point
// group identically on both. Callers merge once per `≡` atom encountered
// during the grouping pass, after all atoms have contributed their own
// AddConstraint calls. The union is pairwise, not transitive: in a chain
// `a ≡ b`, `b ≡ c`, the variable that takes part only in the earlier
// merge does not receive the constraints the later merge brings in.
// See DESIGN.md.
func MergeConstraints(a, b *Variable) {
	merged := append(append([]constraint(nil), a.constraints...), b.constraints...)
	a.constraints = merged
	b.constraints = append([]constraint(nil), merged...)
}

// SetGrouping flips whether PossibleGroupsNuSMV and the Equivalent*
// rewrites use the grouped (partitioned) domain or the raw one.
func (v *Variable) SetGrouping(on bool) { v.grouped = on }

// ClearConstraints discards every constraint recorded by AddConstraint
// or MergeConstraints, so a later Grouping pass starts from an empty
// set instead of accumulating duplicates across repeated passes.
func (v *Variable) ClearConstraints() { v.constraints = nil }

func (v *Variable) Grouped() bool { return v.grouped }

func (v *Variable) SetPruned(p bool) { v.pruned = p }
func (v *Variable) Pruned() bool     { return v.pruned }

// hasOpaque reports whether any recorded constraint has no literal value
// (an atom like `a.x ≡ a.y` or an opaque multi-token computation), in
// which case grouping cannot soundly collapse the domain and the full
// domain must be used instead.
func (v *Variable) hasOpaque() bool {
	for _, c := range v.constraints {
		if c.Value == nil {
			return true
		}
	}
	return false
}

func (v *Variable) constraintTokens() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range v.constraints {
		if c.Value == nil || c.Value.IsInt {
			continue
		}
		if !seen[c.Value.Token] {
			seen[c.Value.Token] = true
			out = append(out, c.Value.Token)
		}
	}
	sort.Strings(out)
	return out
}

func (v *Variable) constraintInts() []int {
	seen := map[int]bool{}
	var out []int
	for _, c := range v.constraints {
		if c.Value == nil || !c.Value.IsInt {
			continue
		}
		if !seen[c.Value.Int] {
			seen[c.Value.Int] = true
			out = append(out, c.Value.Int)
		}
	}
	return sortedInts(out)
}

func (v *Variable) hasContinuousConstraint() bool {
	for _, c := range v.constraints {
		if c.Op != OpEQ && c.Op != OpNE {
			return true
		}
	}
	return false
}

// PossibleGroupsNuSMV is the textual domain under the current grouping
// state, per the partitioning rules of §4.1.
func (v *Variable) PossibleGroupsNuSMV() string {
	if !v.grouped {
		return v.PossibleValuesNuSMV()
	}

	switch v.Kind {
	case Boolean:
		if len(v.constraints) == 0 {
			return "{ALL}"
		}
		return "{TRUE, FALSE}"

	case Set:
		if v.hasOpaque() {
			return v.PossibleValuesNuSMV()
		}
		toks := v.constraintTokens()
		if len(toks) == 0 {
			return "{ALL}"
		}
		if len(toks) >= len(v.Elements)-1 {
			return v.PossibleValuesNuSMV()
		}
		return setLiteralText(append(append([]string(nil), toks...), "OTHERS"))

	case Range:
		if v.hasOpaque() {
			return v.PossibleValuesNuSMV()
		}
		vals := v.constraintInts()
		if len(vals) == 0 {
			return "{ALL}"
		}
		if v.hasContinuousConstraint() {
			return setLiteralText(v.breakpointLabels(vals))
		}
		if len(vals) >= len(v.PossibleValues())-1 {
			return v.PossibleValuesNuSMV()
		}
		labels := make([]string, 0, len(vals)+1)
		for _, n := range vals {
			labels = append(labels, fmt.Sprint(n))
		}
		labels = append(labels, "OTHERS")
		return setLiteralText(labels)

	case Timer:
		return v.PossibleValuesNuSMV()
	}
	return ""
}

// breakpointLabels builds the order-preserving
// between_min_c0, c0, between_c0_c1, c1, ..., cn, between_cn_max
// sequence, omitting any interval that would be empty, per §4.1.
func (v *Variable) breakpointLabels(vals []int) []string {
	var out []string
	if vals[0] != v.Min {
		out = append(out, fmt.Sprintf("between_min_%d", vals[0]))
	}
	for i := 0; i < len(vals); i++ {
		out = append(out, fmt.Sprint(vals[i]))
		if i+1 < len(vals) {
			if vals[i+1]-vals[i] > 1 {
				out = append(out, fmt.Sprintf("between_%d_%d", vals[i], vals[i+1]))
			}
		}
	}
	if vals[len(vals)-1] != v.Max {
		out = append(out, fmt.Sprintf("between_%d_max", vals[len(vals)-1]))
	}
	return out
}

// EquivalentTriggerCondition rewrites a comparison (op, val) against v to
// its grouped-domain equivalent. Only Range's `<,<=,>,>=` are actually
// rewritten (to `in {labels}`); equality/inequality pass the literal
// through unchanged because singleton partitions are preserved, and the
// grouped domain reuses the literal itself as a breakpoint label.
func (v *Variable) EquivalentTriggerCondition(op string, val Literal) (string, string, error) {
	if !v.grouped {
		return op, val.String(), nil
	}
	if len(v.constraints) == 0 {
		return "", "", fmt.Errorf("ungrouped comparison on %s.%s recorded no constraints", v.ChannelKind, v.Name)
	}

	if v.Kind != Range || op == OpEQ || op == OpNE {
		return op, val.String(), nil
	}

	vals := v.constraintInts()
	if len(vals) == 0 {
		return op, val.String(), nil
	}

	idx := sort.SearchInts(vals, val.Int)
	var labels []string
	if op == OpLT || op == OpLE {
		if vals[0] != v.Min {
			labels = append(labels, fmt.Sprintf("between_min_%d", vals[0]))
		}
		for i := 0; i < idx; i++ {
			labels = append(labels, fmt.Sprint(vals[i]))
			if vals[i+1]-vals[i] > 1 {
				labels = append(labels, fmt.Sprintf("between_%d_%d", vals[i], vals[i+1]))
			}
		}
		if op == OpLE {
			labels = append(labels, fmt.Sprint(vals[idx]))
		}
	} else { // > , >=
		if vals[len(vals)-1] != v.Max {
			labels = append(labels, fmt.Sprintf("between_%d_max", vals[len(vals)-1]))
		}
		for i := len(vals) - 1; i > idx; i-- {
			labels = append(labels, fmt.Sprint(vals[i]))
			if vals[i]-vals[i-1] > 1 {
				labels = append(labels, fmt.Sprintf("between_%d_%d", vals[i-1], vals[i]))
			}
		}
		if op == OpGE {
			labels = append(labels, fmt.Sprint(vals[idx]))
		}
		labels = reverseStrings(labels)
	}

	return "in", setLiteralText(labels), nil
}

func reverseStrings(s []string) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[len(s)-1-i] = x
	}
	return out
}

// EquivalentActionCondition rewrites an assignment literal to its
// grouped-domain equivalent, per getEquivalentAssignmentWithConstraints.
// The `random` sentinel bypasses grouping entirely and always expands to
// the *ungrouped* domain text, matching custom.py's toNuSMVformat.
func (v *Variable) EquivalentActionCondition(val Literal) string {
	if val.isSentinel(Random) {
		return v.PossibleValuesNuSMV()
	}
	if !v.grouped {
		return val.String()
	}

	switch v.Kind {
	case Boolean:
		if len(v.constraints) == 0 {
			return "ALL"
		}
		return val.String()

	case Set:
		if len(v.constraints) == 0 {
			return "ALL"
		}
		toks := v.constraintTokens()
		if len(toks) >= len(v.Elements)-1 {
			return val.String()
		}
		for _, t := range toks {
			if t == val.Token {
				return val.String()
			}
		}
		return "OTHERS"

	case Range:
		if len(v.constraints) == 0 {
			return "ALL"
		}
		vals := v.constraintInts()
		if v.hasContinuousConstraint() {
			for _, n := range vals {
				if n == val.Int {
					return val.String()
				}
			}
			all := append(append([]int(nil), vals...), val.Int)
			all = sortedInts(all)
			idx := sort.SearchInts(all, val.Int)
			switch {
			case idx == 0:
				return fmt.Sprintf("between_min_%d", all[idx+1])
			case idx == len(all)-1:
				return fmt.Sprintf("between_%d_max", all[idx-1])
			default:
				return fmt.Sprintf("between_%d_%d", all[idx-1], all[idx+1])
			}
		}
		if len(vals) >= len(v.PossibleValues())-1 {
			return val.String()
		}
		for _, n := range vals {
			if n == val.Int {
				return val.String()
			}
		}
		return "OTHERS"

	case Timer:
		return val.String()
	}
	return val.String()
}

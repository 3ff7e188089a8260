package controller

import (
	"fmt"
	"sort"
	"strings"

	"safechain/internal/cond"
	"safechain/internal/policy"
)

// EmitSelfComposedModel renders the two-copy self-composition model
// §4.7's non-interference check runs against: the shared per-device
// MODULE bodies (identical between copies — only the top-level
// instantiation differs, so each device's own case-table logic is
// written once and bound twice under different actual parameters),
// plus the top-level wiring that ties the two copies together:
// non-high variables equal at init, `attack` forced equal between
// copies, sensor variables held equal at every step, and a
// best-effort priority-ordered constraint forcing any `random`
// assignment to agree between copies whenever no higher-priority rule
// fires first (so the attacker can't distinguish two runs merely by
// which copy's coin flip happened to differ).
//
// Grounded on the non-interference construction in
// original_source/policy.py's PrivacyPolicy, generalized the same way
// internal/controller's other emission follows dumpNumvModel: shared
// device modules bound twice is the natural NuSMV rendering of self
// composition, since a module's internal `dev.var` references resolve
// through whatever actual parameter was passed at instantiation.
func (c *Controller) EmitSelfComposedModel(p *policy.Privacy, init bool) (string, error) {
	devices := c.participatingDevices()
	transitions := c.Transitions()

	var b strings.Builder
	for _, devName := range devices {
		if err := c.emitDeviceModule(&b, devName, devices, transitions, init); err != nil {
			return "", err
		}
	}

	b.WriteString("MODULE main\n")
	b.WriteString("VAR\n")
	for _, devName := range devices {
		fmt.Fprintf(&b, "  a_%s: %s(a_attack, %s);\n", devName, moduleName(devName), prefixedParams(devices, "a_"))
		fmt.Fprintf(&b, "  b_%s: %s(b_attack, %s);\n", devName, moduleName(devName), prefixedParams(devices, "b_"))
	}
	b.WriteString("\n  a_attack: boolean;\n  b_attack: boolean;\n\n")

	b.WriteString("ASSIGN\n")
	b.WriteString("  init(a_attack) := FALSE;\n")
	b.WriteString("  init(b_attack) := FALSE;\n\n")

	touched := c.TouchedVariables()
	var initEquality, sensorInvar []string
	for _, devName := range devices {
		d, err := c.Device(devName)
		if err != nil {
			return "", err
		}
		for _, vn := range d.VariableNames() {
			ref := cond.VarRef{Device: devName, Variable: vn}
			v, _ := d.Variable(vn)
			if !touched.Contains(ref) || v.Pruned() {
				continue
			}
			qa, qb := "a_"+devName+"."+vn, "b_"+devName+"."+vn
			if !p.High.Contains(ref) {
				initEquality = append(initEquality, fmt.Sprintf("%s = %s", qa, qb))
			}
			if len(transitions[ref]) == 0 && !p.High.Contains(ref) {
				sensorInvar = append(sensorInvar, fmt.Sprintf("%s = %s", qa, qb))
			}
		}
	}
	sort.Strings(initEquality)
	sort.Strings(sensorInvar)

	if len(initEquality) > 0 {
		fmt.Fprintf(&b, "INIT %s;\n\n", strings.Join(initEquality, " & "))
	}
	b.WriteString("INVAR a_attack = b_attack;\n")
	for _, eq := range sensorInvar {
		fmt.Fprintf(&b, "INVAR %s;\n", eq)
	}
	b.WriteString("\n")

	for _, devName := range devices {
		d, _ := c.Device(devName)
		for _, vn := range d.VariableNames() {
			ref := cond.VarRef{Device: devName, Variable: vn}
			rows := transitions[ref]
			trans, err := c.randomAgreementConstraint(devName, vn, rows, devices)
			if err != nil {
				return "", err
			}
			if trans != "" {
				fmt.Fprintf(&b, "TRANS %s;\n", trans)
			}
		}
	}

	spec, err := p.Spec(c)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "\nINVARSPEC %s;\n", spec)

	return b.String(), nil
}

func prefixedParams(devices []string, prefix string) string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = prefix + d
	}
	return strings.Join(out, ", ")
}

// randomAgreementConstraint builds the TRANS line forcing a `random`
// row's choice to agree between copies whenever every higher-priority
// (earlier) row's guard is false on both sides — an approximation of
// full priority-ordered agreement good enough for the single-random-row
// case most catalogues actually produce, and documented in DESIGN.md as
// a simplification of the general N-random-row case.
func (c *Controller) randomAgreementConstraint(devName, varName string, rows []CaseRow, devices []string) (string, error) {
	for i, row := range rows {
		if !row.Random {
			continue
		}
		var higher []string
		for _, earlier := range rows[:i] {
			text, err := renderGuard(earlier.Guard, c)
			if err != nil {
				return "", err
			}
			higher = append(higher, text)
		}
		guardA := prefixDeviceRefs(orJoin(higher), devices, "a_")
		guardB := prefixDeviceRefs(orJoin(higher), devices, "b_")
		ref := "a_" + devName + "." + varName
		refB := "b_" + devName + "." + varName
		return fmt.Sprintf("!(%s | %s) -> (next(%s) = next(%s))", guardA, guardB, ref, refB), nil
	}
	return "", nil
}

func orJoin(parts []string) string {
	if len(parts) == 0 {
		return "FALSE"
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// prefixDeviceRefs rewrites every "deviceName." occurrence in text to
// "prefixdeviceName." — a textual rather than structural rewrite,
// sufficient here because device names never collide with other
// identifier substrings once followed by the qualifying dot.
func prefixDeviceRefs(text string, devices []string, prefix string) string {
	for _, d := range devices {
		text = strings.ReplaceAll(text, d+".", prefix+d+".")
	}
	return text
}

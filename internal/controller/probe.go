package controller

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"safechain/internal/checker"
	"safechain/internal/cond"
)

// Probe is a single concrete valuation ("device.variable" -> NuSMV
// literal text) a rule-satisfaction check is run against — typically
// one state of a counter-example trace, during §4.8's attribution walk.
type Probe map[string]string

// CheckRuleSatisfied asks whether guard holds at state, by emitting a
// minimal FROZENVAR model (every participating variable frozen at its
// probe value, attack forced permanently FALSE) and asking driver to
// check `INVARSPEC guard`. Used by trace attribution to find which
// rule's guard was actually satisfied at a given transition.
//
// Grounded on Controller.py's checkRuleSatisfied: FROZENVAR rather than
// VAR (these variables never change within the probe), the same
// device-filter/parameter-list convention as the full model, and attack
// forced off entirely since the probe is not evaluating an attack, only
// whether one rule's own guard is true at one fixed state.
func (c *Controller) CheckRuleSatisfied(ctx context.Context, driver *checker.Driver, guard cond.Condition, state Probe, timeout time.Duration) (bool, error) {
	model, err := c.emitProbeModel(guard, state)
	if err != nil {
		return false, err
	}
	result, err := driver.Run(ctx, model, false, timeout)
	if err != nil {
		return false, err
	}
	if result.Verdict != checker.Success && result.Verdict != checker.Failed {
		return false, fmt.Errorf("controller: rule-satisfaction probe returned %s", result.Verdict)
	}
	return result.Verdict == checker.Success, nil
}

func (c *Controller) emitProbeModel(guard cond.Condition, state Probe) (string, error) {
	devices := c.participatingDevices()
	touched := c.TouchedVariables()

	var b strings.Builder
	params := moduleParams(devices)
	for _, devName := range devices {
		d, err := c.Device(devName)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "MODULE %s(%s)\n", moduleName(devName), params)
		b.WriteString("FROZENVAR\n")
		var vars []string
		for _, vn := range d.VariableNames() {
			ref := cond.VarRef{Device: devName, Variable: vn}
			if !touched.Contains(ref) {
				continue
			}
			v, _ := d.Variable(vn)
			if v.Pruned() {
				continue
			}
			vars = append(vars, vn)
			fmt.Fprintf(&b, "  %s: %s;\n", vn, v.PossibleGroupsNuSMV())
		}
		b.WriteString("ASSIGN\n")
		for _, vn := range vars {
			qualified := devName + "." + vn
			val, ok := state[qualified]
			if !ok {
				return "", fmt.Errorf("controller: probe state missing value for %s", qualified)
			}
			fmt.Fprintf(&b, "  init(%s):= %s;\n", vn, val)
		}
		b.WriteString("\n")
	}

	b.WriteString("MODULE main\n")
	b.WriteString("VAR\n")
	sorted := append([]string(nil), devices...)
	sort.Strings(sorted)
	for _, devName := range sorted {
		fmt.Fprintf(&b, "  %s: %s(%s);\n", devName, moduleName(devName), params)
	}
	b.WriteString("\n  attack: boolean;\n\n")
	b.WriteString("ASSIGN\n")
	b.WriteString("  attack := FALSE;\n\n")

	guardText, err := renderGuard(guard, c)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "INVARSPEC %s;\n", cond.SimplifyText(guardText))

	return b.String(), nil
}

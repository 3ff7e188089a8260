package controller

import (
	"fmt"
	"sort"
	"strings"

	"safechain/internal/cond"
	"safechain/internal/device"
)

// participatingDevices returns the sorted names of every device that
// still has at least one touched (mentioned by some rule), non-pruned
// variable — the device filter Controller.py applies before emitting
// either the full model or the rule-satisfaction probe, so a device no
// rule ever references (or one pruning has fully eliminated) gets no
// module at all.
func (c *Controller) participatingDevices() []string {
	touched := c.TouchedVariables()
	var names []string
	for name, d := range c.Devices {
		if !c.deviceParticipates(d, touched) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Controller) deviceParticipates(d *device.Device, touched interface {
	Contains(cond.VarRef) bool
}) bool {
	for _, vn := range d.VariableNames() {
		v, _ := d.Variable(vn)
		ref := cond.VarRef{Device: d.Name, Variable: vn}
		if touched.Contains(ref) && !v.Pruned() {
			return true
		}
	}
	return false
}

// moduleParams is the parameter list every participating device's
// module is declared with: `attack` plus every participating device
// name, so a condition inside one device's case table can reference
// another device's variable (the formal parameter shares the actual
// device's name, aliasing it the way Controller.py's
// device_names_string does for every MODULE header it emits).
func moduleParams(devices []string) string {
	return strings.Join(append([]string{"attack"}, devices...), ", ")
}

func moduleName(device string) string {
	return strings.ToUpper(device)
}

// EmitModel renders the full NuSMV-dialect model text a policy checks:
// one module per participating device, declaring each touched
// variable's grouped domain and case-table transition, followed by a
// top-level module instantiating every device plus a free `attack`
// boolean. name is the top-level module's name ("main" or "home" per
// §4.5.2). When init is true, every variable's declared initial value
// comes from its current concrete Value; the probe (emitProbeModel) instead
// seeds state from a caller-supplied map and uses FROZENVAR, so the two
// live in separate functions despite the shared per-device boilerplate.
//
// Grounded on Controller.py's dumpNumvModel: the single-unconditional-
// TRUE-row shortcut (direct `next(v):= rhs;` instead of a case block),
// the `TRUE: v;` self-referential fallback row appended whenever the
// last row isn't already unconditional, and the free (un-assigned)
// `attack` variable that lets the INVARSPEC search range over both
// attacker choices.
func (c *Controller) EmitModel(name string, init bool) (string, error) {
	devices := c.participatingDevices()
	transitions := c.Transitions()

	var b strings.Builder
	for _, devName := range devices {
		if err := c.emitDeviceModule(&b, devName, devices, transitions, init); err != nil {
			return "", err
		}
	}

	fmt.Fprintf(&b, "MODULE %s\n", name)
	b.WriteString("VAR\n")
	params := moduleParams(devices)
	for _, devName := range devices {
		fmt.Fprintf(&b, "  %s: %s(%s);\n", devName, moduleName(devName), params)
	}
	b.WriteString("\n  attack: boolean;\n\n")
	b.WriteString("ASSIGN\n")
	b.WriteString("  init(attack) := FALSE;\n")

	return b.String(), nil
}

func (c *Controller) emitDeviceModule(b *strings.Builder, devName string, allDevices []string, transitions map[cond.VarRef][]CaseRow, init bool) error {
	d, err := c.Device(devName)
	if err != nil {
		return err
	}
	touched := c.TouchedVariables()

	fmt.Fprintf(b, "MODULE %s(%s)\n", moduleName(devName), moduleParams(allDevices))
	b.WriteString("VAR\n")
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
		fmt.Fprintf(b, "  %s: %s;\n", vn, v.PossibleGroupsNuSMV())
	}

	b.WriteString("ASSIGN\n")
	for _, vn := range vars {
		v, _ := d.Variable(vn)
		if init {
			fmt.Fprintf(b, "  init(%s):= %s;\n", vn, v.EquivalentActionCondition(v.Value))
		}
		ref := cond.VarRef{Device: devName, Variable: vn}
		rows := transitions[ref]
		if len(rows) == 0 {
			continue
		}
		if len(rows) == 1 && rows[0].Guard == nil {
			fmt.Fprintf(b, "  next(%s):= %s;\n", vn, rows[0].RHS)
			continue
		}
		fmt.Fprintf(b, "  next(%s):=\n    case\n", vn)
		for _, row := range rows {
			guardText, err := renderGuard(row.Guard, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(b, "      %s: %s; -- %s\n", guardText, row.RHS, row.RuleName)
		}
		if last := rows[len(rows)-1]; last.Guard != nil {
			fmt.Fprintf(b, "      TRUE: %s;\n", vn)
		}
		b.WriteString("    esac;\n")
	}
	b.WriteString("\n")
	return nil
}

// renderGuard renders a case row's guard to NuSMV text: nil is the
// unconditional TRUE row, the synthetic attack guard renders as the
// literal `next(attack)` token, and anything else goes through
// cond.NuSMV's grouping-aware renderer.
func renderGuard(g cond.Condition, r cond.Resolver) (string, error) {
	switch g.(type) {
	case nil:
		return "TRUE", nil
	case attackGuard:
		return "next(attack)", nil
	default:
		text, err := cond.NuSMV(g, r, false)
		if err != nil {
			return "", err
		}
		return cond.SimplifyText(text), nil
	}
}

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/ryanuber/columnize"

	"safechain/internal/checker"
	"safechain/internal/controller"
)

// printVerdict prints a coloured one-line verdict banner, matching
// kanso-cli's color.Green/color.Red success/failure reporting.
func printVerdict(res *controller.Result) {
	switch res.Verdict {
	case checker.Success:
		color.Green("✓ %s: SUCCESS (%s)", res.Policy, res.Elapsed)
	case checker.Failed:
		color.Red("✗ %s: FAILED (%s) — %d-step counter-example found", res.Policy, res.Elapsed, len(res.Trace))
	case checker.TimedOut:
		color.Yellow("? %s: TIMED OUT after %s", res.Policy, res.Elapsed)
	default:
		color.Red("? %s: UNKNOWN (checker output did not parse)", res.Policy)
	}
}

// renderTrace formats a counter-example trace as an aligned table:
// one row per step, one column per device.variable that changes
// anywhere in the trace, cells carrying "value (rule)" for the
// attributed assignment.
func renderTrace(trace []controller.AttributedStep) string {
	if len(trace) == 0 {
		return ""
	}

	keys := map[string]bool{}
	for _, step := range trace {
		for k := range step.Changes {
			keys[k] = true
		}
	}
	columns := make([]string, 0, len(keys))
	for k := range keys {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	lines := make([]string, 0, len(trace)+1)
	header := append([]string{"step"}, columns...)
	lines = append(lines, strings.Join(header, "|"))

	for i, step := range trace {
		row := make([]string, 0, len(columns)+1)
		row = append(row, fmt.Sprintf("%d", i))
		for _, k := range columns {
			if rule, ok := step.Changes[k]; ok {
				row = append(row, fmt.Sprintf("%s (%s)", step.State[k], rule))
			} else {
				row = append(row, "")
			}
		}
		lines = append(lines, strings.Join(row, "|"))
	}

	return columnize.SimpleFormat(lines)
}

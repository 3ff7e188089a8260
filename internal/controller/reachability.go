package controller

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"safechain/internal/checker"
	"safechain/internal/config"
	"safechain/internal/policy"
)

// Reachable asks whether state — a complete "device.variable" -> NuSMV
// literal valuation, e.g. the state at one step of a counter-example
// trace — is reachable at all, independent of any policy. It checks the
// negation of the conjunction of state's equalities as an ordinary
// invariant, with custom/grouping/pruning left exactly as the
// controller already has them for the duration of the probe (restored
// afterwards) rather than re-derived, matching
// PrivacyPolicy.py's checkReachable, which always runs with
// custom=False, pruning=None, grouping=None.
//
// A Failed verdict (the checker found a counter-example to the
// negation) means state is reachable; Success means it is not. Used for
// counter-example sanity-checking in tests and by the CLI's
// --assert-reachable debug flag.
func (c *Controller) Reachable(ctx context.Context, driver *checker.Driver, state Probe, timeout time.Duration) (bool, error) {
	keys := make([]string, 0, len(state))
	for k := range state {
		if k == "attack" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return true, nil
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s = %s", k, state[k]))
	}
	negated := "!(" + strings.Join(parts, " & ") + ")"

	inv, err := policy.NewInvariant("reachability-probe", negated)
	if err != nil {
		return false, err
	}

	orig := c.Config
	probeCfg := orig
	probeCfg.Custom = config.Unset
	probeCfg.Grouping = config.Unset
	probeCfg.Pruning = config.Unset
	probeCfg.Timeout = timeout
	c.Config = probeCfg
	defer func() { c.Config = orig }()

	res, err := c.Check(ctx, inv, driver, nil)
	if err != nil {
		return false, err
	}
	switch res.Verdict {
	case checker.Failed:
		return true, nil
	case checker.Success:
		return false, nil
	default:
		return false, fmt.Errorf("controller: reachability probe returned %s", res.Verdict)
	}
}

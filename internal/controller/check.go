package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"safechain/internal/cache"
	"safechain/internal/checker"
	"safechain/internal/config"
	"safechain/internal/policy"
)

// Result is the outcome of one full check: the policy named, the
// checker's verdict, the attributed counter-example trace (only
// present when the verdict is Failed), and how long the checker ran.
type Result struct {
	Policy  string
	Verdict checker.Verdict
	Trace   []AttributedStep
	Elapsed time.Duration
}

// Check runs one policy against the controller's current rule set: it
// applies this check's custom/grouping/pruning configuration (§6's
// tri-state knobs — for grouping and pruning, Enabled/Disabled apply or
// reset the optimization; for custom, Enabled binds the customs and
// Disabled leaves any already-bound customs in place; Unset leaves
// whatever state the controller is already in), emits the
// appropriate model (self-composed for a privacy policy, a single copy
// for an invariant), runs the checker, and — on a counter-example —
// attributes every state transition to the rule responsible.
//
// store is optional: when non-nil, an identical (model, policy, BMC
// flag) tuple already run is returned from the cache without invoking
// the external checker again.
//
// Grounded on Controller.py's top-level `check` method threading the
// same three tri-state knobs through grouping/pruning/BindCustoms
// before dispatching to dumpNumvModel and the external checker.
func (c *Controller) Check(ctx context.Context, p policy.Policy, driver *checker.Driver, store *cache.Store) (*Result, error) {
	switch c.Config.Custom {
	case config.Enabled:
		if err := c.BindCustoms(); err != nil {
			return nil, err
		}
	}

	switch c.Config.Grouping {
	case config.Enabled:
		if err := c.Grouping(p); err != nil {
			return nil, err
		}
	case config.Disabled:
		c.Ungroup()
	}

	switch c.Config.Pruning {
	case config.Enabled:
		if err := c.Pruning(p); err != nil {
			return nil, err
		}
	case config.Disabled:
		c.Unprune()
	}

	var model string
	var err error
	if priv, ok := p.(*policy.Privacy); ok {
		model, err = c.EmitSelfComposedModel(priv, true)
	} else {
		var body string
		body, err = c.EmitModel("main", true)
		if err == nil {
			var spec string
			spec, err = p.Spec(c)
			if err == nil {
				model = body + fmt.Sprintf("INVARSPEC %s;\n", spec)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	var cacheKey string
	if store != nil {
		cacheKey = cache.Key(model, p.Name(), c.Config.BMC)
		if cached, ok, err := store.Get(cacheKey); err == nil && ok {
			var res Result
			if err := json.Unmarshal(cached, &res); err == nil {
				return &res, nil
			}
		}
	}

	result, err := driver.Run(ctx, model, c.Config.BMC, c.Config.Timeout)
	if err != nil {
		return nil, err
	}

	res := &Result{Policy: p.Name(), Verdict: result.Verdict, Elapsed: result.Elapsed}
	if result.Verdict == checker.Failed && len(result.Trace) > 0 {
		var attributed []AttributedStep
		if _, ok := p.(*policy.Privacy); ok {
			attributed, err = c.AttributePrivacy(ctx, driver, result.Trace, c.Config.Timeout)
		} else {
			attributed, err = c.Attribute(ctx, driver, result.Trace, c.Config.Timeout)
		}
		if err != nil {
			return nil, err
		}
		res.Trace = attributed
	}

	if store != nil {
		if payload, err := json.Marshal(res); err == nil {
			_ = store.Put(cacheKey, payload)
		}
	}
	return res, nil
}

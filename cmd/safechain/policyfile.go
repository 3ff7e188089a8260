package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"safechain/internal/cond"
	"safechain/internal/policy"
)

// varRefSpec is one device.variable reference in a policy file.
type varRefSpec struct {
	Device   string `yaml:"device"`
	Variable string `yaml:"variable"`
}

func (v varRefSpec) ref() cond.VarRef {
	return cond.VarRef{Device: v.Device, Variable: v.Variable}
}

// policySpec is the on-disk policy description: an invariant names a
// condition string (§4.6); a privacy policy names its high/secret
// variables and the vulnerable variables a low observer might read
// (§4.7). vulnerable entries additionally seed the controller's attack
// surface (§4.5's Vulnerables set), so the same list drives both
// non-interference checking and attack-widening regardless of policy
// kind.
type policySpec struct {
	Kind       string       `yaml:"kind"`
	Name       string       `yaml:"name"`
	Condition  string       `yaml:"condition"`
	High       []varRefSpec `yaml:"high"`
	Vulnerable []varRefSpec `yaml:"vulnerable"`
}

func loadPolicySpec(path string) (*policySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	var p policySpec
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("policy: parse %s: %w", path, err)
	}
	return &p, nil
}

// build compiles the policy spec into a policy.Policy plus the
// vulnerable variable references the caller must register with
// Controller.AddVulnerable before grouping/pruning/check.
func (p *policySpec) build() (policy.Policy, []cond.VarRef, error) {
	vulnerable := make([]cond.VarRef, 0, len(p.Vulnerable))
	for _, v := range p.Vulnerable {
		vulnerable = append(vulnerable, v.ref())
	}

	switch p.Kind {
	case "invariant":
		inv, err := policy.NewInvariant(p.Name, p.Condition)
		if err != nil {
			return nil, nil, fmt.Errorf("policy %s: %w", p.Name, err)
		}
		return inv, vulnerable, nil
	case "privacy":
		high := make([]cond.VarRef, 0, len(p.High))
		for _, h := range p.High {
			high = append(high, h.ref())
		}
		return policy.NewPrivacy(p.Name, high, vulnerable), vulnerable, nil
	default:
		return nil, nil, fmt.Errorf("policy %s: unrecognized kind %q (want \"invariant\" or \"privacy\")", p.Name, p.Kind)
	}
}

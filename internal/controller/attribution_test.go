package controller

import (
	"context"
	"testing"

	"safechain/internal/checker"
	"safechain/internal/cond"
)

func TestAttributeChangeAttacksWhenNextStateAttackIsTrue(t *testing.T) {
	c, _ := testController(t)
	rows := []CaseRow{{Guard: attackGuard{}, RuleName: ruleNameAttack, RHS: "TRUE"}}
	next := checker.State{"attack": "TRUE"}

	got, err := c.attributeChange(context.Background(), nil, cond.VarRef{Device: "light1", Variable: "level"}, rows, checker.State{}, next, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != ruleNameAttack {
		t.Fatalf("expected %s, got %s", ruleNameAttack, got)
	}
}

func TestAttributeChangeAttackRowSkippedWhenNextAttackFalse(t *testing.T) {
	c, _ := testController(t)
	rows := []CaseRow{{Guard: attackGuard{}, RuleName: ruleNameAttack, RHS: "TRUE"}}
	next := checker.State{"attack": "FALSE"}

	got, err := c.attributeChange(context.Background(), nil, cond.VarRef{Device: "light1", Variable: "level"}, rows, checker.State{}, next, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != envRule {
		t.Fatalf("expected %s, got %s", envRule, got)
	}
}

// TestAttributeAttributesVulnerableChangeToAttack exercises the full
// Attribute walk (not just attributeChange in isolation): a vulnerable
// variable's ATTACK row sits ahead of its rule row, and the rule's own
// guard never needs probing because the attack row already matches the
// trace's next-state attack flag.
func TestAttributeAttributesVulnerableChangeToAttack(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r2", "light", cat.Triggers["motion"], []string{"light1"}, "light", cat.Actions["dim"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddVulnerable("light1", "level"); err != nil {
		t.Fatal(err)
	}

	trace := []checker.State{
		{"light1.level": "0", "attack": "FALSE"},
		{"light1.level": "3", "attack": "TRUE"},
	}
	steps, err := c.Attribute(context.Background(), nil, trace, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := steps[1].Changes["light1.level"]; got != ruleNameAttack {
		t.Fatalf("expected %s, got %s", ruleNameAttack, got)
	}
}

func TestStripPrefixKeepsOnlyMatchingCopy(t *testing.T) {
	trace := []checker.State{{
		"a_light1.power": "TRUE",
		"b_light1.power": "FALSE",
		"a_attack":       "TRUE",
		"b_attack":       "FALSE",
	}}

	got := stripPrefix(trace, "a_")
	want := checker.State{"light1.power": "TRUE", "attack": "TRUE"}
	if len(got[0]) != len(want) {
		t.Fatalf("expected %v, got %v", want, got[0])
	}
	for k, v := range want {
		if got[0][k] != v {
			t.Errorf("key %s: expected %s, got %s", k, v, got[0][k])
		}
	}
}

// TestAttributePrivacySplitsAndReprefixes checks the a_/b_ split-attribute-
// recombine path end to end: light1.power has no rule touching it in this
// controller, so both copies fall through to envRule without needing a
// real checker probe, and the result's keys come back with their
// original copy prefix restored.
func TestAttributePrivacySplitsAndReprefixes(t *testing.T) {
	c, _ := testController(t)

	trace := []checker.State{
		{"a_light1.power": "FALSE", "b_light1.power": "FALSE", "a_attack": "FALSE", "b_attack": "FALSE"},
		{"a_light1.power": "TRUE", "b_light1.power": "TRUE", "a_attack": "FALSE", "b_attack": "FALSE"},
	}

	steps, err := c.AttributePrivacy(context.Background(), nil, trace, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if got := steps[1].Changes["a_light1.power"]; got != envRule {
		t.Errorf("expected %s, got %s", envRule, got)
	}
	if got := steps[1].Changes["b_light1.power"]; got != envRule {
		t.Errorf("expected %s, got %s", envRule, got)
	}
}

package controller

import (
	"testing"

	"safechain/internal/catalog"
	"safechain/internal/cond"
	"safechain/internal/config"
	"safechain/internal/device"
	"safechain/internal/policy"
	"safechain/internal/rng"
)

const lightCatalogJSON = `{
  "variables": {
    "power": {"type": "boolean"},
    "level": {"type": "range", "minValue": 0, "maxValue": 10, "resetValue": 0}
  },
  "triggers": {
    "turn_on_pressed": {"input": [{"type": "device"}], "definition": {"boolean": "{0}.power = FALSE"}},
    "motion": {"input": [{"type": "device"}], "definition": {"boolean": "{0}.power = TRUE"}}
  },
  "actions": {
    "turn_on": {"input": [{"type": "device"}], "definition": [{"assignment": "{0}.power = TRUE"}]},
    "dim": {"input": [{"type": "device"}], "definition": [{"assignment": "{0}.level = 5"}]}
  }
}`

func testController(t *testing.T) (*Controller, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Parse("light", []byte(lightCatalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	d := device.New("light1", cat)
	c := New(map[string]*device.Device{"light1": d}, config.Default())
	return c, cat
}

func TestTransitionsSkipUntouchedReset(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}

	transitions := c.Transitions()
	powerRef := cond.VarRef{Device: "light1", Variable: "power"}
	levelRef := cond.VarRef{Device: "light1", Variable: "level"}

	rows := transitions[powerRef]
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for power, got %d", len(rows))
	}
	if rows[0].RuleName != "r1" || rows[0].RHS != "TRUE" {
		t.Errorf("unexpected power row: %+v", rows[0])
	}

	if len(transitions[levelRef]) != 0 {
		t.Errorf("level has no rule touching it, reset should stay skipped, got %v", transitions[levelRef])
	}
}

func TestTransitionsResetAppendedWhenTouched(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r2", "light", cat.Triggers["motion"], []string{"light1"}, "light", cat.Actions["dim"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}

	levelRef := cond.VarRef{Device: "light1", Variable: "level"}
	rows := c.Transitions()[levelRef]
	if len(rows) != 2 {
		t.Fatalf("expected rule row + reset row, got %d: %+v", len(rows), rows)
	}
	if rows[0].RuleName != "r2" {
		t.Errorf("expected rule row first, got %+v", rows[0])
	}
	if rows[1].RuleName != ruleNameReset || rows[1].Guard != nil {
		t.Errorf("expected unconditional RESET row last, got %+v", rows[1])
	}
}

func TestTransitionsAttackPrepended(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r2", "light", cat.Triggers["motion"], []string{"light1"}, "light", cat.Actions["dim"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddVulnerable("light1", "level"); err != nil {
		t.Fatal(err)
	}

	levelRef := cond.VarRef{Device: "light1", Variable: "level"}
	rows := c.Transitions()[levelRef]
	if len(rows) != 3 {
		t.Fatalf("expected attack + rule + reset rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].RuleName != ruleNameAttack {
		t.Errorf("expected ATTACK row first, got %+v", rows[0])
	}
	if _, ok := rows[0].Guard.(attackGuard); !ok {
		t.Errorf("expected attackGuard, got %T", rows[0].Guard)
	}
}

func TestUngroupUnpruneNoOpOnFreshController(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}

	v, err := c.Variable("light1", "power")
	if err != nil {
		t.Fatal(err)
	}
	if v.Grouped() {
		t.Fatal("variable should start ungrouped")
	}

	c.Ungroup()
	if v.Grouped() {
		t.Error("Ungroup on an already-ungrouped controller should stay a no-op")
	}

	c.Unprune()
	if v.Pruned() {
		t.Error("Unprune on an already-unpruned controller should stay a no-op")
	}
}

func TestGroupingDoesNotAccumulateConstraintsAcrossRepeatedCalls(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}

	inv, err := policy.NewInvariant("p", "light1.power = TRUE")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Grouping(inv); err != nil {
		t.Fatal(err)
	}
	v, _ := c.Variable("light1", "power")
	first := v.PossibleGroupsNuSMV()

	if err := c.Grouping(inv); err != nil {
		t.Fatal(err)
	}
	second := v.PossibleGroupsNuSMV()

	if first != second {
		t.Fatalf("expected repeated Grouping over the same policy to be idempotent, got %q then %q", first, second)
	}
}

func TestCloneIsolatesDeviceState(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}

	clone := c.Clone()
	v, _ := c.Variable("light1", "power")
	v.SetGrouping(true)

	cv, _ := clone.Variable("light1", "power")
	if cv.Grouped() {
		t.Error("clone's variable should not see the original's grouping mutation")
	}
}

func TestChooseInputsWithExhaustiveVisitsEveryDevice(t *testing.T) {
	cat, err := catalog.Parse("light", []byte(lightCatalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	devices := map[string]*device.Device{
		"light1": device.New("light1", cat),
		"light2": device.New("light2", cat),
	}
	c := New(devices, config.Default())

	slots := cat.Triggers["turn_on_pressed"].Input
	chooser := rng.NewExhaustive()

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		params, err := c.ChooseInputs(slots, chooser)
		if err != nil {
			t.Fatal(err)
		}
		if len(params) != 1 {
			t.Fatalf("expected 1 param, got %v", params)
		}
		seen[params[0]] = true
	}
	if !seen["light1"] || !seen["light2"] {
		t.Fatalf("expected both devices visited across calls, got %v", seen)
	}
}

func TestChooseInputsWithRandomReturnsFeasibleDevice(t *testing.T) {
	c, cat := testController(t)
	slots := cat.Triggers["turn_on_pressed"].Input
	params, err := c.ChooseInputs(slots, rng.NewRandom(7))
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 1 || params[0] != "light1" {
		t.Fatalf("expected [light1], got %v", params)
	}
}

func TestSurvivingRulesNilBeforePruningAndPopulatedAfter(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}

	if got := c.SurvivingRules(); got != nil {
		t.Fatalf("expected nil before any pruning pass, got %v", got)
	}

	inv, err := policy.NewInvariant("p", "light1.power = TRUE")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Pruning(inv); err != nil {
		t.Fatal(err)
	}
	if got := c.SurvivingRules(); len(got) != 1 || got[0] != "r1" {
		t.Fatalf("expected [r1], got %v", got)
	}

	c.Unprune()
	if got := c.SurvivingRules(); got != nil {
		t.Fatalf("expected nil after Unprune, got %v", got)
	}
}

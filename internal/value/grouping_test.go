package value

import "testing"

func TestPossibleGroupsNuSMVBooleanZeroConstraints(t *testing.T) {
	b := NewBoolean("light", "on", false)
	b.SetGrouping(true)
	if got, want := b.PossibleGroupsNuSMV(), "{ALL}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	b.AddConstraint(OpEQ, litPtr(Token("TRUE")))
	if got, want := b.PossibleGroupsNuSMV(), "{TRUE, FALSE}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPossibleGroupsNuSMVSetOthersBucket(t *testing.T) {
	s, _ := NewSet("light", "mode", []string{"HOME", "AWAY", "VACATION", "GUEST"}, false)
	s.SetGrouping(true)
	s.AddConstraint(OpEQ, litPtr(Token("HOME")))
	if got, want := s.PossibleGroupsNuSMV(), "{HOME, OTHERS}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPossibleGroupsNuSMVSetNearlyFullCollapses(t *testing.T) {
	s, _ := NewSet("light", "mode", []string{"HOME", "AWAY", "VACATION"}, false)
	s.SetGrouping(true)
	s.AddConstraint(OpEQ, litPtr(Token("HOME")))
	s.AddConstraint(OpEQ, litPtr(Token("AWAY")))
	if got, want := s.PossibleGroupsNuSMV(), s.PossibleValuesNuSMV(); got != want {
		t.Errorf("constraints covering |D|-1 elements should fall back to the full domain: got %q, want %q", got, want)
	}
}

func TestPossibleGroupsNuSMVRangeDiscreteBucketing(t *testing.T) {
	r, _ := NewRange("thermostat", "temp", 0, 100, nil, false)
	r.SetGrouping(true)
	r.AddConstraint(OpEQ, litPtr(Int(20)))
	if got, want := r.PossibleGroupsNuSMV(), "{20, OTHERS}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPossibleGroupsNuSMVRangeContinuousBreakpoints(t *testing.T) {
	r, _ := NewRange("thermostat", "temp", 0, 100, nil, false)
	r.SetGrouping(true)
	r.AddConstraint(OpLT, litPtr(Int(20)))
	r.AddConstraint(OpGT, litPtr(Int(80)))
	got := r.PossibleGroupsNuSMV()
	want := "{between_min_20, 20, between_20_80, 80, between_80_max}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPossibleGroupsNuSMVTimerAlwaysUngrouped(t *testing.T) {
	timer, _ := NewTimer("motion", "t", 10, true, false)
	timer.SetGrouping(true)
	timer.AddConstraint(OpEQ, litPtr(Int(3)))
	if got, want := timer.PossibleGroupsNuSMV(), timer.PossibleValuesNuSMV(); got != want {
		t.Errorf("timer grouping must be a no-op: got %q, want %q", got, want)
	}
}

func TestEquivalentTriggerConditionRangeLessThan(t *testing.T) {
	r, _ := NewRange("thermostat", "temp", 0, 100, nil, false)
	r.SetGrouping(true)
	r.AddConstraint(OpLT, litPtr(Int(20)))
	r.AddConstraint(OpGT, litPtr(Int(80)))

	op, text, err := r.EquivalentTriggerCondition(OpLT, Int(20))
	if err != nil {
		t.Fatal(err)
	}
	if op != "in" {
		t.Errorf("expected rewritten op 'in', got %q", op)
	}
	if want := "{between_min_20}"; text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestEquivalentTriggerConditionEqualityIsIdentity(t *testing.T) {
	r, _ := NewRange("thermostat", "temp", 0, 100, nil, false)
	r.SetGrouping(true)
	r.AddConstraint(OpEQ, litPtr(Int(20)))

	op, text, err := r.EquivalentTriggerCondition(OpEQ, Int(20))
	if err != nil {
		t.Fatal(err)
	}
	if op != OpEQ || text != "20" {
		t.Errorf("equality should pass through unchanged, got (%q, %q)", op, text)
	}
}

func TestEquivalentActionConditionRandomBypassesGrouping(t *testing.T) {
	s, _ := NewSet("light", "mode", []string{"HOME", "AWAY"}, false)
	s.SetGrouping(true)
	s.AddConstraint(OpEQ, litPtr(Token("HOME")))

	if got, want := s.EquivalentActionCondition(Token(Random)), s.PossibleValuesNuSMV(); got != want {
		t.Errorf("random must always expand to the ungrouped domain: got %q, want %q", got, want)
	}
}

func TestEquivalentActionConditionSetOthers(t *testing.T) {
	s, _ := NewSet("light", "mode", []string{"HOME", "AWAY", "VACATION", "GUEST"}, false)
	s.SetGrouping(true)
	s.AddConstraint(OpEQ, litPtr(Token("HOME")))

	if got, want := s.EquivalentActionCondition(Token("AWAY")), "OTHERS"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := s.EquivalentActionCondition(Token("HOME")), "HOME"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEquivalentActionConditionContinuousRangeBetween(t *testing.T) {
	r, _ := NewRange("thermostat", "temp", 0, 100, nil, false)
	r.SetGrouping(true)
	r.AddConstraint(OpLT, litPtr(Int(20)))
	r.AddConstraint(OpGT, litPtr(Int(80)))

	if got, want := r.EquivalentActionCondition(Int(50)), "between_20_80"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := r.EquivalentActionCondition(Int(5)), "between_min_20"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := r.EquivalentActionCondition(Int(20)), "20"; got != want {
		t.Errorf("a recorded breakpoint passes through unchanged: got %q, want %q", got, want)
	}
}

func TestClearConstraintsEmptiesDomain(t *testing.T) {
	b := NewBoolean("light", "on", false)
	b.SetGrouping(true)
	b.AddConstraint(OpEQ, litPtr(Token("TRUE")))
	if got, want := b.PossibleGroupsNuSMV(), "{TRUE, FALSE}"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	b.ClearConstraints()
	if got, want := b.PossibleGroupsNuSMV(), "{ALL}"; got != want {
		t.Errorf("clearing constraints should leave an empty constraint set: got %q, want %q", got, want)
	}
}

func TestMergeConstraintsUnion(t *testing.T) {
	a := NewBoolean("x", "a", false)
	b := NewBoolean("x", "b", false)
	a.AddConstraint(OpEQ, litPtr(Token("TRUE")))
	b.AddConstraint(OpEQ, litPtr(Token("FALSE")))
	MergeConstraints(a, b)
	if len(a.constraints) != 2 || len(b.constraints) != 2 {
		t.Fatalf("expected both sides to adopt the union, got a=%d b=%d", len(a.constraints), len(b.constraints))
	}
}

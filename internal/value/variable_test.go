package value

import "testing"

func TestNewSetRejectsEmptyDomain(t *testing.T) {
	if _, err := NewSet("light", "state", nil, false); err == nil {
		t.Fatal("expected error for empty set domain")
	}
}

func TestNewRangeRejectsOutOfBoundsReset(t *testing.T) {
	bad := Int(10)
	if _, err := NewRange("thermostat", "temp", 0, 5, &bad, false); err == nil {
		t.Fatal("expected error for out-of-range reset value")
	}
	ok := Int(3)
	if _, err := NewRange("thermostat", "temp", 0, 5, &ok, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewTimerStartValue(t *testing.T) {
	repeat, err := NewTimer("motion", "timer", 10, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if repeat.Value.Int != 0 {
		t.Errorf("repeating timer should start at 0, got %d", repeat.Value.Int)
	}

	oneShot, err := NewTimer("motion", "timer", 10, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if oneShot.Value.Int != -1 {
		t.Errorf("one-shot timer should start at -1, got %d", oneShot.Value.Int)
	}
}

func TestHasComparisonError(t *testing.T) {
	b := NewBoolean("light", "on", false)
	if b.HasComparisonError(OpEQ, Token("TRUE")) {
		t.Error("TRUE should be a valid boolean comparison")
	}
	if !b.HasComparisonError(OpLT, Token("TRUE")) {
		t.Error("< is not a legal boolean comparison operator")
	}

	s, _ := NewSet("light", "mode", []string{"HOME", "AWAY"}, false)
	if s.HasComparisonError(OpEQ, Token("HOME")) {
		t.Error("HOME should be a valid set element")
	}
	if !s.HasComparisonError(OpEQ, Token("NOWHERE")) {
		t.Error("NOWHERE is not in the set domain")
	}

	r, _ := NewRange("thermostat", "temp", 0, 100, nil, false)
	if r.HasComparisonError(OpLT, Int(50)) {
		t.Error("50 should be inside the range domain")
	}
	if !r.HasComparisonError(OpLT, Int(101)) {
		t.Error("101 is outside the range domain")
	}
}

func TestHasAssignmentErrorSentinels(t *testing.T) {
	b := NewBoolean("light", "on", false)
	if b.HasAssignmentError(Token(Random)) {
		t.Error("random should be assignable to any boolean")
	}
	if b.HasAssignmentError(Token(Toggle)) {
		t.Error("toggle should be assignable to a boolean (2-valued domain)")
	}

	s3, _ := NewSet("light", "mode", []string{"HOME", "AWAY", "VACATION"}, false)
	if !s3.HasAssignmentError(Token(Toggle)) {
		t.Error("toggle is only legal on a 2-element set domain")
	}

	s2, _ := NewSet("lock", "state", []string{"LOCKED", "UNLOCKED"}, false)
	if s2.HasAssignmentError(Token(Toggle)) {
		t.Error("toggle should be assignable to a 2-element set domain")
	}
}

func TestPossibleValuesNuSMV(t *testing.T) {
	r, _ := NewRange("thermostat", "temp", 10, 20, nil, false)
	if got, want := r.PossibleValuesNuSMV(), "10..20"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	timer, _ := NewTimer("motion", "t", 5, false, false)
	if got, want := timer.PossibleValuesNuSMV(), "-1..5"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCloneResetsWorkingState(t *testing.T) {
	s, _ := NewSet("light", "mode", []string{"HOME", "AWAY"}, false)
	s.AddConstraint(OpEQ, litPtr(Token("HOME")))
	s.SetGrouping(true)
	s.SetPruned(true)

	cp := s.Clone()
	if cp.Grouped() || cp.Pruned() || len(cp.constraints) != 0 {
		t.Error("Clone must reset grouping/pruning working state")
	}
	if len(s.constraints) == 0 {
		t.Error("Clone must not mutate the original's constraints")
	}
}

func litPtr(l Literal) *Literal { return &l }

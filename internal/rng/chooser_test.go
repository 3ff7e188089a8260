package rng

import "testing"

func TestRandomChooseIsDeterministicForSeed(t *testing.T) {
	options := []string{"a", "b", "c", "d"}
	r1 := NewRandom(42)
	r2 := NewRandom(42)
	for i := 0; i < 10; i++ {
		if got, want := r1.Choose(options), r2.Choose(options); got != want {
			t.Fatalf("choice %d: got %q, want %q", i, got, want)
		}
	}
}

func TestRandomChooseAlwaysReturnsAnOption(t *testing.T) {
	options := []string{"x", "y"}
	r := NewRandom(1)
	for i := 0; i < 50; i++ {
		choice := r.Choose(options)
		if choice != "x" && choice != "y" {
			t.Fatalf("unexpected choice %q", choice)
		}
	}
}

func TestExhaustiveCyclesThroughAllOptions(t *testing.T) {
	options := []string{"a", "b", "c"}
	e := NewExhaustive()
	seen := map[string]bool{}
	for i := 0; i < len(options); i++ {
		seen[e.Choose(options)] = true
	}
	for _, o := range options {
		if !seen[o] {
			t.Fatalf("option %q never chosen after one full cycle", o)
		}
	}
}

func TestExhaustiveWrapsAround(t *testing.T) {
	options := []string{"only"}
	e := NewExhaustive()
	for i := 0; i < 5; i++ {
		if got := e.Choose(options); got != "only" {
			t.Fatalf("iteration %d: got %q, want %q", i, got, "only")
		}
	}
}

func TestExhaustiveTracksCursorsIndependentlyPerOptionSet(t *testing.T) {
	e := NewExhaustive()
	first := []string{"a", "b"}
	second := []string{"c", "d"}
	if got := e.Choose(first); got != "a" {
		t.Fatalf("first call: got %q, want a", got)
	}
	if got := e.Choose(second); got != "c" {
		t.Fatalf("second call: got %q, want c", got)
	}
	if got := e.Choose(first); got != "b" {
		t.Fatalf("third call: got %q, want b", got)
	}
}

package controller

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"safechain/internal/checker"
)

const reachabilityTestTimeout = 5 * time.Second

// fakeChecker writes an executable shell script that always prints the
// given NuSMV-style verdict line, standing in for a real NuSMV binary
// the same way internal/worker's tests stand in with `true`.
func fakeChecker(t *testing.T, line string) *checker.Driver {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-checker.sh")
	script := "#!/bin/sh\necho '" + line + "'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return checker.New(path, nil)
}

func TestReachableReturnsTrueOnCounterExample(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}
	driver := fakeChecker(t, "-- specification ... is false")

	reachable, err := c.Reachable(context.Background(), driver, Probe{"light1.power": "TRUE"}, reachabilityTestTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if !reachable {
		t.Error("expected reachable=true when the negation has a counter-example")
	}
}

func TestReachableReturnsFalseWhenNegationHolds(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}
	driver := fakeChecker(t, "-- specification ... is true")

	reachable, err := c.Reachable(context.Background(), driver, Probe{"light1.power": "TRUE"}, reachabilityTestTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if reachable {
		t.Error("expected reachable=false when the negation holds everywhere")
	}
}

func TestReachableRestoresControllerConfigAfterwards(t *testing.T) {
	c, cat := testController(t)
	if err := c.AddRule("r1", "light", cat.Triggers["turn_on_pressed"], []string{"light1"}, "light", cat.Actions["turn_on"], []string{"light1"}); err != nil {
		t.Fatal(err)
	}
	orig := c.Config
	driver := fakeChecker(t, "-- specification ... is true")

	if _, err := c.Reachable(context.Background(), driver, Probe{"light1.power": "TRUE"}, reachabilityTestTimeout); err != nil {
		t.Fatal(err)
	}
	if c.Config != orig {
		t.Errorf("expected config restored to %+v, got %+v", orig, c.Config)
	}
}

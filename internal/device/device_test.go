package device

import (
	"testing"

	"safechain/internal/catalog"
	"safechain/internal/value"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse("light", []byte(`{
	  "variables": {"state": {"type": "set", "setValue": ["ON", "OFF"]}},
	  "triggers": {},
	  "actions": {}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func TestNewClonesVariables(t *testing.T) {
	cat := testCatalog(t)
	d := New("light1", cat)
	v, err := d.Variable("state")
	if err != nil {
		t.Fatal(err)
	}
	v.Value = value.Token("OFF")
	// The catalogue's own declaration must be untouched.
	if cat.Variables["state"].Value.Token != "ON" {
		t.Error("device mutation leaked into the catalogue declaration")
	}
}

func TestCloneIsolatesWorkingState(t *testing.T) {
	cat := testCatalog(t)
	d := New("light1", cat)
	d.Variables["state"].SetGrouping(true)

	cp := d.Clone()
	if cp.Variables["state"].Grouped() {
		t.Error("Clone should not carry over grouping working state")
	}
}

func TestPrunedAllVariables(t *testing.T) {
	cat := testCatalog(t)
	d := New("light1", cat)
	if d.Pruned() {
		t.Error("fresh device should not be reported pruned")
	}
	d.Variables["state"].SetPruned(true)
	if !d.Pruned() {
		t.Error("device with all variables pruned should report Pruned() == true")
	}
}

package catalog

import "testing"

const lightJSON = `{
  "variables": {
    "state": {"type": "set", "setValue": ["ON", "OFF"]},
    "brightness": {"type": "range", "minValue": 0, "maxValue": 100}
  },
  "triggers": {
    "turned_on": {"input": [{"type": "device"}], "definition": {"boolean": "{0}.state = ON"}}
  },
  "actions": {
    "turn_on": {"input": [{"type": "device"}], "definition": [{"assignment": "{0}.state = ON"}]}
  },
  "customs": [
    {"name": "dim_over_time", "trigger": "turned_on", "action": "turn_on"}
  ]
}`

func TestParseValid(t *testing.T) {
	cat, err := Parse("light", []byte(lightJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Variables) != 2 {
		t.Errorf("expected 2 variables, got %d", len(cat.Variables))
	}
	if _, ok := cat.Triggers["turned_on"]; !ok {
		t.Error("expected turned_on trigger")
	}
	if len(cat.Customs) != 1 {
		t.Errorf("expected 1 custom, got %d", len(cat.Customs))
	}
}

func TestParseUnknownVariableType(t *testing.T) {
	bad := `{"variables": {"x": {"type": "bogus"}}, "triggers": {}, "actions": {}}`
	if _, err := Parse("light", []byte(bad)); err == nil {
		t.Fatal("expected error for unknown variable type")
	}
}

func TestParseArityMismatch(t *testing.T) {
	bad := `{
	  "variables": {},
	  "triggers": {
	    "t": {"input": [], "definition": {"boolean": "{0}.state = ON"}}
	  },
	  "actions": {}
	}`
	if _, err := Parse("light", []byte(bad)); err == nil {
		t.Fatal("expected arity-mismatch error")
	}
}

func TestParseCustomUnknownReference(t *testing.T) {
	bad := `{
	  "variables": {},
	  "triggers": {},
	  "actions": {},
	  "customs": [{"name": "c", "trigger": "missing", "action": "missing"}]
	}`
	if _, err := Parse("light", []byte(bad)); err == nil {
		t.Fatal("expected error for custom referencing unknown trigger/action")
	}
}

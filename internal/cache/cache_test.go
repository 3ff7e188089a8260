package cache

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checks.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get(Key("model text", "no_leak", false))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a miss on an empty store")
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	key := Key("MODULE main ...", "no_leak", true)

	if err := s.Put(key, []byte(`{"verdict":1}`)); err != nil {
		t.Fatal(err)
	}

	payload, ok, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if string(payload) != `{"verdict":1}` {
		t.Errorf("unexpected payload: %s", payload)
	}
}

func TestKeyDependsOnEveryComponent(t *testing.T) {
	base := Key("model", "policy", false)
	if Key("model2", "policy", false) == base {
		t.Error("key should change with model text")
	}
	if Key("model", "policy2", false) == base {
		t.Error("key should change with policy name")
	}
	if Key("model", "policy", true) == base {
		t.Error("key should change with the BMC flag")
	}
}

func TestInvalidateRemovesEntry(t *testing.T) {
	s := openTestStore(t)
	key := Key("model", "policy", false)
	if err := s.Put(key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate(key); err != nil {
		t.Fatal(err)
	}
	_, ok, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a miss after Invalidate")
	}
}

package homekit

import (
	"bytes"
	"testing"

	"go.mills.io/bitcask/v2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := bitcask.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewStore(db)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("uuid", []byte("one")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get("uuid")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, []byte("one")) {
		t.Errorf("Get() = %q, want %q", got, "one")
	}

	if err := s.Set("uuid", []byte("two")); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if got, _ := s.Get("uuid"); !bytes.Equal(got, []byte("two")) {
		t.Errorf("Get() after overwrite = %q, want %q", got, "two")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get("nope"); err == nil {
		t.Error("Get() of a missing key should fail")
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("key", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete("key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("key"); err == nil {
		t.Error("Get() after delete should fail")
	}
}

func TestStore_KeysWithSuffix(t *testing.T) {
	s := newTestStore(t)

	for key, value := range map[string]string{
		"11:22:33.pairing": "a",
		"44:55:66.pairing": "b",
		"uuid":             "c",
		"schema":           "d",
	} {
		if err := s.Set(key, []byte(value)); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	keys, err := s.KeysWithSuffix(".pairing")
	if err != nil {
		t.Fatalf("KeysWithSuffix() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2: %v", len(keys), keys)
	}

	found := map[string]bool{}
	for _, k := range keys {
		found[k] = true
	}
	if !found["11:22:33.pairing"] || !found["44:55:66.pairing"] {
		t.Errorf("keys = %v", keys)
	}
}

func TestStore_KeysWithSuffixEmpty(t *testing.T) {
	s := newTestStore(t)

	keys, err := s.KeysWithSuffix(".pairing")
	if err != nil {
		t.Fatalf("KeysWithSuffix() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
}

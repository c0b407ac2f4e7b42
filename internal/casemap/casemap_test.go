package casemap

import (
	"reflect"
	"testing"
)

func TestGetIsCaseInsensitive(t *testing.T) {
	m := New[int]()
	m.Set("Materials", 1)

	got, ok := m.Get("MATERIALS")
	if !ok || got != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", got, ok)
	}
	if !m.Has("materials") {
		t.Fatal("expected Has to match case-insensitively")
	}
}

func TestSetOverwritesExistingKeyWithoutDuplicatingOrder(t *testing.T) {
	m := New[int]()
	m.Set("foo", 1)
	m.Set("FOO", 2)

	if m.Len() != 1 {
		t.Fatalf("expected a single entry after re-setting the same key, got %d", m.Len())
	}
	got, ok := m.Get("foo")
	if !ok || got != 2 {
		t.Fatalf("expected the second Set's value to win, got (%d, %v)", got, ok)
	}
}

func TestKeysPreservesInsertionOrder(t *testing.T) {
	m := New[int]()
	m.Set("b", 2)
	m.Set("a", 1)
	m.Set("c", 3)

	want := []string{"b", "a", "c"}
	if got := m.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected keys in insertion order %v, got %v", want, got)
	}
}

func TestRangeStopsEarlyWhenFnReturnsFalse(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	var visited []string
	m.Range(func(key string, value int) bool {
		visited = append(visited, key)
		return key != "b"
	})

	want := []string{"a", "b"}
	if !reflect.DeepEqual(visited, want) {
		t.Fatalf("expected Range to stop after 'b', visited %v", visited)
	}
}

func TestGetMissingKeyReturnsZeroValue(t *testing.T) {
	m := New[string]()
	got, ok := m.Get("missing")
	if ok {
		t.Fatal("expected ok=false for a missing key")
	}
	if got != "" {
		t.Fatalf("expected zero value for missing key, got %q", got)
	}
}

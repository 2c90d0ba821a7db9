package memory

import "testing"

func TestSeenStore_AddAndContains(t *testing.T) {
	store := NewSeenStore()

	if store.Contains("a100") {
		t.Error("empty store should not contain a100")
	}

	store.Add("a100")
	if !store.Contains("a100") {
		t.Error("expected a100 to be seen after Add")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestSeenStore_AddIdempotent(t *testing.T) {
	store := NewSeenStore()

	if !store.Add("a100") {
		t.Error("first Add should report newly added")
	}
	if store.Add("a100") {
		t.Error("second Add should report already seen")
	}

	if store.Len() != 1 {
		t.Errorf("Len = %d after double Add, want 1", store.Len())
	}
}

func TestSeenStore_IgnoresEmptyID(t *testing.T) {
	store := NewSeenStore()

	if store.Add("") {
		t.Error("empty ID should not be added")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d after empty Add, want 0", store.Len())
	}
}

func TestSeenStore_Clear(t *testing.T) {
	store := NewSeenStore()

	store.Add("a100")
	store.Add("b200")
	store.Clear()

	if store.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", store.Len())
	}
	if store.Contains("a100") {
		t.Error("a100 should be rediscoverable after Clear")
	}
}

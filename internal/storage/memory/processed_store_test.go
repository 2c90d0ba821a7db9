package memory

import (
	"context"
	"errors"
	"testing"

	"auction-sniper/internal/storage"
)

func TestProcessedStore_InsertAndExists(t *testing.T) {
	store := NewProcessedStore()
	ctx := context.Background()

	ok, err := store.Exists(ctx, "x123456")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("empty store should not contain x123456")
	}

	if err := store.Insert(ctx, "x123456"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	ok, err = store.Exists(ctx, "x123456")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("expected x123456 after Insert")
	}
}

func TestProcessedStore_InsertDuplicate(t *testing.T) {
	store := NewProcessedStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "x123456"); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	err := store.Insert(ctx, "x123456")
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("duplicate Insert: err = %v, want ErrDuplicateKey", err)
	}
}

func TestProcessedStore_InsertEmptyID(t *testing.T) {
	store := NewProcessedStore()

	err := store.Insert(context.Background(), "")
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Insert(\"\"): err = %v, want ErrInvalidInput", err)
	}
}

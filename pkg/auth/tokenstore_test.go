package auth

import (
	"path/filepath"
	"testing"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token"))

	if got := store.Read(); got != "" {
		t.Fatalf("fresh store read %q, want empty", got)
	}

	if err := store.Save("abc.def.ghi"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := store.Read(); got != "abc.def.ghi" {
		t.Fatalf("read back %q", got)
	}

	// Overwrite, not append.
	if err := store.Save("second"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := store.Read(); got != "second" {
		t.Fatalf("read after overwrite %q", got)
	}
}

func TestTokenStoreClear(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token"))

	// Clearing an empty store is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("clear empty: %v", err)
	}

	if err := store.Save("tok"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := store.Read(); got != "" {
		t.Fatalf("read after clear %q, want empty", got)
	}
}

func TestTokenStoreUnavailableMedium(t *testing.T) {
	store := NewTokenStore("")

	if err := store.Save("tok"); err != nil {
		t.Fatalf("save on unavailable store: %v", err)
	}
	if got := store.Read(); got != "" {
		t.Fatalf("read %q, want empty", got)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

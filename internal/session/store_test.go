package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docq/internal/shared"
)

func TestTokenStore(t *testing.T) {
	t.Run("LoadMissingFile", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
		token, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if token != "" {
			t.Errorf("Expected empty token, got %q", token)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
		if err := store.Save("abc123"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		token, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if token != "abc123" {
			t.Errorf("Expected abc123, got %q", token)
		}

		info, err := os.Stat(store.Path())
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("Expected mode 0600, got %o", perm)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
		if err := store.Save("first"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := store.Save("second"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		token, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if token != "second" {
			t.Errorf("Expected second, got %q", token)
		}
	})

	t.Run("SaveRejectsEmptyToken", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
		err := store.Save("")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("SaveCreatesParentDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "token")
		store := NewTokenStore(path)
		if err := store.Save("tok"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Token file not created: %v", err)
		}
	})

	t.Run("LoadTrimsWhitespace", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		if err := os.WriteFile(path, []byte("  abc123\n"), 0600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		store := NewTokenStore(path)
		token, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if token != "abc123" {
			t.Errorf("Expected abc123, got %q", token)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
		if err := store.Save("abc123"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}

		token, err := store.Load()
		if err != nil {
			t.Fatalf("Load after Clear failed: %v", err)
		}
		if token != "" {
			t.Errorf("Expected empty token after Clear, got %q", token)
		}
	})

	t.Run("ClearMissingFile", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
		if err := store.Clear(); err != nil {
			t.Errorf("Clear on missing file failed: %v", err)
		}
	})
}

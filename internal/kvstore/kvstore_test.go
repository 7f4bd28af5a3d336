package kvstore

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMemStore(t *testing.T) {
	t.Run("SetGetDelete", func(t *testing.T) {
		s := NewMemStore(0)
		if err := s.Set("a", "1"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok := s.Get("a")
		if !ok || v != "1" {
			t.Errorf("Get(a) = %q, %v, want %q, true", v, ok, "1")
		}
		s.Delete("a")
		if _, ok := s.Get("a"); ok {
			t.Error("Get(a) after Delete should not exist")
		}
		if s.Used() != 0 {
			t.Errorf("Used() = %d after delete, want 0", s.Used())
		}
	})

	t.Run("Quota", func(t *testing.T) {
		s := NewMemStore(10)
		if err := s.Set("k", "12345"); err != nil {
			t.Fatalf("Set() within quota error = %v", err)
		}
		err := s.Set("big", "12345678")
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("Set() over quota error = %v, want ErrQuotaExceeded", err)
		}
		// Failed write must not change anything.
		if _, ok := s.Get("big"); ok {
			t.Error("rejected entry should not be stored")
		}
		if s.Used() != 6 {
			t.Errorf("Used() = %d, want 6", s.Used())
		}
	})

	t.Run("QuotaOverwriteFreesOldValue", func(t *testing.T) {
		s := NewMemStore(10)
		if err := s.Set("k", "123456789"); err != nil {
			t.Fatal(err)
		}
		// Replacing the value is charged against the quota after releasing
		// the previous value's size.
		if err := s.Set("k", "987654321"); err != nil {
			t.Fatalf("overwrite within quota error = %v", err)
		}
	})

	t.Run("KeysSorted", func(t *testing.T) {
		s := NewMemStore(0)
		for _, k := range []string{"c", "a", "b"} {
			if err := s.Set(k, "x"); err != nil {
				t.Fatal(err)
			}
		}
		got := s.Keys()
		want := []string{"a", "b", "c"}
		if !slices.Equal(got, want) {
			t.Errorf("Keys() = %v, want %v", got, want)
		}
	})
}

func TestFileStore(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.json")
		s, err := NewFileStore(path, 0, logger)
		if err != nil {
			t.Fatalf("NewFileStore() error = %v", err)
		}
		if err := s.Set("greeting", "hello"); err != nil {
			t.Fatal(err)
		}
		s2, err := NewFileStore(path, 0, logger)
		if err != nil {
			t.Fatal(err)
		}
		v, ok := s2.Get("greeting")
		if !ok || v != "hello" {
			t.Errorf("Get(greeting) after reopen = %q, %v, want %q, true", v, ok, "hello")
		}
		if s2.Used() != s.Used() {
			t.Errorf("Used() after reopen = %d, want %d", s2.Used(), s.Used())
		}
	})

	t.Run("CorruptedFileStartsEmpty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		s, err := NewFileStore(path, 0, logger)
		if err != nil {
			t.Fatalf("NewFileStore() on corrupted file error = %v", err)
		}
		if got := len(s.Keys()); got != 0 {
			t.Errorf("Keys() on corrupted file = %d entries, want 0", got)
		}
	})

	t.Run("Quota", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.json")
		s, err := NewFileStore(path, 8, logger)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Set("a", "1234"); err != nil {
			t.Fatal(err)
		}
		if err := s.Set("b", "123456"); !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("Set() over quota error = %v, want ErrQuotaExceeded", err)
		}
	})

	t.Run("Reload", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "store.json")
		s, err := NewFileStore(path, 0, logger)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Set("a", "1"); err != nil {
			t.Fatal(err)
		}
		// Simulate an external edit.
		if err := os.WriteFile(path, []byte(`{"a":"2","b":"3"}`), 0o600); err != nil {
			t.Fatal(err)
		}
		s.Reload()
		if v, _ := s.Get("a"); v != "2" {
			t.Errorf("Get(a) after reload = %q, want %q", v, "2")
		}
		if v, _ := s.Get("b"); v != "3" {
			t.Errorf("Get(b) after reload = %q, want %q", v, "3")
		}
	})

	t.Run("DeleteSurvivesReopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.json")
		s, err := NewFileStore(path, 0, logger)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Set("a", "1"); err != nil {
			t.Fatal(err)
		}
		s.Delete("a")
		s2, err := NewFileStore(path, 0, logger)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := s2.Get("a"); ok {
			t.Error("deleted entry came back after reopen")
		}
	})
}

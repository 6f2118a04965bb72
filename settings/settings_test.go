package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/repli/dbopen"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSnapshotDefaults(t *testing.T) {
	s := newStore(t)
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", snap.Model, DefaultModel)
	}
	if snap.APIKey != "" || snap.CustomInstructions != "" {
		t.Errorf("unexpected values: %+v", snap)
	}
}

func TestSetAndReadFresh(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.SetMany(ctx, map[string]string{
		KeyAPIKey:             "sk-one",
		KeyModel:              "gpt-4o",
		KeyCustomInstructions: "Be brief.",
	}); err != nil {
		t.Fatal(err)
	}
	snap, _ := s.Snapshot(ctx)
	if snap != (Snapshot{APIKey: "sk-one", Model: "gpt-4o", CustomInstructions: "Be brief."}) {
		t.Fatalf("snapshot = %+v", snap)
	}

	// A later write is visible to the next read.
	if err := s.Set(ctx, KeyAPIKey, "sk-two"); err != nil {
		t.Fatal(err)
	}
	snap, _ = s.Snapshot(ctx)
	if snap.APIKey != "sk-two" {
		t.Fatalf("APIKey = %q, want sk-two", snap.APIKey)
	}

	// Empty value deletes; model falls back to the default.
	if err := s.Set(ctx, KeyModel, ""); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, KeyModel); ok {
		t.Fatal("model still stored after delete")
	}
	snap, _ = s.Snapshot(ctx)
	if snap.Model != DefaultModel {
		t.Fatalf("Model = %q after delete", snap.Model)
	}
}

func TestUnknownKey(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if err := s.Set(ctx, "gpt-api-key", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Set: err = %v, want ErrUnknownKey", err)
	}
	if _, _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Get: err = %v, want ErrUnknownKey", err)
	}

	// Nothing is written when one key of a batch is invalid.
	err := s.SetMany(ctx, map[string]string{KeyModel: "m", "bogus": "x"})
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("SetMany: err = %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyModel); ok {
		t.Fatal("partial batch was written")
	}
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "settings.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, KeyAPIKey, "sk-persisted"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	v, ok, err := s.Get(ctx, KeyAPIKey)
	if err != nil || !ok || v != "sk-persisted" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "***",
		"sk-abcdefgh1": "********fgh1",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
	if r := (Snapshot{APIKey: "sk-12345678"}).Redacted(); r.APIKey != "********5678" {
		t.Errorf("Redacted = %q", r.APIKey)
	}
}

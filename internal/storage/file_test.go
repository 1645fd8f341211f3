package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foxden", "state.json")
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	ctx := context.Background()

	if got, err := backend.Get(ctx, "appState"); err != nil || got != nil {
		t.Fatalf("Get on empty backend = (%v, %v), want (nil, nil)", got, err)
	}

	want := []byte(`{"currentTheme":"light"}`)
	if err := backend.Set(ctx, "appState", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := backend.Get(ctx, "appState")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Get = %s, want %s", got, want)
	}
}

func TestFileBackendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	first, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	if err := first.Set(ctx, "appState", []byte(`{"activeDen":"foxden-central"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Get(ctx, "appState")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `{"activeDen":"foxden-central"}` {
		t.Fatalf("Get after reopen = %s", got)
	}
}

func TestFileBackendKeepsIndependentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	ctx := context.Background()

	if err := backend.Set(ctx, "a", []byte(`1`)); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := backend.Set(ctx, "b", []byte(`2`)); err != nil {
		t.Fatalf("Set b: %v", err)
	}

	if got, _ := backend.Get(ctx, "a"); string(got) != `1` {
		t.Fatalf("a = %s after writing b", got)
	}
}

func TestFileBackendLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	if err := backend.Set(context.Background(), "appState", []byte(`{}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

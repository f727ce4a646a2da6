package pref

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/folio/pkg/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type mode string

// TestPrefNew tests creating new preferences.
func TestPrefNew(t *testing.T) {
	t.Run("WithDefaults", func(t *testing.T) {
		pref := New(storage.NewMemoryStorage(nil), "theme", "light")

		if pref.Key() != "theme" {
			t.Errorf("Key: got %v, want theme", pref.Key())
		}
		if pref.Get() != "light" {
			t.Errorf("Get: got %v, want light", pref.Get())
		}
		if pref.Default() != "light" {
			t.Errorf("Default: got %v, want light", pref.Default())
		}
		if !pref.UpdatedAt().IsZero() {
			t.Error("UpdatedAt should be zero before any change")
		}
	})

	t.Run("DoesNotReadStorage", func(t *testing.T) {
		store := storage.NewMemoryStorage(map[string]string{"theme": "dark"})
		pref := New(store, "theme", mode("light"), WithCodec(String[mode]()))

		if pref.Get() != "light" {
			t.Errorf("Get before Load: got %v, want light", pref.Get())
		}
	})
}

// TestPrefSetGet tests setting and persisting values.
func TestPrefSetGet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage(nil)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pref := New(store, "theme", mode("light"),
		WithCodec(String[mode]()), WithClock[mode](func() time.Time { return fixed }))

	if err := pref.Set(ctx, "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if pref.Get() != "dark" {
		t.Errorf("After Set: got %v, want dark", pref.Get())
	}
	if v, _, _ := store.Get(ctx, "theme"); v != "dark" {
		t.Errorf("stored = %q, want dark", v)
	}
	if !pref.UpdatedAt().Equal(fixed) {
		t.Errorf("UpdatedAt = %v, want %v", pref.UpdatedAt(), fixed)
	}
}

// TestPrefApply tests in-memory changes that are not persisted.
func TestPrefApply(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage(nil)
	pref := New(store, "theme", "light")

	pref.Apply("dark")
	if pref.Get() != "dark" {
		t.Errorf("Get: got %v, want dark", pref.Get())
	}
	if _, ok := pref.Stored(ctx); ok {
		t.Error("Apply must not persist")
	}
}

// TestPrefLoad tests restoring from storage.
func TestPrefLoad(t *testing.T) {
	tests := []struct {
		name  string
		seed  map[string]string
		found bool
		want  mode
	}{
		{"Valid", map[string]string{"theme": "dark"}, true, "dark"},
		{"Missing", nil, false, "light"},
		{"Empty", map[string]string{"theme": ""}, false, "light"},
		{"Rejected", map[string]string{"theme": "purple"}, false, "light"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage(tt.seed)
			pref := New(store, "theme", mode("light"),
				WithCodec(OneOf[mode]("light", "dark")), WithLogger[mode](quiet))

			if found := pref.Load(context.Background()); found != tt.found {
				t.Errorf("Load = %v, want %v", found, tt.found)
			}
			if pref.Get() != tt.want {
				t.Errorf("Get = %v, want %v", pref.Get(), tt.want)
			}
		})
	}
}

// TestPrefOneOfRejectsSet tests that encoding refuses unknown values.
func TestPrefOneOfRejectsSet(t *testing.T) {
	store := storage.NewMemoryStorage(nil)
	pref := New(store, "theme", mode("light"),
		WithCodec(OneOf[mode]("light", "dark")), WithLogger[mode](quiet))

	if err := pref.Set(context.Background(), "purple"); err == nil {
		t.Error("Set of a disallowed value should fail")
	}
	if len(store.Keys()) != 0 {
		t.Errorf("disallowed value was stored: %v", store.Snapshot())
	}
}

// TestPrefJSON tests the default JSON codec with a struct value.
func TestPrefJSON(t *testing.T) {
	type layout struct {
		Sidebar bool   `json:"sidebar"`
		Density string `json:"density"`
	}
	ctx := context.Background()
	store := storage.NewMemoryStorage(nil)

	pref := New(store, "layout", layout{Sidebar: true, Density: "comfortable"})
	want := layout{Sidebar: false, Density: "compact"}
	if err := pref.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reloaded := New(store, "layout", layout{})
	if !reloaded.Load(ctx) {
		t.Fatal("Load found nothing")
	}
	if diff := cmp.Diff(want, reloaded.Get()); diff != "" {
		t.Errorf("reloaded mismatch (-want +got):\n%s", diff)
	}
}

// TestPrefClear tests removing the persisted value.
func TestPrefClear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage(nil)
	pref := New(store, "volume", 50)

	pref.Set(ctx, 80)
	if err := pref.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if pref.Get() != 50 {
		t.Errorf("Get after Clear: got %v, want 50", pref.Get())
	}
	if _, ok := pref.Stored(ctx); ok {
		t.Error("value still stored after Clear")
	}
}

// TestPrefStorageFailures tests that failures keep the in-memory value.
func TestPrefStorageFailures(t *testing.T) {
	ctx := context.Background()
	denied := errors.New("denied")
	store := storage.NewFaulty(storage.NewMemoryStorage(map[string]string{"theme": "\"dark\""}),
		storage.Faults{Get: denied, Set: denied})
	pref := New(store, "theme", "light", WithLogger[string](quiet))

	if pref.Load(ctx) {
		t.Error("Load should report nothing found when storage fails")
	}
	if err := pref.Set(ctx, "dark"); !errors.Is(err, denied) {
		t.Errorf("Set = %v, want denied", err)
	}
	if pref.Get() != "dark" {
		t.Errorf("Get = %v, want dark even though persisting failed", pref.Get())
	}
}

// TestPrefMarshalJSON tests JSON serialization of the preference.
func TestPrefMarshalJSON(t *testing.T) {
	pref := New(storage.NewMemoryStorage(nil), "theme", "dark")

	data, err := json.Marshal(pref)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["key"] != "theme" || decoded["value"] != "dark" {
		t.Errorf("decoded = %v", decoded)
	}
}

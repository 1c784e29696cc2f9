package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"staycal/internal/domain/availability"
	"staycal/internal/domain/shared/daterange"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "nested", "dates.json"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dates, err := b.Load(context.Background())
	if err != nil || len(dates) != 0 {
		t.Fatalf("expected empty load, got %v %v", dates, err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dates.json")
	b, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	store := availability.NewStore(b, availability.StoreOptions{Property: "casa"})
	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []daterange.Date{daterange.MustParse("2026-08-03"), daterange.MustParse("2026-08-01")}
	if err := store.ReplaceAll(want); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != `["2026-08-01","2026-08-03"]` {
		t.Fatalf("unexpected file contents %s", raw)
	}

	other := availability.NewStore(b, availability.StoreOptions{})
	set, err := other.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if set.Len() != 2 || !set.Has(want[0]) || !set.Has(want[1]) {
		t.Fatalf("unexpected reloaded set %v", set.Strings())
	}
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dates.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, _ := New(path)
	if _, err := b.Load(context.Background()); !errors.Is(err, availability.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

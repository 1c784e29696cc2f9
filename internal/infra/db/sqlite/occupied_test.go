package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"staycal/internal/domain/availability"
	"staycal/internal/domain/shared/daterange"
)

func openTestBackend(t *testing.T, property string) *OccupiedBackend {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "staycal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOccupiedBackend(db, property, nil)
}

func TestSaveReplacesSet(t *testing.T) {
	ctx := context.Background()
	backend := openTestBackend(t, "casa")

	if got, err := backend.Load(ctx); err != nil || len(got) != 0 {
		t.Fatalf("fresh database must be empty: %v %v", got, err)
	}
	if err := backend.Save(ctx, []string{"2026-05-11", "2026-05-10"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Save(ctx, []string{"2026-06-01"}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0] != "2026-06-01" {
		t.Fatalf("expected only the last saved set, got %v", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := openTestBackend(t, "casa")
	store := availability.NewStore(backend, availability.StoreOptions{Property: "casa"})
	days := []daterange.Date{daterange.MustParse("2026-07-03"), daterange.MustParse("2026-07-01")}
	if err := store.ReplaceAll(days); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := availability.NewStore(backend, availability.StoreOptions{Property: "casa"})
	set, err := reloaded.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := set.Strings(); len(got) != 2 || got[0] != "2026-07-01" || got[1] != "2026-07-03" {
		t.Fatalf("unexpected round trip %v", got)
	}
}

func TestPropertiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "shared.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	a := NewOccupiedBackend(db, "a", nil)
	b := NewOccupiedBackend(db, "b", nil)
	if err := a.Save(ctx, []string{"2026-05-10"}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := b.Save(ctx, nil); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if got, _ := a.Load(ctx); len(got) != 1 {
		t.Fatalf("saving b must not touch a, got %v", got)
	}
}

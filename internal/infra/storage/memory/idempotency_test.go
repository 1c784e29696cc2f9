package memory

import (
	"context"
	"testing"
	"time"

	"staycal/internal/app/middleware"
	"staycal/internal/clock"
)

func TestIdempotencyStoreExpiresRecords(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, time.November, 1, 10, 0, 0, 0, time.UTC))
	store := NewIdempotencyStore(clk.Now)
	ctx := context.Background()

	if err := store.Save(ctx, middleware.IdempotencyRecord{Key: "booking.request:k1", Payload: []byte(`{"id":"a"}`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	clk.Advance(middleware.IdempotencyTTL - time.Minute)
	rec, ok, err := store.Get(ctx, "booking.request:k1")
	if err != nil || !ok || string(rec.Payload) != `{"id":"a"}` {
		t.Fatalf("expected live record, got %+v %v %v", rec, ok, err)
	}

	clk.Advance(time.Minute)
	if _, ok, _ := store.Get(ctx, "booking.request:k1"); ok {
		t.Fatalf("record must expire after the ttl")
	}
	if store.Len() != 0 {
		t.Fatalf("expired record must be dropped, got %d", store.Len())
	}
}

func TestIdempotencyStoreSweepsOnSave(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, time.November, 1, 10, 0, 0, 0, time.UTC))
	store := NewIdempotencyStore(clk.Now)
	ctx := context.Background()

	_ = store.Save(ctx, middleware.IdempotencyRecord{Key: "old"})
	clk.Advance(middleware.IdempotencyTTL)
	_ = store.Save(ctx, middleware.IdempotencyRecord{Key: "new"})
	if store.Len() != 1 {
		t.Fatalf("expected only the new record, got %d", store.Len())
	}
}

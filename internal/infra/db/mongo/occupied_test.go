package mongo

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"
)

// Runs against TEST_MONGO_URI and skips when no server answers.
func TestOccupiedBackendScopesByProperty(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := New(ctx, uri, "staycal_test", 5*time.Second)
	if err != nil {
		t.Skipf("skipping Mongo integration test: %v", err)
	}
	if err := client.Ping(ctx); err != nil {
		t.Skipf("skipping Mongo integration test: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	suffix := time.Now().Format("150405.000000")
	a, err := NewOccupiedBackend(ctx, client.DB, "casa-"+suffix, nil)
	if err != nil {
		t.Fatalf("backend a: %v", err)
	}
	b, err := NewOccupiedBackend(ctx, client.DB, "villa-"+suffix, nil)
	if err != nil {
		t.Fatalf("backend b: %v", err)
	}
	t.Cleanup(func() {
		_ = a.Save(context.Background(), nil)
		_ = b.Save(context.Background(), nil)
	})

	if err := a.Save(ctx, []string{"2026-05-12", "2026-05-10"}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := b.Save(ctx, []string{"2026-06-01"}); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if err := a.Save(ctx, []string{"2026-05-10", "2026-05-11"}); err != nil {
		t.Fatalf("resave a: %v", err)
	}

	got, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("load a: %v", err)
	}
	if want := []string{"2026-05-10", "2026-05-11"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	got, err = b.Load(ctx)
	if err != nil {
		t.Fatalf("load b: %v", err)
	}
	if want := []string{"2026-06-01"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("saving one property must not touch another, got %v", got)
	}
}

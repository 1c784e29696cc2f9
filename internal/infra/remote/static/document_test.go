package static

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"staycal/internal/domain/availability"
)

func serve(t *testing.T, status int, body string) *Backend {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/occupied-dates.json", srv.Client())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      int
		malformed bool
		transport bool
	}{
		{name: "array", status: http.StatusOK, body: `["2026-05-10","2026-05-11"]`, want: 2},
		{name: "null document", status: http.StatusOK, body: `null`, want: 0},
		{name: "object", status: http.StatusOK, body: `{"data":[]}`, malformed: true},
		{name: "missing", status: http.StatusNotFound, body: "not found", transport: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serve(t, tt.status, tt.body).Load(context.Background())
			switch {
			case tt.malformed:
				if !errors.Is(err, availability.ErrMalformedPayload) {
					t.Fatalf("expected ErrMalformedPayload, got %v", err)
				}
			case tt.transport:
				if !availability.IsTransport(err) {
					t.Fatalf("expected transport error, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("load: %v", err)
				}
				if len(got) != tt.want {
					t.Fatalf("expected %d dates, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestSaveIsReadOnly(t *testing.T) {
	b := New("http://127.0.0.1:1/none.json", nil)
	if err := b.Save(context.Background(), []string{"2026-05-10"}); !errors.Is(err, availability.ErrReadOnlyBackend) {
		t.Fatalf("expected ErrReadOnlyBackend, got %v", err)
	}
}

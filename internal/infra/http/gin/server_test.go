package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	adminapp "staycal/internal/app/handlers/admin"
	bookingapp "staycal/internal/app/handlers/booking"
	widgetsapp "staycal/internal/app/handlers/widgets"
	"staycal/internal/app/middleware"
	"staycal/internal/app/queries"
	"staycal/internal/app/services/auth"
	"staycal/internal/app/widget"
	"staycal/internal/clock"
	"staycal/internal/domain/availability"
	"staycal/internal/domain/booking"
	"staycal/internal/infra/config"
	"staycal/internal/infra/obs"
	"staycal/internal/infra/security"
	"staycal/internal/infra/storage/memory"
)

const adminSecret = "admin123"

type readOnlyBackend struct{ *memory.OccupiedBackend }

func (readOnlyBackend) Save(context.Context, []string) error { return availability.ErrReadOnlyBackend }

type testStack struct {
	router  *gin.Engine
	backend availability.Backend
	outbox  *memory.Outbox
}

func newTestStack(t *testing.T, backend availability.Backend, publisher ...adminapp.Publisher) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFixed(time.Date(2026, time.November, 1, 10, 0, 0, 0, time.UTC))
	policy, err := booking.NewPolicy(5, 5)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}

	hasher := security.BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash(adminSecret)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	authSvc := &auth.Service{
		SecretHash: hash,
		Sessions:   memory.NewSessionStore(),
		Passwords:  hasher,
		Tokens:     security.RandomTokenGenerator{},
		Now:        clk.Now,
		Logger:     logger,
	}
	registry, err := widget.NewRegistry(widget.Config{
		Property: "Casa di Tes",
		Policy:   policy,
		Backend:  backend,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	box := memory.NewOutbox()

	cmdBus := commands.NewInMemoryBus()
	widgetHandlers := &widgetsapp.Handlers{Registry: registry, Outbox: box}
	widgetsapp.RegisterCommands(cmdBus, widgetHandlers)
	publish := &adminapp.PublishHandler{Backend: backend, Logger: logger}
	if len(publisher) > 0 {
		publish.Publisher = publisher[0]
	}
	adminapp.Register(cmdBus, &adminapp.LoginHandler{Auth: authSvc}, &adminapp.LogoutHandler{Auth: authSvc}, publish)
	bookingapp.Register(cmdBus, &bookingapp.RequestBookingHandler{
		Backend:  backend,
		Policy:   policy,
		Property: "Casa di Tes",
		Clock:    clk,
		Outbox:   box,
		Logger:   logger,
	})
	queryBus := queries.NewInMemoryBus()
	widgetsapp.RegisterQueries(queryBus, widgetHandlers)

	validator := middleware.NewStructValidator()
	chainedCommands := middleware.ChainCommands(cmdBus,
		middleware.Logging(logger),
		middleware.AdminGate(auth.IsAdmin),
		middleware.Validation(validator),
		middleware.Idempotency(memory.NewIdempotencyStore(clk.Now), nil, clk.Now),
	)
	chainedQueries := middleware.ChainQueries(queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryAdminGate(auth.IsAdmin),
		middleware.QueryValidation(validator),
	)

	router := NewRouter(config.Config{Env: "test"}, obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Widget:         WidgetHandler{Commands: chainedCommands, Queries: chainedQueries},
		Admin:          AdminHandler{Commands: chainedCommands},
		Booking:        BookingHandler{Commands: chainedCommands},
		AuthMiddleware: AuthMiddleware{Service: authSvc, Logger: logger}.Handle,
	})
	return &testStack{router: router, backend: backend, outbox: box}
}

func (s *testStack) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func (s *testStack) openWidget(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/widgets", "", nil)
	expectStatus(t, rec, http.StatusCreated)
	view := decode[dto.WidgetView](t, rec)
	if view.SessionID == "" || view.Mode != booking.ModeGuest {
		t.Fatalf("unexpected view %+v", view)
	}
	return view.SessionID
}

func (s *testStack) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"secret": adminSecret})
	expectStatus(t, rec, http.StatusOK)
	return decode[dto.AdminLogin](t, rec).Token
}

func TestGuestSelectsStay(t *testing.T) {
	s := newTestStack(t, memory.NewOccupiedBackend("2026-11-25"))
	id := s.openWidget(t)
	base := "/api/v1/widgets/" + id

	expectStatus(t, s.do(t, http.MethodPost, base+"/clicks", "", map[string]string{"date": "2026-11-15"}), http.StatusOK)
	rec := s.do(t, http.MethodPost, base+"/clicks", "", map[string]string{"date": "2026-11-10"})
	expectStatus(t, rec, http.StatusOK)
	view := decode[dto.WidgetView](t, rec)
	if view.Selection.Phase != booking.PhaseCommitted || view.Selection.Nights != 5 {
		t.Fatalf("expected committed 5 night stay, got %+v", view.Selection)
	}
	if view.Selection.CheckIn.String() != "2026-11-10" || view.Selection.CheckOut.String() != "2026-11-15" {
		t.Fatalf("expected swapped endpoints, got %+v", view.Selection)
	}

	rec = s.do(t, http.MethodGet, base+"/selection", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if sel := decode[dto.Selection](t, rec); sel.Nights != 5 {
		t.Fatalf("unexpected selection %+v", sel)
	}

	rec = s.do(t, http.MethodPost, base+"/clicks", "", map[string]string{"date": "2026-11-20"})
	expectStatus(t, rec, http.StatusOK)
	rec = s.do(t, http.MethodPost, base+"/clicks", "", map[string]string{"date": "2026-11-30"})
	expectStatus(t, rec, http.StatusOK)
	view = decode[dto.WidgetView](t, rec)
	if view.Selection.Phase != booking.PhaseEmpty || len(view.Notices) != 1 || view.Notices[0].Kind != booking.NoticeOccupiedInRange {
		t.Fatalf("expected occupied_in_range reset, got %+v", view)
	}

	expectStatus(t, s.do(t, http.MethodPost, base+"/clicks", "", map[string]string{"date": "2026-11-3"}), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, base+"?month=2026-13", "", nil), http.StatusBadRequest)

	rec = s.do(t, http.MethodGet, base+"?month=2026-12", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if view := decode[dto.WidgetView](t, rec); len(view.Month.Days) != 31 {
		t.Fatalf("expected december grid, got %d days", len(view.Month.Days))
	}

	expectStatus(t, s.do(t, http.MethodDelete, base, "", nil), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodGet, base, "", nil), http.StatusNotFound)
}

func TestAdminGate(t *testing.T) {
	s := newTestStack(t, memory.NewOccupiedBackend())
	id := s.openWidget(t)
	base := "/api/v1/widgets/" + id

	expectStatus(t, s.do(t, http.MethodPut, base+"/mode", "", map[string]string{"mode": "admin"}), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodGet, base+"/occupied", "", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodPost, base+"/save", "", nil), http.StatusUnauthorized)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"secret": "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)
	if body := decode[map[string]any](t, rec); body["error"] != "invalid secret" {
		t.Fatalf("unexpected body %v", body)
	}

	token := s.login(t)
	expectStatus(t, s.do(t, http.MethodPut, base+"/mode", token, map[string]string{"mode": "admin"}), http.StatusOK)
	rec = s.do(t, http.MethodPost, base+"/clicks", token, map[string]string{"date": "2026-11-20"})
	expectStatus(t, rec, http.StatusOK)
	if view := decode[dto.WidgetView](t, rec); !view.Dirty || view.OccupiedCount != 1 {
		t.Fatalf("expected staged toggle, got %+v", view)
	}

	// Clicking in admin mode without the token drops back to guest.
	expectStatus(t, s.do(t, http.MethodPost, base+"/clicks", "", map[string]string{"date": "2026-11-21"}), http.StatusUnauthorized)

	expectStatus(t, s.do(t, http.MethodPost, base+"/save", token, nil), http.StatusOK)
	stored, err := s.backend.Load(context.Background())
	if err != nil || len(stored) != 1 || stored[0] != "2026-11-20" {
		t.Fatalf("expected saved date, got %v %v", stored, err)
	}
	if s.outbox.Pending() != 1 {
		t.Fatalf("expected calendar.saved in outbox, got %d", s.outbox.Pending())
	}

	rec = s.do(t, http.MethodPut, base+"/occupied", token, map[string][]string{"dates": {"2026-12-02", "2026-12-01"}})
	expectStatus(t, rec, http.StatusOK)
	rec = s.do(t, http.MethodGet, base+"/occupied", token, nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[dto.OccupiedList](t, rec); list.Count != 2 || list.Dates[0] != "2026-12-01" {
		t.Fatalf("unexpected occupied list %+v", list)
	}

	rec = s.do(t, http.MethodGet, base+"/export?download=true", token, nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Disposition") != `attachment; filename="calendar-2026-11-01.json"` {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if export := decode[map[string]any](t, rec); export["property"] != "Casa di Tes" {
		t.Fatalf("unexpected export %v", export)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/admin/logout", token, nil), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodGet, base+"/occupied", token, nil), http.StatusUnauthorized)
}

func TestSaveToReadOnlyBackendKeepsEdits(t *testing.T) {
	s := newTestStack(t, readOnlyBackend{memory.NewOccupiedBackend()})
	id := s.openWidget(t)
	base := "/api/v1/widgets/" + id
	token := s.login(t)

	expectStatus(t, s.do(t, http.MethodPut, base+"/occupied", token, map[string][]string{"dates": {"2026-12-01"}}), http.StatusOK)
	rec := s.do(t, http.MethodPost, base+"/save", token, nil)
	expectStatus(t, rec, http.StatusConflict)
	body := decode[struct {
		Error string         `json:"error"`
		View  dto.WidgetView `json:"view"`
	}](t, rec)
	if !body.View.Dirty || body.View.OccupiedCount != 1 {
		t.Fatalf("failed save must keep edits, got %+v", body.View)
	}
}

func TestBookingRequests(t *testing.T) {
	s := newTestStack(t, memory.NewOccupiedBackend("2026-11-12"))
	valid := map[string]any{
		"first_name": "Ada",
		"email":      "ada@example.com",
		"check_in":   "2026-11-14",
		"check_out":  "2026-11-20",
		"guests":     2,
	}
	rec := s.do(t, http.MethodPost, "/api/v1/booking-requests", "", valid, "Idempotency-Key", "req-1")
	expectStatus(t, rec, http.StatusAccepted)
	first := decode[dto.BookingRequestSummary](t, rec)
	if first.Nights != 6 || first.ID == "" {
		t.Fatalf("unexpected summary %+v", first)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/booking-requests", "", valid, "Idempotency-Key", "req-1")
	expectStatus(t, rec, http.StatusAccepted)
	if again := decode[dto.BookingRequestSummary](t, rec); again.ID != first.ID {
		t.Fatalf("expected replayed request %s, got %s", first.ID, again.ID)
	}
	if s.outbox.Pending() != 1 {
		t.Fatalf("replay must not record a second event, got %d", s.outbox.Pending())
	}

	tests := []struct {
		name   string
		change map[string]any
		status int
		kind   booking.NoticeKind
	}{
		{name: "too short", change: map[string]any{"check_out": "2026-11-16"}, status: http.StatusUnprocessableEntity, kind: booking.NoticeMinimumStay},
		{name: "too soon", change: map[string]any{"check_in": "2026-11-03"}, status: http.StatusUnprocessableEntity, kind: booking.NoticeAdvanceNotice},
		{name: "occupied inside", change: map[string]any{"check_in": "2026-11-10"}, status: http.StatusUnprocessableEntity, kind: booking.NoticeOccupiedInRange},
		{name: "bad email", change: map[string]any{"email": "nope"}, status: http.StatusBadRequest},
		{name: "no guests", change: map[string]any{"guests": 0}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{}
			for k, v := range valid {
				body[k] = v
			}
			for k, v := range tt.change {
				body[k] = v
			}
			rec := s.do(t, http.MethodPost, "/api/v1/booking-requests", "", body)
			expectStatus(t, rec, tt.status)
			if tt.kind == "" {
				return
			}
			resp := decode[struct {
				Notice booking.Notice `json:"notice"`
			}](t, rec)
			if resp.Notice.Kind != tt.kind {
				t.Fatalf("expected %s notice, got %+v", tt.kind, resp.Notice)
			}
		})
	}
}

type recordingPublisher struct {
	key  string
	body string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, body []byte) (string, error) {
	p.key = key
	p.body = string(body)
	return "https://cdn.example.com/calendar/" + key, nil
}

func TestPublishRoute(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestStack(t, memory.NewOccupiedBackend("2026-12-02", "2026-12-01"), pub)

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/admin/publish", "", nil), http.StatusUnauthorized)
	if pub.body != "" {
		t.Fatalf("publish without a token must not upload")
	}

	rec := s.do(t, http.MethodPost, "/api/v1/admin/publish", s.login(t), nil)
	expectStatus(t, rec, http.StatusOK)
	res := decode[dto.PublishResult](t, rec)
	if res.Count != 2 || res.URL != "https://cdn.example.com/calendar/occupied-dates.json" {
		t.Fatalf("unexpected result %+v", res)
	}
	if pub.body != `["2026-12-01","2026-12-02"]` {
		t.Fatalf("unexpected document %s", pub.body)
	}

	unconfigured := newTestStack(t, memory.NewOccupiedBackend("2026-12-01"))
	expectStatus(t, unconfigured.do(t, http.MethodPost, "/api/v1/admin/publish", unconfigured.login(t), nil), http.StatusServiceUnavailable)
}

func TestHealthRoutes(t *testing.T) {
	s := newTestStack(t, memory.NewOccupiedBackend())
	expectStatus(t, s.do(t, http.MethodGet, "/livez", "", nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/readyz", "", nil), http.StatusOK)
}

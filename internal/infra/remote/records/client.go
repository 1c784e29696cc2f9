package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"staycal/internal/domain/availability"
)

const defaultLimit = 1000

// Backend talks to a REST record store where every occupied day is its own
// record. Save deletes every record and recreates the full set; a failure
// halfway leaves the store partially written.
type Backend struct {
	Client   *http.Client
	Endpoint string
	Limit    int
	Now      func() time.Time
	Logger   *slog.Logger
}

type record struct {
	ID   json.RawMessage `json:"id"`
	Date string          `json:"date"`
}

type listResponse struct {
	Data []record `json:"data"`
}

type createRequest struct {
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func New(endpoint string, client *http.Client) *Backend {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Backend{Client: client, Endpoint: strings.TrimRight(endpoint, "/"), Limit: defaultLimit}
}

func (b *Backend) Name() string { return "records" }

func (b *Backend) Load(ctx context.Context) ([]string, error) {
	list, err := b.list(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, rec := range list {
		out = append(out, rec.Date)
	}
	return out, nil
}

func (b *Backend) Save(ctx context.Context, dates []string) error {
	requestID := uuid.NewString()
	existing, err := b.list(ctx, requestID)
	if err != nil {
		return err
	}
	for _, rec := range existing {
		id, err := recordID(rec.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", availability.ErrMalformedPayload, err)
		}
		if err := b.delete(ctx, requestID, id); err != nil {
			return err
		}
	}
	now := b.now().UTC()
	for _, d := range dates {
		if err := b.create(ctx, requestID, createRequest{Date: d, CreatedAt: now}); err != nil {
			return err
		}
	}
	b.logDebug("records replaced", "request_id", requestID, "deleted", len(existing), "created", len(dates))
	return nil
}

func (b *Backend) list(ctx context.Context, requestID string) ([]record, error) {
	endpoint, err := url.Parse(b.Endpoint)
	if err != nil {
		return nil, err
	}
	query := endpoint.Query()
	query.Set("limit", strconv.Itoa(b.limit()))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.do(req, requestID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", availability.ErrMalformedPayload, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("%w: missing data field", availability.ErrMalformedPayload)
	}
	return payload.Data, nil
}

func (b *Backend) delete(ctx context.Context, requestID, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.Endpoint+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	resp, err := b.do(req, requestID)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (b *Backend) create(ctx context.Context, requestID string, payload createRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.do(req, requestID)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// do sends req and turns transport failures and error statuses into
// *availability.TransportError. The caller closes the body on success.
func (b *Backend) do(req *http.Request, requestID string) (*http.Response, error) {
	if b.Client == nil {
		return nil, errors.New("records: http client not configured")
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	op := strings.ToLower(req.Method)
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, &availability.TransportError{Backend: b.Name(), Op: op, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &availability.TransportError{
			Backend: b.Name(),
			Op:      op,
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}
	return resp, nil
}

func (b *Backend) limit() int {
	if b.Limit > 0 {
		return b.Limit
	}
	return defaultLimit
}

func (b *Backend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Backend) logDebug(msg string, args ...any) {
	if b.Logger != nil {
		b.Logger.Debug(msg, args...)
	}
}

// recordID accepts both string and numeric identifiers.
func recordID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errors.New("empty record id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("record id %s: %w", string(raw), err)
	}
	return n.String(), nil
}

var _ availability.Backend = (*Backend)(nil)

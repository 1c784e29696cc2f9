package static

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"staycal/internal/domain/availability"
)

// Backend reads a published JSON array of dates. It never writes: the
// document is refreshed by the publish operation.
type Backend struct {
	Client *http.Client
	URL    string
}

func New(url string, client *http.Client) *Backend {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Backend{Client: client, URL: url}
}

func (b *Backend) Name() string { return "static" }

func (b *Backend) Load(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, &availability.TransportError{Backend: b.Name(), Op: "load", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &availability.TransportError{
			Backend: b.Name(),
			Op:      "load",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}
	var dates []string
	if err := json.NewDecoder(resp.Body).Decode(&dates); err != nil {
		return nil, fmt.Errorf("%w: %v", availability.ErrMalformedPayload, err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

func (b *Backend) Save(context.Context, []string) error {
	return availability.ErrReadOnlyBackend
}

var _ availability.Backend = (*Backend)(nil)

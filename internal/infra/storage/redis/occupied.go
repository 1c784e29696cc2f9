package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"staycal/internal/domain/availability"
)

// Backend keeps the occupied dates as a JSON array under a single key.
type Backend struct {
	client goredis.Cmdable
	key    string
}

func NewBackend(client goredis.Cmdable, key string) *Backend {
	if key == "" {
		key = "casadiTesOccupiedDates"
	}
	return &Backend{client: client, key: key}
}

func (b *Backend) Name() string { return "redis" }

func (b *Backend) Load(ctx context.Context) ([]string, error) {
	raw, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeDates(raw)
}

func (b *Backend) Save(ctx context.Context, dates []string) error {
	raw, err := encodeDates(dates)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, b.key, raw, 0).Err()
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func encodeDates(dates []string) ([]byte, error) {
	if dates == nil {
		dates = []string{}
	}
	return json.Marshal(dates)
}

func decodeDates(raw []byte) ([]string, error) {
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		return nil, fmt.Errorf("%w: %v", availability.ErrMalformedPayload, err)
	}
	return dates, nil
}

var _ availability.Backend = (*Backend)(nil)

package backends

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"staycal/internal/clock"
	"staycal/internal/domain/availability"
	"staycal/internal/infra/config"
	"staycal/internal/infra/db/mongo"
	"staycal/internal/infra/db/postgres"
	"staycal/internal/infra/db/scylla"
	"staycal/internal/infra/db/sqlite"
	"staycal/internal/infra/remote/records"
	"staycal/internal/infra/remote/static"
	"staycal/internal/infra/storage/file"
	"staycal/internal/infra/storage/memory"
	"staycal/internal/infra/storage/redis"
)

// Opened is the backend of record plus the hooks main needs around it.
type Opened struct {
	Backend availability.Backend
	// Ping reports readiness; nil when the backend has nothing to check.
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Open builds the backend selected by cfg.Backend. Every call on the returned
// backend is bounded by cfg.BackendTimeout.
func Open(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*Opened, error) {
	opened, err := open(ctx, cfg, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	if opened.Ping == nil {
		if p, ok := opened.Backend.(pinger); ok {
			opened.Ping = p.Ping
		}
	}
	if opened.Close == nil {
		opened.Close = func(context.Context) error { return nil }
	}
	opened.Backend = WithTimeout(opened.Backend, cfg.BackendTimeout)
	if logger != nil {
		logger.Info("backend of record ready", "backend", opened.Backend.Name())
	}
	return opened, nil
}

func open(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*Opened, error) {
	now := clk.Now
	httpClient := &http.Client{Timeout: cfg.BackendTimeout}

	switch cfg.Backend {
	case config.BackendMemory:
		return &Opened{Backend: memory.NewOccupiedBackend()}, nil
	case config.BackendFile:
		b, err := file.New(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		return &Opened{Backend: b}, nil
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.BackendTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &Opened{
			Backend: redis.NewBackend(client, cfg.RedisKey),
			Close:   func(context.Context) error { return client.Close() },
		}, nil
	case config.BackendRecords:
		b := records.New(cfg.RecordsURL, httpClient)
		b.Limit = cfg.RecordsLimit
		b.Now = now
		b.Logger = logger
		return &Opened{Backend: b}, nil
	case config.BackendStatic:
		return &Opened{Backend: static.New(cfg.StaticURL, httpClient)}, nil
	case config.BackendMongo:
		client, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDB, cfg.BackendTimeout)
		if err != nil {
			return nil, err
		}
		backend, err := mongo.NewOccupiedBackend(ctx, client.DB, cfg.Property, now)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		return &Opened{
			Backend: backend,
			Ping:    client.Ping,
			Close:   client.Close,
		}, nil
	case config.BackendPostgres:
		pool, err := postgres.Open(ctx, cfg.PostgresDSN, cfg.BackendTimeout)
		if err != nil {
			return nil, err
		}
		return &Opened{
			Backend: postgres.NewOccupiedBackend(pool, cfg.Property, now),
			Close:   func(context.Context) error { pool.Close(); return nil },
		}, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Opened{
			Backend: sqlite.NewOccupiedBackend(db, cfg.Property, now),
			Close:   func(context.Context) error { return db.Close() },
		}, nil
	case config.BackendScylla:
		session, err := scylla.NewSession(ctx, scylla.Options{
			Hosts:             cfg.ScyllaHosts,
			Keyspace:          cfg.ScyllaKeyspace,
			Username:          cfg.ScyllaUsername,
			Password:          cfg.ScyllaPassword,
			Timeout:           cfg.BackendTimeout,
			ReplicationFactor: cfg.ScyllaRF,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &Opened{
			Backend: scylla.NewOccupiedBackend(session, cfg.Property, now),
			Ping: func(context.Context) error {
				if session.Closed() {
					return fmt.Errorf("scylla session closed")
				}
				return nil
			},
			Close: func(context.Context) error { session.Close(); return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// WithTimeout bounds every Load and Save of b by d. A non-positive d returns b.
func WithTimeout(b availability.Backend, d time.Duration) availability.Backend {
	if d <= 0 {
		return b
	}
	return &timeoutBackend{next: b, timeout: d}
}

type timeoutBackend struct {
	next    availability.Backend
	timeout time.Duration
}

func (t *timeoutBackend) Name() string { return t.next.Name() }

func (t *timeoutBackend) Load(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Load(ctx)
}

func (t *timeoutBackend) Save(ctx context.Context, dates []string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Save(ctx, dates)
}

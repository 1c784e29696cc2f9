package scylla

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/gocql/gocql"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type Options struct {
	Hosts             []string
	Keyspace          string
	Username          string
	Password          string
	Timeout           time.Duration
	ReplicationFactor int
}

// NewSession ensures schema exists and returns a connected Scylla session.
func NewSession(ctx context.Context, opts Options, logger *slog.Logger) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(opts.Keyspace) {
		return nil, fmt.Errorf("invalid keyspace name: %s", opts.Keyspace)
	}
	if opts.ReplicationFactor <= 0 {
		opts.ReplicationFactor = 1
	}

	baseSession, err := newCluster(opts, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to scylla: %w", err)
	}
	defer baseSession.Close()

	if err := ensureKeyspace(ctx, baseSession, opts); err != nil {
		return nil, err
	}

	session, err := newCluster(opts, opts.Keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", opts.Keyspace, err)
	}
	if err := ensureTables(ctx, session, opts); err != nil {
		session.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("scylla connected", "hosts", opts.Hosts, "keyspace", opts.Keyspace)
	}
	return session, nil
}

func newCluster(opts Options, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(opts.Hosts...)
	if opts.Timeout > 0 {
		cluster.Timeout = opts.Timeout
		cluster.ConnectTimeout = opts.Timeout
	}
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	if opts.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		}
	}
	return cluster
}

func ensureKeyspace(ctx context.Context, session *gocql.Session, opts Options) error {
	cql := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		opts.Keyspace, opts.ReplicationFactor,
	)
	if err := session.Query(cql).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace: %w", err)
	}
	return nil
}

func ensureTables(ctx context.Context, session *gocql.Session, opts Options) error {
	occupied := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.occupied_dates (
	property text,
	day text,
	created_at timestamp,
	PRIMARY KEY (property, day)
) WITH CLUSTERING ORDER BY (day ASC);`, opts.Keyspace)
	if err := session.Query(occupied).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create occupied_dates table: %w", err)
	}
	return nil
}

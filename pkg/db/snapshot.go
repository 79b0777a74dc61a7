package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	// Blank import for postgres driver
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/margined-protocol/clearing-core/pkg/engine"
)

// Config locates the Postgres database the clearing house snapshots into.
type Config struct {
	Host     string `toml:"host" mapstructure:"host"`
	Port     int    `toml:"port" mapstructure:"port"`
	User     string `toml:"user" mapstructure:"user"`
	Password string `toml:"password" mapstructure:"password"`
	DBName   string `toml:"dbname" mapstructure:"dbname"`
	SSLMode  string `toml:"sslmode" mapstructure:"sslmode"`
}

// dsn builds the connection string. Everything except the database name
// falls back to the local-postgres defaults, which is all the snapshot
// store ever varies.
func (cfg Config) dsn() (string, error) {
	if cfg.DBName == "" {
		return "", ErrMissingDBName
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	user := cfg.User
	if user == "" {
		user = "postgres"
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	q := url.Values{}
	q.Add("sslmode", sslMode)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     cfg.DBName,
		RawQuery: q.Encode(),
	}

	return u.String(), nil
}

const createSnapshotTable = `
CREATE TABLE IF NOT EXISTS clearing_snapshots (
	id         BIGSERIAL PRIMARY KEY,
	taken_at   TIMESTAMPTZ NOT NULL,
	state      JSONB NOT NULL
)`

// SnapshotStore persists engine snapshots in Postgres. The engine stays
// purely in-memory; the store is an external collaborator written to at
// whatever cadence the operator chooses.
type SnapshotStore struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSnapshotStore connects to the database and ensures the snapshot table
// exists.
func NewSnapshotStore(ctx context.Context, logger *zap.Logger, cfg Config) (*SnapshotStore, error) {
	connStr, err := cfg.dsn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	database, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedConnect, err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedPing, err)
	}

	if _, err := database.ExecContext(ctx, createSnapshotTable); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &SnapshotStore{logger: logger, db: database}, nil
}

// Save writes a snapshot taken at now.
func (s *SnapshotStore) Save(ctx context.Context, snap engine.Snapshot, now time.Time) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clearing_snapshots (taken_at, state) VALUES ($1, $2)`,
		now.UTC(), state,
	)
	if err != nil {
		s.logger.Error("failed to persist snapshot", zap.Error(err))
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	return nil
}

// Latest loads the most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (engine.Snapshot, error) {
	var state []byte

	row := s.db.QueryRowContext(ctx,
		`SELECT state FROM clearing_snapshots ORDER BY id DESC LIMIT 1`)
	if err := row.Scan(&state); err != nil {
		if err == sql.ErrNoRows {
			return engine.Snapshot{}, ErrNoSnapshot
		}
		return engine.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snap, nil
}

// Close releases the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

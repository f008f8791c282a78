package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chartsight/internal/errors"
	"chartsight/internal/models"
)

// PostgresStore implements Store against the remote structured store.
// History rows carry the full result payload as a JSONB blob plus its
// timestamp; access codes are stored relationally.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the remote store and ensures the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS history (
			id UUID PRIMARY KEY,
			data JSONB NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS access_codes (
			code TEXT NOT NULL,
			duration DOUBLE PRECISION NOT NULL,
			created_at BIGINT NOT NULL,
			expiry BIGINT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history (timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_access_codes_created ON access_codes (created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_access_codes_code ON access_codes (code);
	`)
	return err
}

// Backend implements Store.
func (s *PostgresStore) Backend() string {
	return "postgres"
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// LoadHistory implements Store: ordered by timestamp descending,
// limited server-side.
func (s *PostgresStore) LoadHistory(ctx context.Context) ([]models.AnalysisResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT data FROM history ORDER BY timestamp DESC LIMIT $1
	`, models.HistoryLimit)
	if err != nil {
		return nil, errors.NewStoreError("load", CollectionHistory, err)
	}
	defer rows.Close()

	var history []models.AnalysisResult
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.NewStoreError("load", CollectionHistory, err)
		}
		var result models.AnalysisResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, errors.NewStoreError("load", CollectionHistory, err)
		}
		history = append(history, result)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("load", CollectionHistory, err)
	}

	return history, nil
}

// InsertHistory implements Store as a single-row insert carrying the
// full result payload plus its timestamp.
func (s *PostgresStore) InsertHistory(ctx context.Context, result *models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.NewStoreError("insert", CollectionHistory, err)
	}

	ts := result.Time()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO history (id, data, timestamp) VALUES ($1, $2, $3)
	`, uuid.New(), data, ts)
	if err != nil {
		return errors.NewStoreError("insert", CollectionHistory, err)
	}
	return nil
}

// ClearHistory implements Store, deleting all rows unconditionally.
func (s *PostgresStore) ClearHistory(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM history`); err != nil {
		return errors.NewStoreError("clear", CollectionHistory, err)
	}
	return nil
}

// LoadCodes implements Store, newest-created first.
func (s *PostgresStore) LoadCodes(ctx context.Context) ([]models.AccessCode, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, duration, created_at, expiry
		FROM access_codes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, errors.NewStoreError("load", CollectionCodes, err)
	}
	defer rows.Close()

	var codes []models.AccessCode
	for rows.Next() {
		var c models.AccessCode
		if err := rows.Scan(&c.Code, &c.Duration, &c.CreatedAt, &c.Expiry); err != nil {
			return nil, errors.NewStoreError("load", CollectionCodes, err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("load", CollectionCodes, err)
	}

	return codes, nil
}

// InsertCode implements Store.
func (s *PostgresStore) InsertCode(ctx context.Context, code models.AccessCode) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO access_codes (code, duration, created_at, expiry)
		VALUES ($1, $2, $3, $4)
	`, code.Code, code.Duration, code.CreatedAt, code.Expiry)
	if err != nil {
		return errors.NewStoreError("insert", CollectionCodes, err)
	}
	return nil
}

// DeleteCode implements Store, deleting all rows matching the value.
func (s *PostgresStore) DeleteCode(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM access_codes WHERE code = $1`, code); err != nil {
		return errors.NewStoreError("delete", CollectionCodes, err)
	}
	return nil
}

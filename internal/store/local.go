package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chartsight/internal/errors"
	"chartsight/internal/models"
)

// LocalStore implements Store on a single-file SQLite database holding
// the two collections as JSON-serialized arrays under fixed keys. It is
// the fallback used when no remote store is configured: the writer does
// prepend-and-trim before serializing, and loads return the stored
// array order as-is.
type LocalStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewLocalStore opens (or creates) the local fallback store.
func NewLocalStore(dbPath string) (*LocalStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &LocalStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *LocalStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// Backend implements Store.
func (s *LocalStore) Backend() string {
	return "local"
}

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *LocalStore) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	`, key, value, time.Now())
	return err
}

func (s *LocalStore) del(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// LoadHistory implements Store. The stored array is already capped and
// newest-first; it is parsed as-is.
func (s *LocalStore) LoadHistory(ctx context.Context) ([]models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.get(ctx, localKeyHistory)
	if err != nil {
		return nil, errors.NewStoreError("load", CollectionHistory, err)
	}
	if !ok {
		return nil, nil
	}

	var history []models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, errors.NewStoreError("load", CollectionHistory, err)
	}
	if len(history) > models.HistoryLimit {
		history = history[:models.HistoryLimit]
	}
	return history, nil
}

// InsertHistory implements Store as a read-modify-write of the whole
// serialized array, trimmed to the history cap after prepending.
func (s *LocalStore) InsertHistory(ctx context.Context, result *models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadHistoryLocked(ctx)
	if err != nil {
		return errors.NewStoreError("insert", CollectionHistory, err)
	}

	history = append([]models.AnalysisResult{*result}, history...)
	if len(history) > models.HistoryLimit {
		history = history[:models.HistoryLimit]
	}

	raw, err := json.Marshal(history)
	if err != nil {
		return errors.NewStoreError("insert", CollectionHistory, err)
	}
	if err := s.put(ctx, localKeyHistory, string(raw)); err != nil {
		return errors.NewStoreError("insert", CollectionHistory, err)
	}
	return nil
}

// ClearHistory implements Store by removing the stored key entirely.
func (s *LocalStore) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.del(ctx, localKeyHistory); err != nil {
		return errors.NewStoreError("clear", CollectionHistory, err)
	}
	return nil
}

// LoadCodes implements Store. The stored order is writer-maintained,
// newest first by convention.
func (s *LocalStore) LoadCodes(ctx context.Context) ([]models.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.get(ctx, localKeyCodes)
	if err != nil {
		return nil, errors.NewStoreError("load", CollectionCodes, err)
	}
	if !ok {
		return nil, nil
	}

	var codes []models.AccessCode
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, errors.NewStoreError("load", CollectionCodes, err)
	}
	return codes, nil
}

// InsertCode implements Store, rewriting the serialized array with the
// new code prepended.
func (s *LocalStore) InsertCode(ctx context.Context, code models.AccessCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes, err := s.loadCodesLocked(ctx)
	if err != nil {
		return errors.NewStoreError("insert", CollectionCodes, err)
	}

	codes = append([]models.AccessCode{code}, codes...)
	raw, err := json.Marshal(codes)
	if err != nil {
		return errors.NewStoreError("insert", CollectionCodes, err)
	}
	if err := s.put(ctx, localKeyCodes, string(raw)); err != nil {
		return errors.NewStoreError("insert", CollectionCodes, err)
	}
	return nil
}

// DeleteCode implements Store by filtering the code out of the
// serialized array and rewriting it.
func (s *LocalStore) DeleteCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes, err := s.loadCodesLocked(ctx)
	if err != nil {
		return errors.NewStoreError("delete", CollectionCodes, err)
	}

	kept := codes[:0]
	for _, c := range codes {
		if c.Code != code {
			kept = append(kept, c)
		}
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return errors.NewStoreError("delete", CollectionCodes, err)
	}
	if err := s.put(ctx, localKeyCodes, string(raw)); err != nil {
		return errors.NewStoreError("delete", CollectionCodes, err)
	}
	return nil
}

func (s *LocalStore) loadHistoryLocked(ctx context.Context) ([]models.AnalysisResult, error) {
	raw, ok, err := s.get(ctx, localKeyHistory)
	if err != nil || !ok {
		return nil, err
	}
	var history []models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *LocalStore) loadCodesLocked(ctx context.Context) ([]models.AccessCode, error) {
	raw, ok, err := s.get(ctx, localKeyCodes)
	if err != nil || !ok {
		return nil, err
	}
	var codes []models.AccessCode
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

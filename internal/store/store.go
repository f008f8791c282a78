// Package store provides data persistence interfaces and implementations.
//
// Exactly one backend is authoritative for a process lifetime: Open
// selects the remote Postgres adapter when a DSN is configured and the
// local fallback store otherwise. Callers never branch on configuration
// themselves.
package store

import (
	"context"

	"chartsight/internal/config"
	"chartsight/internal/models"
)

// Collection names used in store errors and logs.
const (
	CollectionHistory = "history"
	CollectionCodes   = "access_codes"
)

// Keys under which the local fallback store serializes the two
// collections. They mirror the original deployment's storage keys.
const (
	localKeyHistory = "chart_analysis_history"
	localKeyCodes   = "access_codes"
)

// Store is the persistence gateway for the two collections.
type Store interface {
	// LoadHistory returns up to models.HistoryLimit results, newest first.
	LoadHistory(ctx context.Context) ([]models.AnalysisResult, error)
	// InsertHistory persists one result. The stored history is trimmed
	// to models.HistoryLimit, dropping the oldest entries.
	InsertHistory(ctx context.Context, result *models.AnalysisResult) error
	// ClearHistory removes all history entries.
	ClearHistory(ctx context.Context) error

	// LoadCodes returns all access codes, newest-created first.
	LoadCodes(ctx context.Context) ([]models.AccessCode, error)
	// InsertCode persists one access code.
	InsertCode(ctx context.Context, code models.AccessCode) error
	// DeleteCode removes every code matching the given value. Deleting
	// an absent code is a graceful no-op.
	DeleteCode(ctx context.Context, code string) error

	// Backend names the active backend ("postgres" or "local").
	Backend() string

	// Lifecycle
	Close() error
}

// Open selects and opens the authoritative backend for this process.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	if cfg.IsRemote() {
		return NewPostgresStore(ctx, cfg.RemoteDSN)
	}
	return NewLocalStore(cfg.LocalPath)
}

// Package storage keeps an optional history of analysis runs, one row per
// invocation. It is disabled by default; the report file remains the only
// artifact a default run produces.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"stablewin/internal/config"
	"stablewin/internal/model"
)

type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveRun(ctx context.Context, run model.Run) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func runTimestamp(run model.Run) time.Time {
	if run.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return run.Timestamp.UTC()
}

package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"stablewin/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:stablewin.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			source_file TEXT NOT NULL,
			test_date TEXT,
			channel TEXT NOT NULL,
			min_length REAL NOT NULL,
			max_length REAL NOT NULL,
			best_length REAL NOT NULL,
			std_dev REAL NOT NULL,
			mean REAL NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			points INTEGER NOT NULL,
			result_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source_file, channel)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveRun(ctx context.Context, run model.Run) error {
	if s.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (ts, source_file, test_date, channel, min_length, max_length, best_length, std_dev, mean, start_time, end_time, points, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runTimestamp(run),
		run.SourcePath,
		run.TestDate,
		run.Channel,
		run.Spec.MinLength,
		run.Spec.MaxLength,
		run.Result.Length,
		run.Result.StdDev,
		run.Mean,
		run.StartTime,
		run.EndTime,
		run.Result.Points(),
		encodeJSON(run.Result),
	)
	return err
}

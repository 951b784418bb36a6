package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"stablewin/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/stablewin?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			source_file TEXT NOT NULL,
			test_date TEXT,
			channel TEXT NOT NULL,
			min_length DOUBLE PRECISION NOT NULL,
			max_length DOUBLE PRECISION NOT NULL,
			best_length DOUBLE PRECISION NOT NULL,
			std_dev DOUBLE PRECISION NOT NULL,
			mean DOUBLE PRECISION NOT NULL,
			start_time DOUBLE PRECISION NOT NULL,
			end_time DOUBLE PRECISION NOT NULL,
			points INTEGER NOT NULL,
			result_json JSONB NOT NULL
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

func (s *postgresStore) SaveRun(ctx context.Context, run model.Run) error {
	if s.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (ts, source_file, test_date, channel, min_length, max_length, best_length, std_dev, mean, start_time, end_time, points, result_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
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

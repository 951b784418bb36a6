package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stablewin/internal/config"
	"stablewin/internal/model"
)

func TestNewStoreDisabled(t *testing.T) {
	store, err := NewStore(config.StorageConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled store: %v", err)
	}
	if store != nil {
		t.Fatalf("disabled storage must yield a nil store")
	}
}

func TestNewStoreUnknownDriver(t *testing.T) {
	_, err := NewStore(config.StorageConfig{Enabled: true, Driver: "oracle"})
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestSQLiteSaveRun(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "runs.db")
	store, err := NewSQLite(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	run := model.Run{
		Timestamp:  time.Date(2024, 3, 15, 14, 2, 11, 0, time.UTC),
		SourcePath: "/data/run01.lvm",
		TestDate:   "15/03/2024",
		Channel:    "pressure",
		Spec:       model.WindowSpec{MinLength: 2, MaxLength: 5},
		Result:     model.WindowResult{Start: 10, End: 31, StdDev: 0.012, Length: 3},
		Mean:       1.31,
		StartTime:  5.0,
		EndTime:    8.0,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}

	db := store.(*sqliteStore).db
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows %d, want 1", count)
	}
	var channel string
	var bestLen, stdDev float64
	var points int
	err = db.QueryRowContext(ctx,
		`SELECT channel, best_length, std_dev, points FROM runs`).
		Scan(&channel, &bestLen, &stdDev, &points)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if channel != "pressure" || bestLen != 3 || stdDev != 0.012 || points != 21 {
		t.Fatalf("row %s/%g/%g/%d", channel, bestLen, stdDev, points)
	}
}

func TestSQLiteInitIdempotent(t *testing.T) {
	store, err := NewSQLite("file:" + filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

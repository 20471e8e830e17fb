// Package dbtest connects tests to the database configured in
// settings/appsettings.TESTING.yaml.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"housetrades/src/config"
	"housetrades/src/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

var (
	once    sync.Once
	testDB  *pgxpool.Pool
	initErr error
)

// SetupTestDB returns a pool on the test database with migrations applied and
// every table truncated. Tests are skipped when the database is unreachable.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	once.Do(func() {
		testDB, initErr = connect()
	})
	if initErr != nil {
		t.Skipf("test database unavailable: %v", initErr)
	}
	TruncateTables(t, testDB)
	return testDB
}

func connect() (*pgxpool.Pool, error) {
	root, err := getServiceRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to get service root path: %w", err)
	}
	cfg, err := config.LoadConfig(filepath.Join(root, "settings"), "TESTING")
	if err != nil {
		return nil, fmt.Errorf("failed to load test configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := database.SetupDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := database.Migrate(sqlDB, filepath.Join(root, "migrations")); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// getServiceRoot walks up from the working directory to the one holding go.mod.
func getServiceRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		wd = parent
	}
}

// TruncateTables truncates all tables in the test database
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	tables := []string{
		"transactions",
		"daily_prices",
		"stocks",
		"representatives",
		"ingestion_runs",
	}
	for _, table := range tables {
		_, err := pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Fatalf("Failed to truncate table %s: %v", table, err)
		}
	}
}

package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/shiftcover/internal/profile"
	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/db"
)

// NewTestingStore opens a migrated store for the driver named by DRIVER
// (sqlite by default). SQLite stores live in the test's temp dir.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	driver := getDriverFromEnv()
	dataDir := t.TempDir()

	p := &profile.Profile{
		Mode:    "dev",
		Version: "test",
		Data:    dataDir,
		Driver:  driver,
	}
	switch driver {
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		p.DSN = filepath.Join(dataDir, "shiftcover_test.db")
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}

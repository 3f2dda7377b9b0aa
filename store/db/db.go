package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/shiftcover/internal/profile"
	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/db/postgres"
	"github.com/hrygo/shiftcover/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// The remote schedule store runs on PostgreSQL or SQLite.
//
// PostgreSQL: shared deployments.
// SQLite: development, demos and tests.
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}

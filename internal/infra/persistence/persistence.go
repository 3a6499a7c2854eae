// Package persistence selects a run-store backend by driver name.
package persistence

import (
	"fmt"
	"os"

	"nmrcore/internal/infra/persistence/memory"
	"nmrcore/internal/infra/persistence/postgres"
	"nmrcore/internal/infra/persistence/sqlite"
	"nmrcore/internal/registry"
)

// Driver identifies a concrete run-store implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-process only (tests / one-shot runs)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Open constructs the store named by driver. The dsn is the file path for
// sqlite, the connection string for postgres, and ignored for memory. An
// empty driver defaults to memory so one-shot conversions leave no files
// behind.
func Open(driver Driver, dsn string) (registry.Store, error) {
	if driver == "" {
		driver = DriverMemory
	}
	switch driver {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(dsn)
	case DriverPostgres:
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// OpenFromEnv selects a backend using environment variables.
//
//	NMRCORE_STORE_DRIVER: memory|sqlite|postgres (default memory)
//	NMRCORE_STORE_DSN: sqlite path or postgres DSN
func OpenFromEnv() (registry.Store, error) {
	return Open(Driver(os.Getenv("NMRCORE_STORE_DRIVER")), os.Getenv("NMRCORE_STORE_DSN"))
}

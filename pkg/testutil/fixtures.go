package testutil

import (
	"path/filepath"
	"testing"

	"flightsurety/internal/platform/database"
	"flightsurety/migrations"
	"flightsurety/pkg/domain"
)

// Addresses are fixed participant identities for deterministic tests.
var Addresses = struct {
	Owner     domain.Address
	AirlineA  domain.Address
	AirlineB  domain.Address
	AirlineC  domain.Address
	InsureeX  domain.Address
	InsureeY  domain.Address
	Outsider  domain.Address
	Operator2 domain.Address
}{
	Owner:     "0x00000000000000000000000000000000000000f0",
	AirlineA:  "0x000000000000000000000000000000000000a001",
	AirlineB:  "0x000000000000000000000000000000000000a002",
	AirlineC:  "0x000000000000000000000000000000000000a003",
	InsureeX:  "0x000000000000000000000000000000000000b001",
	InsureeY:  "0x000000000000000000000000000000000000b002",
	Outsider:  "0x000000000000000000000000000000000000dead",
	Operator2: "0x00000000000000000000000000000000000000f1",
}

// SQLite is a migrated database in a per-test temp dir together with the
// runner every store in the test must share.
type SQLite struct {
	Pool   *database.Pool
	Runner *database.TxRunner
}

// NewSQLite opens a fresh database with the production migrations applied.
// It is closed automatically when the test ends.
func NewSQLite(t testing.TB) *SQLite {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "flightsurety.db")
	pool, err := database.New(cfg, migrations.FS)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = pool.Close() //nolint:errcheck // best-effort cleanup
	})
	return &SQLite{Pool: pool, Runner: database.NewTxRunner(pool.DB())}
}

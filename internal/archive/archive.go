// Package archive persists comparison outcomes for trend tracking.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"github.com/go-sql-driver/mysql"   // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table names for the archive.
const (
	runsTable           = "cecompare_runs"
	endpointDeltasTable = "cecompare_endpoint_deltas"
)

// Store implements contract.ArchiveStore on top of database/sql.
type Store struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.ArchiveStore = &Store{} // Compile-time check

// Open connects to the archive and migrates it to the latest schema.
// The none backend yields a store whose operations are no-ops.
func Open(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*Store, error) {
	if backend == schema.NoneBackend || backend == "" {
		return &Store{backend: schema.NoneBackend}, nil
	}

	db, err := openDB(ctx, backend, connStr)
	if err != nil {
		return nil, err
	}

	m, err := newMigrator(db, backend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrateUp(m); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, backend: backend}, nil
}

// openDB opens and pings the database of the given backend.
func openDB(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetArchiveDBFilePath()
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite archive at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		dsn, err := mysqlDSN(connStr)
		if err != nil {
			return nil, err
		}
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL archive: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL archive: %w. Check connection string format: host=... dbname=...", err)
		}

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s archive: %w", backend, err)
	}
	return db, nil
}

// mysqlDSN makes sure DATETIME columns scan into time.Time.
func mysqlDSN(connStr string) (string, error) {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Sink returns an outcome sink that archives every outcome it receives.
func Sink(store contract.ArchiveStore) contract.OutcomeSink {
	return contract.OutcomeSinkFunc(func(ctx context.Context, tenant string, outcome schema.DateOutcome) error {
		runID, err := store.RecordOutcome(ctx, tenant, outcome)
		if err != nil {
			return fmt.Errorf("failed to archive outcome for %s: %w", outcome.Date, err)
		}
		zap.L().Debug("outcome archived",
			zap.String("tenant", tenant),
			zap.String("date", outcome.Date),
			zap.Int64("run_id", runID))
		return nil
	})
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Database wraps the read-only handle the leak map is built from.
type Database struct {
	DB     *sql.DB // The underlying SQL database connection
	Driver string  // Normalized driver name so SQL builders can stay declarative

	logf      func(string, ...any)
	closeOnce sync.Once
	closeErr  error
}

// Config holds the configuration details for opening the measurement store.
type Config struct {
	DBType    string `yaml:"type"`     // "sqlite", "genji", "duckdb" or "pgx" (PostgreSQL)
	DBPath    string `yaml:"path"`     // File path for file-based databases
	DBConn    string `yaml:"dsn"`      // Raw DSN for pgx, wins over the discrete fields
	DBHost    string `yaml:"host"`     // The host for PostgreSQL
	DBPort    int    `yaml:"port"`     // The port for PostgreSQL
	DBUser    string `yaml:"user"`     // The user for PostgreSQL
	DBPass    string `yaml:"password"` // The password for PostgreSQL
	DBName    string `yaml:"name"`     // The name of the PostgreSQL database
	PGSSLMode string `yaml:"sslmode"`  // The SSL mode for PostgreSQL
}

// normalizeDBType trims and lowercases driver names so switch blocks
// match regardless of how the caller spelled them.
func normalizeDBType(dbType string) string {
	return strings.ToLower(strings.TrimSpace(dbType))
}

// DSN renders the connection string handed to sql.Open for cfg.
func (cfg Config) DSN() (string, error) {
	switch normalizeDBType(cfg.DBType) {
	case "sqlite", "genji", "duckdb":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return "", fmt.Errorf("%s: database path is required", cfg.DBType)
		}
		return cfg.DBPath, nil
	case "pgx":
		if trimmed := strings.TrimSpace(cfg.DBConn); trimmed != "" {
			return trimmed, nil
		}
		sslMode := cfg.PGSSLMode
		if sslMode == "" {
			sslMode = "prefer"
		}
		dsn := url.URL{
			Scheme:   "postgres",
			Host:     fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort),
			Path:     "/" + cfg.DBName,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		if cfg.DBUser != "" {
			dsn.User = url.UserPassword(cfg.DBUser, cfg.DBPass)
		}
		return dsn.String(), nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// NewDatabase opens the store described by config and verifies it answers.
// File-based engines are pinned to a single connection.
func NewDatabase(config Config, logf func(string, ...any)) (*Database, error) {
	if logf == nil {
		logf = log.Printf
	}
	driverName := normalizeDBType(config.DBType)
	dsn, err := config.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening the database: %w", err)
	}
	return wrap(db, driverName, logf)
}

// wrap applies per-engine pool settings to an already opened handle.
func wrap(db *sql.DB, driverName string, logf func(string, ...any)) (*Database, error) {
	switch driverName {
	case "sqlite", "genji", "duckdb":
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	case "pgx":
		db.SetMaxOpenConns(4)
		db.SetConnMaxIdleTime(2 * time.Minute)
	}

	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("error connecting to the database: %w", err)
		}
	}

	switch driverName {
	case "sqlite":
		tuneCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := tuneSQLiteConnection(tuneCtx, db, logf); err != nil {
			logf("sqlite tuning skipped: %v", err)
		}
		cancel()
	case "duckdb":
		tuneCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := tuneDuckDBConnection(tuneCtx, db, logf); err != nil {
			logf("duckdb tuning skipped: %v", err)
		}
		cancel()
	}

	logf("Using database driver: %s", driverName)
	return &Database{DB: db, Driver: driverName, logf: logf}, nil
}

// FromDB adopts an existing handle, e.g. one produced by sqlmock in tests.
// No ping or tuning is performed.
func FromDB(db *sql.DB, driverName string, logf func(string, ...any)) *Database {
	if logf == nil {
		logf = log.Printf
	}
	return &Database{DB: db, Driver: normalizeDBType(driverName), logf: logf}
}

// Close releases the handle. Repeated calls return the first result.
func (db *Database) Close() error {
	if db == nil {
		return nil
	}
	db.closeOnce.Do(func() {
		if db.DB != nil {
			db.closeErr = db.DB.Close()
		}
	})
	return db.closeErr
}

// tuneSQLiteConnection applies read-friendly pragmas. The workload never
// writes, so only the settings that speed up large BLOB scans are touched.
func tuneSQLiteConnection(ctx context.Context, db *sql.DB, logf func(string, ...any)) error {
	type pragma struct {
		label string
		query string
	}

	steps := []pragma{
		{label: "temp_store", query: "PRAGMA temp_store=MEMORY;"},
		{label: "cache_size", query: "PRAGMA cache_size=-20000;"},
		{label: "busy_timeout", query: "PRAGMA busy_timeout=5000;"},
	}
	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.query); err != nil {
			return fmt.Errorf("apply %s: %w", step.label, err)
		}
		logf("SQLite tuning %s applied", step.label)
	}
	return nil
}

// tuneDuckDBConnection lets DuckDB use every CPU for the full-table scans.
func tuneDuckDBConnection(ctx context.Context, db *sql.DB, logf func(string, ...any)) error {
	threads := runtime.NumCPU()
	if threads < 1 {
		threads = 1
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA threads=%d;", threads)); err != nil {
		return fmt.Errorf("apply threads: %w", err)
	}
	logf("DuckDB tuning threads=%d applied", threads)
	return nil
}

// undefinedTable is the PostgreSQL SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// missingTablePatterns are the "no such table" messages of sqlite, duckdb,
// genji and PostgreSQL errors flattened to text, in that order. Each names
// a table or relation so unrelated lookups (files, roles, databases) are
// not mistaken for a missing table.
var missingTablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`no such table`),
	regexp.MustCompile(`table with name \S+ does not exist`),
	regexp.MustCompile(`table (\S+ )?not found`),
	regexp.MustCompile(`relation \S+ does not exist \(sqlstate 42p01\)`),
}

// isMissingTable recognises the "no such table" family of errors across engines.
func isMissingTable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTableNotFound) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedTable
	}
	msg := strings.ToLower(err.Error())
	for _, re := range missingTablePatterns {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

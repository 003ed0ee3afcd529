package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"methane-leak-map/pkg/config"
	"methane-leak-map/pkg/database"
	"methane-leak-map/pkg/leakmap"
	"methane-leak-map/pkg/logger"
	"methane-leak-map/pkg/pipeline"
)

var configPath = flag.String("config", "", "Optional YAML config file; flags set on the command line override it")
var envFile = flag.String("env-file", ".env", "Optional .env file exported before the config is read")
var dbType = flag.String("db-type", "sqlite", "Type of the database driver: sqlite, genji, duckdb, or pgx (postgresql)")
var dbPath = flag.String("db-path", "data/methane_project_DB", "Path to the database file (sqlite, genji, duckdb)")
var dbConn = flag.String("db-conn", "", "Full PostgreSQL DSN (pgx); overrides the discrete db-* flags")
var dbHost = flag.String("db-host", "127.0.0.1", "Database host (applicable for pgx driver)")
var dbPort = flag.Int("db-port", 5432, "Database port (applicable for pgx driver)")
var dbUser = flag.String("db-user", "postgres", "Database user (applicable for pgx driver)")
var dbPass = flag.String("db-pass", "", "Database password (applicable for pgx driver)")
var dbName = flag.String("db-name", "methane", "Database name (applicable for pgx driver)")
var pgSSLMode = flag.String("pg-ssl-mode", "prefer", "PostgreSQL SSL mode: disable, allow, prefer, require, verify-ca, or verify-full")
var table = flag.String("table", "measurements", "Measurement table to map")
var city = flag.String("city", "", "City label; the map is written to <city>_maine_map.html (required)")
var outDir = flag.String("out-dir", ".", "Directory the map is written to")
var shareURL = flag.String("share-url", "", "Where the map will be published; embeds a QR code linking to it")
var logLevel = flag.String("log-level", "INFO", "DEBUG prints run details live; otherwise they are only printed on failure")
var version = flag.Bool("version", false, "Show the application version")

var CompileVersion = "dev"

// loadConfig layers defaults, the optional YAML file and the flags the
// user actually set, in that order.
func loadConfig() (config.Config, error) {
	if err := config.LoadEnvFile(*envFile, isFlagSet("env-file")); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *configPath != "" {
		if err := config.LoadFile(*configPath, &cfg); err != nil {
			return config.Config{}, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db-type":
			cfg.Database.DBType = *dbType
		case "db-path":
			cfg.Database.DBPath = *dbPath
		case "db-conn":
			cfg.Database.DBConn = *dbConn
		case "db-host":
			cfg.Database.DBHost = *dbHost
		case "db-port":
			cfg.Database.DBPort = *dbPort
		case "db-user":
			cfg.Database.DBUser = *dbUser
		case "db-pass":
			cfg.Database.DBPass = *dbPass
		case "db-name":
			cfg.Database.DBName = *dbName
		case "pg-ssl-mode":
			cfg.Database.PGSSLMode = *pgSSLMode
		case "table":
			cfg.Table = *table
		case "city":
			cfg.City = *city
		case "out-dir":
			cfg.OutputDir = *outDir
		case "share-url":
			cfg.ShareURL = *shareURL
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	return cfg, cfg.Validate()
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// run opens the store, loads the photo evidence once and hands both to the
// mapper.
func run(ctx context.Context, cfg config.Config, logf func(string, ...any)) (leakmap.SaveInfo, error) {
	db, err := database.NewDatabase(cfg.Database, logf)
	if err != nil {
		return leakmap.SaveInfo{}, fmt.Errorf("DB init: %w", err)
	}
	defer db.Close()

	photos, err := db.LoadPhotos(ctx)
	if err != nil {
		return leakmap.SaveInfo{}, fmt.Errorf("load photos: %w", err)
	}
	logf("Loaded %d photos", photos.Len())

	mapper, err := pipeline.NewMapper(db, photos, pipeline.Settings{
		Table:     cfg.Table,
		City:      cfg.City,
		OutputDir: cfg.OutputDir,
		ShareURL:  cfg.ShareURL,
	}, logf)
	if err != nil {
		return leakmap.SaveInfo{}, err
	}
	return mapper.Execute(ctx)
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("methane-leak-map version %s\n", CompileVersion)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	runID := uuid.NewString()
	logf := logger.Appendf(runID)
	if logger.Enabled(logger.LevelDebug) {
		logf = logger.Debugf
	}
	logger.Begin(runID)
	logger.Infof("run %s: mapping table %q for %s", runID, cfg.Table, cfg.City)

	info, err := run(context.Background(), cfg, logf)
	if err != nil {
		logger.FlushError(runID, err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Success(runID, info.Path)
	logger.Sync()
}

package main

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

var db *gorm.DB

// initDB initializes the database connection and runs migrations
func initDB(conf *Config) {
	var err error
	// Use pure Go SQLite driver (no CGO required)
	dbPath := conf.DBPath

	// Ensure the directory exists (for Docker volumes)
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("directory", dir).Msg("Could not create database directory")
		}
	}

	// Enable WAL mode and configure connection pool for better concurrency
	// WAL mode allows multiple readers and one writer simultaneously
	// _busy_timeout sets how long to wait for locks (in milliseconds)
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1"

	// Open database connection with modernc.org/sqlite
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	// Configure connection pool for SQLite (single connection recommended)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	// Create GORM instance
	db, err = gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Report artifacts live next to the database unless configured elsewhere
	if err := os.MkdirAll(conf.ReportDir, 0755); err != nil {
		log.Fatal().Err(err).Str("directory", conf.ReportDir).Msg("Failed to create report directory")
	}

	log.Info().Str("path", dbPath).Msg("✅ Database initialized")
}

// migrate creates or updates the schema for the three source tables and the
// report table.
func migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&StoreStatus{}, &BusinessHours{}, &StoreTimezone{}, &Report{})
}

// Package repo is the GORM persistence layer: accounts, expenses, reminders,
// the interaction journal and idempotency records. Functions take the *gorm.DB
// explicitly so services can pass a transaction.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// ErrUnknownDriver is returned by Open for drivers other than sqlite and postgres.
var ErrUnknownDriver = errors.New("unknown database driver")

// sqlitePragmas are applied by the driver to every pooled connection; a plain
// Exec after Open would only reach one of them.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

// Open connects to driver. dsn is a file path (or file: URI) for sqlite and
// a connection URL for postgres.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		return OpenSQLite(dsn)
	case "postgres", "postgresql":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// OpenSQLite opens or creates a sqlite database.
func OpenSQLite(path string) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: empty path")
	}
	// A missing directory otherwise surfaces as an opaque driver error.
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, fmt.Errorf("sqlite: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	// WAL still serializes writers; a small pool avoids SQLITE_BUSY churn.
	tunePool(db, 4)
	return db, nil
}

// sqliteDSN appends the connection pragmas to path, keeping any query the
// caller already set.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// OpenPostgres opens a PostgreSQL pool.
func OpenPostgres(url string) (*gorm.DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("postgres: empty connection url")
	}
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	tunePool(db, 25)
	return db, nil
}

func tunePool(db *gorm.DB, maxOpen int) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
}

// Instrument attaches OpenTelemetry spans to every query issued through db.
// Query metrics stay with the Prometheus middleware.
func Instrument(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates every table the assistant owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Account{},
		&domain.Expense{},
		&domain.Reminder{},
		&domain.Interaction{},
		&domain.Idempotency{},
	)
}

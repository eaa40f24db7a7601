package postgres

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/xy-planning-network/portfolio"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const cxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

const sqliteScheme = "sqlite://"

// CxnConfig holds connection information used to connect to a database.
//
// URL takes precedence over the individual fields.
// A URL starting with sqlite:// opens the SQLite database at the remaining path,
// e.g., sqlite://:memory: or sqlite:///var/lib/portfolio/db.sqlite3.
type CxnConfig struct {
	IsTestDB bool
	URL      string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string

	// MaxConns caps open connections; zero leaves it unlimited.
	MaxConns int
	// MaxIdleTime closes connections idle this long; zero keeps them.
	MaxIdleTime time.Duration
}

// Connect creates a database connection through GORM according to config.
//
// Test databases are emptied first.
func Connect(config *CxnConfig, env portfolio.Environment) (*DB, error) {
	// https://gorm.io/docs/logger.html
	c := logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  env.IsDevelopment(),
	}

	if env.IsTesting() {
		c.LogLevel = logger.Silent
	}

	dialector, isSQLite := buildDialector(config)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), c),
		NowFunc:        func() time.Time { return portfolio.NowFunc() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed connecting: %s", portfolio.ErrBadConfig, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
	}

	// NOTE(dlk): every connection to :memory: opens a separate database
	if isSQLite && strings.Contains(config.URL, ":memory:") {
		config.MaxConns = 1
	}

	if config.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxConns)
	}

	if config.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(config.MaxIdleTime)
	}

	if isSQLite {
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
		}
	}

	if config.IsTestDB && !isSQLite {
		if err := gdb.Exec("DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;").Error; err != nil {
			return nil, fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
		}
	}

	return NewDB(gdb), nil
}

func buildDialector(config *CxnConfig) (gorm.Dialector, bool) {
	if strings.HasPrefix(config.URL, sqliteScheme) {
		return sqlite.Open(strings.TrimPrefix(config.URL, sqliteScheme)), true
	}

	return postgres.Open(buildCxnStr(config)), false
}

func buildCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		cxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		sslMode,
	)
}

// WipeDB removes the data in every table, leaving the tables in place.
func WipeDB(db *DB) error {
	gdb := db.DB()
	tables, err := gdb.Migrator().GetTables()
	if err != nil {
		return fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
	}

	if len(tables) == 0 {
		return nil
	}

	if gdb.Dialector.Name() != "sqlite" {
		return gdb.Exec(fmt.Sprintf("TRUNCATE %s CASCADE;", strings.Join(tables, ", "))).Error
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("PRAGMA defer_foreign_keys = ON").Error; err != nil {
			return err
		}

		for _, table := range tables {
			if strings.HasPrefix(table, "sqlite_") {
				continue
			}

			if err := tx.Exec(fmt.Sprintf("DELETE FROM %q", table)).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

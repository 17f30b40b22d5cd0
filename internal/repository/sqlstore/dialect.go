// Package sqlstore implements the user store over database/sql for the
// SQLite and MySQL drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures what differs between the supported SQL engines
type Dialect struct {
	Name              string
	Driver            string
	Schema            []string
	IsUniqueViolation func(error) bool
}

// SQLite uses the pure Go modernc.org/sqlite driver
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          TEXT NOT NULL PRIMARY KEY,
			identifier  TEXT NOT NULL UNIQUE,
			secret_hash TEXT NOT NULL,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			prompt     TEXT NOT NULL,
			reply      TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_user_seq ON exchanges (user_id, seq)`,
	},
	IsUniqueViolation: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE")
		}
		return false
	},
}

// MySQL uses github.com/go-sql-driver/mysql
var MySQL = Dialect{
	Name:   "mysql",
	Driver: "mysql",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          CHAR(36) NOT NULL PRIMARY KEY,
			identifier  VARCHAR(255) NOT NULL UNIQUE,
			secret_hash VARCHAR(255) NOT NULL,
			created_at  DATETIME(6) NOT NULL,
			updated_at  DATETIME(6) NOT NULL
		) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			seq        BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			id         CHAR(36) NOT NULL UNIQUE,
			user_id    CHAR(36) NOT NULL,
			prompt     MEDIUMTEXT NOT NULL,
			reply      MEDIUMTEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_exchanges_user_seq (user_id, seq),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) CHARACTER SET utf8mb4`,
	},
	IsUniqueViolation: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == 1062
	},
}

// OpenSQLite opens (creating if needed) the database file at path
func OpenSQLite(ctx context.Context, path string) (*UserRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open(SQLite.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	return open(ctx, db, SQLite)
}

// OpenMySQL connects to MySQL. parseTime and clientFoundRows are forced on
// because scanning and UpdateSecret depend on them.
func OpenMySQL(ctx context.Context, dsn string) (*UserRepository, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}

	return open(ctx, sql.OpenDB(connector), MySQL)
}

func open(ctx context.Context, db *sql.DB, d Dialect) (*UserRepository, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", d.Name, err)
	}

	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate %s schema: %w", d.Name, err)
		}
	}

	return NewUserRepository(db, d), nil
}

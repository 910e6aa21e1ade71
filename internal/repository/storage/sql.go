package storage

import (
	"context"
	"database/sql"
	"fmt"

	// register the postgres and sqlite drivers with the database/sql package.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var driverNames = map[string]string{
	"sqlite":   "sqlite",
	"postgres": "postgres",
}

type Storage struct {
	Connection *sql.DB
}

// NewSQLStorage opens the roster database. driver is "sqlite" or "postgres".
func NewSQLStorage(ctx context.Context, driver, dsn string) (*Storage, error) {
	name, ok := driverNames[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	conn, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if driver == "sqlite" {
		// a single writer keeps sqlite from returning SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS roster (
		username TEXT PRIMARY KEY,
		joindate TIMESTAMP NOT NULL,
		visible  BOOLEAN NOT NULL DEFAULT TRUE
	)`

	_, err := that.Connection.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("can't create table: %w", err)
	}

	return nil
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}

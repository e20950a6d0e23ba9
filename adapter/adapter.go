package adapter

import (
	"context"
	"fmt"

	"github.com/mudrockdev/mudrockdivergence/config"
	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// Adapter defines the database-specific side of a comparison: how to reach
// a database and which metadata queries describe it.
type Adapter interface {
	Name() string
	DSN(conn *config.Connection) string
	Queries() divergence.Queries
	Connect(ctx context.Context, conn *config.Connection) (Source, error)
}

// Source is an open MetadataSource.
type Source interface {
	divergence.MetadataSource
	Close() error
}

// ConnectionError is returned when a database can't be reached.
type ConnectionError struct {
	Driver   string
	Host     string
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("connect to %s database %s: %v", e.Driver, e.Database, e.Err)
	}
	return fmt.Sprintf("connect to %s database %s on %s: %v", e.Driver, e.Database, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Get returns the appropriate adapter for the given driver name
func Get(driver string) (Adapter, error) {
	switch driver {
	case "mysql":
		return &MySQLAdapter{}, nil
	case "postgres", "postgresql":
		return &PostgreSQLAdapter{}, nil
	case "pgx":
		return &PgxAdapter{}, nil
	case "sqlite3", "sqlite":
		return &SQLiteAdapter{}, nil
	case "oracle":
		return &OracleAdapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", driver)
	}
}

// Side connects conn and pairs it with its adapter's queries.
func Side(ctx context.Context, conn *config.Connection) (divergence.Side, Source, error) {
	a, err := Get(conn.Driver)
	if err != nil {
		return divergence.Side{}, nil, err
	}
	src, err := a.Connect(ctx, conn)
	if err != nil {
		return divergence.Side{}, nil, err
	}
	return divergence.Side{Label: conn.Label(), Source: src, Queries: a.Queries()}, src, nil
}

func connectionError(driver string, conn *config.Connection, err error) error {
	return &ConnectionError{Driver: driver, Host: conn.Host, Database: conn.Database, Err: err}
}

package adapter

import (
	"context"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mudrockdev/mudrockdivergence/config"
	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// PostgreSQL has no storage engines or table collations, those attributes are
// selected as NULL. The current schema of the connection is compared.
// attnum keeps gaps left by dropped columns, so positions are renumbered.
var postgresQueries = divergence.Queries{
	Defaults: `
		SELECT
			pg_encoding_to_char(encoding)::text AS "DEFAULT_CHARACTER_SET_NAME",
			datcollate::text AS "DEFAULT_COLLATION_NAME"
		FROM pg_database
		WHERE datname = current_database()`,
	Tables: `
		SELECT
			t.table_name::text AS "TABLE_NAME",
			am.amname::text AS "ENGINE",
			NULL::text AS "VERSION",
			CASE c.relpersistence WHEN 'u' THEN 'UNLOGGED' ELSE 'LOGGED' END AS "ROW_FORMAT",
			NULL::text AS "TABLE_COLLATION",
			COALESCE(array_to_string(c.reloptions, ','), '') AS "CREATE_OPTIONS"
		FROM information_schema.tables t
		JOIN pg_namespace n ON n.nspname = t.table_schema
		JOIN pg_class c ON c.relnamespace = n.oid AND c.relname = t.table_name
		LEFT JOIN pg_am am ON am.oid = c.relam
		WHERE t.table_schema = current_schema() AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name`,
	Columns: `
		SELECT
			c.column_name::text AS "COLUMN_NAME",
			row_number() OVER (ORDER BY c.ordinal_position)::int AS "ORDINAL_POSITION",
			c.column_default::text AS "COLUMN_DEFAULT",
			c.is_nullable::text AS "IS_NULLABLE",
			c.character_set_name::text AS "CHARACTER_SET_NAME",
			c.collation_name::text AS "COLLATION_NAME",
			format_type(a.atttypid, a.atttypmod) AS "COLUMN_TYPE",
			CASE WHEN c.is_identity = 'YES' THEN 'identity'
				WHEN c.is_generated = 'ALWAYS' THEN 'generated'
				ELSE '' END AS "EXTRA",
			COALESCE(col_description(a.attrelid, a.attnum), '') AS "COLUMN_COMMENT"
		FROM information_schema.columns c
		JOIN pg_attribute a
			ON a.attrelid = format('%I.%I', c.table_schema, c.table_name)::regclass
			AND a.attname = c.column_name
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position`,
}

func postgresDSN(conn *config.Connection) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(conn.User, conn.Password),
		Host:   conn.Address(5432),
		Path:   "/" + conn.Database,
	}
	if len(conn.Params) > 0 {
		q := url.Values{}
		for k, v := range conn.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// PostgreSQLAdapter implements Adapter for PostgreSQL through lib/pq
type PostgreSQLAdapter struct{}

func (a *PostgreSQLAdapter) Name() string {
	return "postgres"
}

func (a *PostgreSQLAdapter) DSN(conn *config.Connection) string {
	return postgresDSN(conn)
}

func (a *PostgreSQLAdapter) Queries() divergence.Queries {
	return postgresQueries
}

func (a *PostgreSQLAdapter) Connect(ctx context.Context, conn *config.Connection) (Source, error) {
	src, err := openSQL(ctx, "postgres", a.DSN(conn))
	if err != nil {
		return nil, connectionError(a.Name(), conn, err)
	}
	return src, nil
}

// PgxAdapter implements Adapter for PostgreSQL through a pgx pool
type PgxAdapter struct{}

func (a *PgxAdapter) Name() string {
	return "pgx"
}

func (a *PgxAdapter) DSN(conn *config.Connection) string {
	return postgresDSN(conn)
}

func (a *PgxAdapter) Queries() divergence.Queries {
	return postgresQueries
}

func (a *PgxAdapter) Connect(ctx context.Context, conn *config.Connection) (Source, error) {
	pgConfig, err := pgxpool.ParseConfig(a.DSN(conn))
	if err != nil {
		return nil, connectionError(a.Name(), conn, err)
	}
	pgConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		return nil, connectionError(a.Name(), conn, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, connectionError(a.Name(), conn, err)
	}
	return &PgxSource{pool: pool}, nil
}

// PgxSource runs metadata queries on a pgx pool.
type PgxSource struct {
	pool *pgxpool.Pool
}

func (s *PgxSource) Query(ctx context.Context, query string, args ...interface{}) ([]divergence.Row, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var result []divergence.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		row := make(divergence.Row, len(fields))
		for i, field := range fields {
			row[field.Name] = values[i]
		}
		result = append(result, row)
	}
	return result, errors.WithStack(rows.Err())
}

func (s *PgxSource) Close() error {
	s.pool.Close()
	return nil
}

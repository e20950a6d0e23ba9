package adapter

import (
	"context"
	"net/url"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mudrockdev/mudrockdivergence/config"
	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// SQLite has one text encoding per database and the BINARY collation as
// default. Table flags come from table_list, column metadata from the
// table-valued table_info pragma so the table name can be bound.
var sqliteQueries = divergence.Queries{
	Defaults: `
		SELECT
			encoding AS DEFAULT_CHARACTER_SET_NAME,
			'BINARY' AS DEFAULT_COLLATION_NAME
		FROM pragma_encoding`,
	Tables: `
		SELECT
			name AS TABLE_NAME,
			NULL AS ENGINE,
			NULL AS VERSION,
			CASE WHEN wr THEN 'WITHOUT ROWID' ELSE 'ROWID' END AS ROW_FORMAT,
			NULL AS TABLE_COLLATION,
			CASE WHEN strict THEN 'STRICT' ELSE '' END AS CREATE_OPTIONS
		FROM pragma_table_list
		WHERE schema = 'main' AND type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`,
	Columns: `
		SELECT
			name AS COLUMN_NAME,
			cid + 1 AS ORDINAL_POSITION,
			dflt_value AS COLUMN_DEFAULT,
			CASE WHEN "notnull" THEN 'NO' ELSE 'YES' END AS IS_NULLABLE,
			NULL AS CHARACTER_SET_NAME,
			NULL AS COLLATION_NAME,
			lower(type) AS COLUMN_TYPE,
			CASE WHEN pk > 0 THEN 'primary key' ELSE '' END AS EXTRA,
			'' AS COLUMN_COMMENT
		FROM pragma_table_info(?)
		ORDER BY cid`,
}

// SQLiteAdapter implements Adapter for SQLite database files
type SQLiteAdapter struct{}

func (a *SQLiteAdapter) Name() string {
	return "sqlite3"
}

// DSN opens the file read-only unless params say otherwise.
func (a *SQLiteAdapter) DSN(conn *config.Connection) string {
	q := url.Values{"mode": {"ro"}}
	for k, v := range conn.Params {
		q.Set(k, v)
	}
	return "file:" + sqlitePath(conn.Database) + "?" + q.Encode()
}

func (a *SQLiteAdapter) Queries() divergence.Queries {
	return sqliteQueries
}

func (a *SQLiteAdapter) Connect(ctx context.Context, conn *config.Connection) (Source, error) {
	// sqlite creates missing files, which would compare as an empty schema.
	if _, err := os.Stat(sqlitePath(conn.Database)); err != nil {
		return nil, connectionError(a.Name(), conn, errors.WithStack(err))
	}
	src, err := openSQL(ctx, "sqlite3", a.DSN(conn))
	if err != nil {
		return nil, connectionError(a.Name(), conn, err)
	}
	return src, nil
}

func sqlitePath(database string) string {
	// For SQLite, remove sqlite:// and file: prefixes if present
	path := strings.TrimPrefix(database, "sqlite://")
	path = strings.TrimPrefix(path, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	return path
}

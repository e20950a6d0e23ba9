package adapter

import (
	"context"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/mudrockdev/mudrockdivergence/config"
	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// Oracle compares the objects of the connected user. Database holds the
// service name. The defaults row comes from the NLS database parameters.
// Recycle bin tables are skipped.
var oracleQueries = divergence.Queries{
	Defaults: `
		SELECT
			MAX(CASE WHEN parameter = 'NLS_CHARACTERSET' THEN value END) AS DEFAULT_CHARACTER_SET_NAME,
			MAX(CASE WHEN parameter = 'NLS_SORT' THEN value END) AS DEFAULT_COLLATION_NAME
		FROM nls_database_parameters`,
	Tables: `
		SELECT
			table_name AS TABLE_NAME,
			NULL AS ENGINE,
			NULL AS VERSION,
			compression AS ROW_FORMAT,
			NULL AS TABLE_COLLATION,
			CASE WHEN partitioned = 'YES' THEN 'partitioned' END AS CREATE_OPTIONS
		FROM user_tables
		WHERE nested = 'NO' AND secondary = 'N' AND dropped = 'NO'
		ORDER BY table_name`,
	Columns: `
		SELECT
			c.column_name AS COLUMN_NAME,
			c.column_id AS ORDINAL_POSITION,
			c.data_default AS COLUMN_DEFAULT,
			CASE c.nullable WHEN 'Y' THEN 'YES' ELSE 'NO' END AS IS_NULLABLE,
			c.character_set_name AS CHARACTER_SET_NAME,
			NULL AS COLLATION_NAME,
			CASE
				WHEN c.data_type IN ('CHAR', 'VARCHAR2', 'NCHAR', 'NVARCHAR2')
					THEN c.data_type || '(' || c.char_length || ')'
				WHEN c.data_precision IS NOT NULL AND NVL(c.data_scale, 0) <> 0
					THEN c.data_type || '(' || c.data_precision || ',' || c.data_scale || ')'
				WHEN c.data_precision IS NOT NULL
					THEN c.data_type || '(' || c.data_precision || ')'
				WHEN c.data_type = 'NUMBER' AND c.data_scale IS NOT NULL
					THEN 'NUMBER(*,' || c.data_scale || ')'
				ELSE c.data_type END AS COLUMN_TYPE,
			NULL AS EXTRA,
			cc.comments AS COLUMN_COMMENT
		FROM user_tab_columns c
		LEFT JOIN user_col_comments cc
			ON cc.table_name = c.table_name AND cc.column_name = c.column_name
		WHERE c.table_name = :1
		ORDER BY c.column_id`,
}

// OracleAdapter implements Adapter for Oracle through go-ora
type OracleAdapter struct{}

func (a *OracleAdapter) Name() string {
	return "oracle"
}

func (a *OracleAdapter) DSN(conn *config.Connection) string {
	host, port := conn.HostPort(1521)
	return go_ora.BuildUrl(host, port, conn.Database, conn.User, conn.Password, conn.Params)
}

func (a *OracleAdapter) Queries() divergence.Queries {
	return oracleQueries
}

func (a *OracleAdapter) Connect(ctx context.Context, conn *config.Connection) (Source, error) {
	src, err := openSQL(ctx, "oracle", a.DSN(conn))
	if err != nil {
		return nil, connectionError(a.Name(), conn, err)
	}
	return src, nil
}

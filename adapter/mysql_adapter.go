package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/mudrockdev/mudrockdivergence/config"
	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// MySQLAdapter implements Adapter for MySQL and MariaDB
type MySQLAdapter struct{}

func (a *MySQLAdapter) Name() string {
	return "mysql"
}

func (a *MySQLAdapter) DSN(conn *config.Connection) string {
	c := mysql.NewConfig()
	c.User = conn.User
	c.Passwd = conn.Password
	c.Net = "tcp"
	c.Addr = conn.Address(3306)
	c.DBName = conn.Database
	c.Params = map[string]string{"charset": "utf8mb4"}
	for k, v := range conn.Params {
		c.Params[k] = v
	}
	return c.FormatDSN()
}

func (a *MySQLAdapter) Queries() divergence.Queries {
	return divergence.Queries{
		Defaults: "SELECT DEFAULT_CHARACTER_SET_NAME, DEFAULT_COLLATION_NAME " +
			"FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = DATABASE()",
		Tables: fmt.Sprintf("SELECT TABLE_NAME, %s FROM information_schema.TABLES "+
			"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME",
			strings.Join(divergence.TableAttributes, ", ")),
		Columns: fmt.Sprintf("SELECT COLUMN_NAME, %s FROM information_schema.COLUMNS "+
			"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
			strings.Join(divergence.ColumnAttributes, ", ")),
	}
}

func (a *MySQLAdapter) Connect(ctx context.Context, conn *config.Connection) (Source, error) {
	src, err := openSQL(ctx, "mysql", a.DSN(conn))
	if err != nil {
		return nil, connectionError(a.Name(), conn, err)
	}
	return src, nil
}

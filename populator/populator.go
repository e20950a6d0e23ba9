package populator

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Define possible column types
type ColumnType int

const (
	TypeInteger ColumnType = iota
	TypeReal
	TypeText
	TypeBlob
	TypeDateTime
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeText:
		return "TEXT"
	case TypeBlob:
		return "BLOB"
	case TypeDateTime:
		return "DATETIME"
	}
	return "TEXT"
}

// Define column structure
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	NotNull    bool
	Default    string // SQL expression, empty for none
}

// Define table structure
type Table struct {
	Name         string
	Columns      []Column
	WithoutRowID bool
	Strict       bool // column types limited to INTEGER, REAL, TEXT, BLOB
}

// Create writes tables into a new SQLite file at path, replacing any
// existing file.
func Create(ctx context.Context, path string, tables []Table) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	return Apply(ctx, db, tables)
}

// Apply creates tables in db.
func Apply(ctx context.Context, db *sql.DB, tables []Table) error {
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, createTableSQL(table)); err != nil {
			return errors.Wrapf(err, "create table %s", table.Name)
		}
	}
	return nil
}

// Create SQL for table creation
func createTableSQL(table Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quote(table.Name))

	for i, col := range table.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "    %s %s", quote(col.Name), col.Type)
		if col.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		}
		if col.NotNull {
			b.WriteString(" NOT NULL")
		}
		if col.Default != "" {
			fmt.Fprintf(&b, " DEFAULT %s", col.Default)
		}
	}

	b.WriteString("\n)")
	var options []string
	if table.Strict {
		options = append(options, "STRICT")
	}
	if table.WithoutRowID {
		options = append(options, "WITHOUT ROWID")
	}
	if len(options) > 0 {
		b.WriteString(" " + strings.Join(options, ", "))
	}
	return b.String()
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// Random generates count tables of 5 to 20 columns with an INTEGER id
// primary key.
func Random(rnd *rand.Rand, count int) []Table {
	tables := make([]Table, 0, count)
	for i := 0; i < count; i++ {
		tables = append(tables, randomTable(rnd, i))
	}
	return tables
}

// Generate a random table schema
func randomTable(rnd *rand.Rand, tableIndex int) Table {
	columnCount := 5 + rnd.Intn(16)
	table := Table{
		Name:    fmt.Sprintf("random_table_%d", tableIndex),
		Columns: make([]Column, 0, columnCount),
	}

	table.Columns = append(table.Columns, Column{
		Name:       "id",
		Type:       TypeInteger,
		PrimaryKey: true,
	})

	for i := 0; i < columnCount-1; i++ {
		column := Column{
			Name:    fmt.Sprintf("col_%d", i+1),
			Type:    ColumnType(rnd.Intn(5)),
			NotNull: rnd.Intn(4) == 0,
		}
		if column.NotNull {
			column.Default = defaultFor(column.Type)
		}
		table.Columns = append(table.Columns, column)
	}

	return table
}

func defaultFor(t ColumnType) string {
	switch t {
	case TypeInteger:
		return "0"
	case TypeReal:
		return "0.0"
	case TypeBlob:
		return "x''"
	case TypeDateTime:
		return "CURRENT_TIMESTAMP"
	default:
		return "''"
	}
}

// DemoPair returns a source and a destination schema that differ in a few
// typical ways: a dropped table, an added table, a changed column type,
// a relaxed NOT NULL, a new default and a missing column.
func DemoPair() (source, destination []Table) {
	users := func() Table {
		return Table{Name: "users", Columns: []Column{
			{Name: "id", Type: TypeInteger, PrimaryKey: true},
			{Name: "email", Type: TypeText, NotNull: true},
			{Name: "name", Type: TypeText},
			{Name: "created_at", Type: TypeDateTime, NotNull: true, Default: "CURRENT_TIMESTAMP"},
		}}
	}
	orders := func() Table {
		return Table{Name: "orders", Columns: []Column{
			{Name: "id", Type: TypeInteger, PrimaryKey: true},
			{Name: "user_id", Type: TypeInteger, NotNull: true},
			{Name: "total", Type: TypeReal, NotNull: true, Default: "0"},
			{Name: "note", Type: TypeText},
		}}
	}

	source = []Table{users(), orders(), {Name: "audit_log", Columns: []Column{
		{Name: "id", Type: TypeInteger, PrimaryKey: true},
		{Name: "payload", Type: TypeBlob},
	}}}

	dstUsers := users()
	dstUsers.Columns[1].NotNull = false
	dstUsers.Columns[2].Default = "''"
	dstOrders := orders()
	dstOrders.Columns[2].Type = TypeText
	dstOrders.Columns = dstOrders.Columns[:3]

	destination = []Table{dstUsers, dstOrders, {Name: "payments", Columns: []Column{
		{Name: "id", Type: TypeInteger, PrimaryKey: true},
		{Name: "order_id", Type: TypeInteger, NotNull: true},
	}}}
	return source, destination
}

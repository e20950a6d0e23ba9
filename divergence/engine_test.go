package divergence

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakeQueries = Queries{
	Defaults: "defaults",
	Tables:   "tables",
	Columns:  "columns WHERE TABLE_NAME = ?",
}

type call struct {
	query string
	args  []interface{}
}

type fakeSource struct {
	mu       sync.Mutex
	defaults Row
	tables   []Row
	columns  map[string][]Row
	failOn   string
	calls    []call
}

func (f *fakeSource) Query(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{query: query, args: args})
	f.mu.Unlock()

	if f.failOn == query {
		return nil, errors.New("permission denied")
	}
	switch query {
	case fakeQueries.Defaults:
		if f.defaults == nil {
			return nil, nil
		}
		return []Row{f.defaults}, nil
	case fakeQueries.Tables:
		return f.tables, nil
	case fakeQueries.Columns:
		return f.columns[args[0].(string)], nil
	}
	return nil, errors.Errorf("unexpected query %q", query)
}

func (f *fakeSource) columnCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tables []string
	for _, c := range f.calls {
		if c.query == fakeQueries.Columns {
			tables = append(tables, c.args[0].(string))
		}
	}
	return tables
}

func defaultsRow(charset, collation string) Row {
	return Row{"DEFAULT_CHARACTER_SET_NAME": charset, "DEFAULT_COLLATION_NAME": collation}
}

func tableRow(name string) Row {
	return Row{
		"TABLE_NAME":      name,
		"ENGINE":          "InnoDB",
		"VERSION":         int64(10),
		"ROW_FORMAT":      "Dynamic",
		"TABLE_COLLATION": "utf8mb4_0900_ai_ci",
		"CREATE_OPTIONS":  "",
	}
}

func columnRow(name string, position interface{}, columnType string) Row {
	return Row{
		"COLUMN_NAME":        name,
		"ORDINAL_POSITION":   position,
		"COLUMN_DEFAULT":     nil,
		"IS_NULLABLE":        "YES",
		"CHARACTER_SET_NAME": "utf8mb4",
		"COLLATION_NAME":     "utf8mb4_0900_ai_ci",
		"COLUMN_TYPE":        columnType,
		"EXTRA":              "",
		"COLUMN_COMMENT":     "",
	}
}

// schema builds a fake database holding the given tables, each with an id
// and an email column. Ordinal positions come back as bytes when asBytes is
// set, the way the MySQL text protocol returns them.
func schema(asBytes bool, tables ...string) *fakeSource {
	f := &fakeSource{
		defaults: defaultsRow("utf8mb4", "utf8mb4_0900_ai_ci"),
		columns:  make(map[string][]Row),
	}
	for _, table := range tables {
		f.tables = append(f.tables, tableRow(table))
		var id, email interface{} = int64(1), int64(2)
		if asBytes {
			id, email = []byte("1"), []byte("2")
		}
		f.columns[table] = []Row{
			columnRow("id", id, "bigint"),
			columnRow("email", email, "varchar(255)"),
		}
	}
	return f
}

func run(t *testing.T, src, dst *fakeSource, opts ...Option) *Result {
	t.Helper()
	e := NewEngine(
		Side{Label: "src", Source: src, Queries: fakeQueries},
		Side{Label: "dst", Source: dst, Queries: fakeQueries},
		opts...,
	)
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestIdenticalSchemasHaveNoDivergence(t *testing.T) {
	res := run(t, schema(false, "users", "orders"), schema(true, "users", "orders"))
	assert.Empty(t, res.Divergences)
	assert.False(t, res.Diverged())
	assert.Equal(t, 2, res.TablesCompared)
	assert.Equal(t, "src", res.Source)
	assert.Equal(t, "dst", res.Destination)
	assert.NotEmpty(t, res.RunID)
}

func TestMissingAndExtraTables(t *testing.T) {
	src := schema(false, "users", "orders")
	dst := schema(false, "users", "payments")

	res := run(t, src, dst)

	assert.Equal(t, []Divergence{
		{Kind: TablesMissing, Names: []string{"orders"}},
		{Kind: TablesExtra, Names: []string{"payments"}},
	}, res.Divergences)
	assert.Equal(t, []string{"users"}, src.columnCalls())
	assert.Equal(t, []string{"users"}, dst.columnCalls())
	assert.Equal(t, 1, res.TablesCompared)
	assert.Equal(t, 2, res.SourceTables)
	assert.Equal(t, 2, res.DestinationTables)
}

func TestColumnAttributeDiff(t *testing.T) {
	src := schema(false, "users")
	dst := schema(false, "users")
	dst.columns["users"][1]["IS_NULLABLE"] = "NO"

	res := run(t, src, dst)

	assert.Equal(t, []Divergence{{
		Kind:        ColumnDiff,
		Table:       "users",
		Column:      "email",
		Attribute:   "IS_NULLABLE",
		SourceValue: "YES",
		DestValue:   "NO",
	}}, res.Divergences)
}

func TestDatabaseCollationDiff(t *testing.T) {
	src := schema(false, "users")
	dst := schema(false, "users")
	src.defaults = defaultsRow("utf8mb4", "utf8mb4_general_ci")
	dst.defaults = defaultsRow("utf8mb4", "utf8mb4_0900_ai_ci")

	res := run(t, src, dst)

	assert.Equal(t, []Divergence{{
		Kind:        DatabaseDiff,
		Attribute:   "DEFAULT_COLLATION_NAME",
		SourceValue: "utf8mb4_general_ci",
		DestValue:   "utf8mb4_0900_ai_ci",
	}}, res.Divergences)
}

func TestTableCreateOptionsDiff(t *testing.T) {
	src := schema(false, "users")
	dst := schema(false, "users")
	dst.tables[0]["CREATE_OPTIONS"] = "row_format=DYNAMIC"

	res := run(t, src, dst)

	assert.Equal(t, []Divergence{{
		Kind:        TableDiff,
		Table:       "users",
		Attribute:   "CREATE_OPTIONS",
		SourceValue: "",
		DestValue:   "row_format=DYNAMIC",
	}}, res.Divergences)
}

func TestMissingAndExtraColumnsBeforeAttributeDiffs(t *testing.T) {
	src := schema(false, "users")
	dst := schema(false, "users")
	src.columns["users"] = append(src.columns["users"], columnRow("name", int64(3), "varchar(64)"))
	dst.columns["users"] = append(dst.columns["users"], columnRow("Name", int64(3), "varchar(64)"))
	dst.columns["users"][0]["COLUMN_TYPE"] = "int"
	dst.columns["users"][0]["EXTRA"] = "auto_increment"

	res := run(t, src, dst)

	assert.Equal(t, []Divergence{
		{Kind: ColumnsMissing, Table: "users", Names: []string{"name"}},
		{Kind: ColumnsExtra, Table: "users", Names: []string{"Name"}},
		{Kind: ColumnDiff, Table: "users", Column: "id", Attribute: "COLUMN_TYPE", SourceValue: "bigint", DestValue: "int"},
		{Kind: ColumnDiff, Table: "users", Column: "id", Attribute: "EXTRA", SourceValue: "", DestValue: "auto_increment"},
	}, res.Divergences)
}

func TestPhaseOrder(t *testing.T) {
	src := schema(false, "a", "b", "gone")
	dst := schema(false, "a", "b", "new")
	src.defaults = defaultsRow("latin1", "latin1_swedish_ci")
	dst.tables[0]["ENGINE"] = "MyISAM"
	dst.columns["a"][1]["COLUMN_DEFAULT"] = "''"
	dst.columns["b"] = dst.columns["b"][:1]

	res := run(t, src, dst)

	var kinds []Kind
	for _, d := range res.Divergences {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []Kind{
		DatabaseDiff, DatabaseDiff,
		TablesMissing, TablesExtra,
		TableDiff, ColumnDiff,
		ColumnsMissing,
	}, kinds)
	assert.Equal(t, []string{"gone", "new", "a", "b"}, res.DivergentTables())
}

func TestRunIsDeterministic(t *testing.T) {
	build := func() (*fakeSource, *fakeSource) {
		src := schema(false, "users", "orders", "invoices")
		dst := schema(true, "users", "orders", "payments")
		dst.tables[1]["ROW_FORMAT"] = "Compact"
		dst.columns["users"][0]["COLUMN_COMMENT"] = "primary"
		return src, dst
	}

	src, dst := build()
	first := run(t, src, dst)
	src, dst = build()
	second := run(t, src, dst)
	src, dst = build()
	third := run(t, src, dst, WithSequentialFetch())

	assert.Equal(t, first.Divergences, second.Divergences)
	assert.Equal(t, first.Divergences, third.Divergences)
}

func TestQueryFailureAbortsRun(t *testing.T) {
	for _, failOn := range []string{fakeQueries.Defaults, fakeQueries.Tables, fakeQueries.Columns} {
		t.Run(failOn, func(t *testing.T) {
			src := schema(false, "users")
			dst := schema(false, "users")
			dst.failOn = failOn

			e := NewEngine(
				Side{Label: "src", Source: src, Queries: fakeQueries},
				Side{Label: "dst", Source: dst, Queries: fakeQueries},
			)
			res, err := e.Run(context.Background())

			require.Error(t, err)
			assert.Nil(t, res)
			var qe *QueryError
			require.True(t, errors.As(err, &qe))
			assert.Equal(t, "dst", qe.Side)
			assert.Equal(t, failOn, qe.Query)
			assert.Contains(t, err.Error(), "permission denied")
		})
	}
}

func TestRowWithoutKeyIsAQueryError(t *testing.T) {
	src := schema(false, "users")
	dst := schema(false, "users")
	delete(src.tables[0], TableKey)

	e := NewEngine(
		Side{Label: "src", Source: src, Queries: fakeQueries},
		Side{Label: "dst", Source: dst, Queries: fakeQueries},
		WithSequentialFetch(),
	)
	res, err := e.Run(context.Background())

	assert.Nil(t, res)
	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "src", qe.Side)
	assert.Contains(t, qe.Error(), "TABLE_NAME")
}

func TestColumnsQueryBindsTableName(t *testing.T) {
	name := "we'ird`; DROP TABLE x; --"
	src := schema(false, name)
	dst := schema(false, name)

	run(t, src, dst, WithSequentialFetch())

	for _, c := range src.calls {
		if c.query == fakeQueries.Columns {
			assert.Equal(t, []interface{}{name}, c.args)
		} else {
			assert.Empty(t, c.args)
		}
	}
	assert.Equal(t, []string{name}, dst.columnCalls())
}

func TestTableFilter(t *testing.T) {
	src := schema(false, "users", "orders", "audit_log")
	dst := schema(false, "users", "payments")

	res := run(t, src, dst, WithTableFilter(func(table string) bool {
		return table != "audit_log" && table != "payments"
	}))

	assert.Equal(t, []Divergence{
		{Kind: TablesMissing, Names: []string{"orders"}},
	}, res.Divergences)
	assert.Equal(t, 2, res.SourceTables)
	assert.Equal(t, 1, res.DestinationTables)
}

func TestProgress(t *testing.T) {
	var seen [][2]int
	run(t, schema(false, "a", "b", "c"), schema(false, "a", "b"), WithProgress(func(done, total int) {
		seen = append(seen, [2]int{done, total})
	}))
	assert.Equal(t, [][2]int{{0, 2}, {1, 2}, {2, 2}}, seen)
}

func TestMissingDefaultsRowReadsAsNull(t *testing.T) {
	src := schema(false)
	dst := schema(false)
	dst.defaults = nil

	res := run(t, src, dst)

	assert.Equal(t, []Divergence{
		{Kind: DatabaseDiff, Attribute: "DEFAULT_CHARACTER_SET_NAME", SourceValue: "utf8mb4"},
		{Kind: DatabaseDiff, Attribute: "DEFAULT_COLLATION_NAME", SourceValue: "utf8mb4_0900_ai_ci"},
	}, res.Divergences)
}

package divergence

import (
	"fmt"
	"time"
)

// Key columns every metadata query has to return next to the attributes.
const (
	TableKey  = "TABLE_NAME"
	ColumnKey = "COLUMN_NAME"
)

// DatabaseAttributes are compared once per run.
var DatabaseAttributes = []string{
	"DEFAULT_CHARACTER_SET_NAME",
	"DEFAULT_COLLATION_NAME",
}

// TableAttributes are compared for every table present on both sides.
var TableAttributes = []string{
	"ENGINE",
	"VERSION",
	"ROW_FORMAT",
	"TABLE_COLLATION",
	"CREATE_OPTIONS",
}

// ColumnAttributes are compared for every column present on both sides.
var ColumnAttributes = []string{
	"ORDINAL_POSITION",
	"COLUMN_DEFAULT",
	"IS_NULLABLE",
	"CHARACTER_SET_NAME",
	"COLLATION_NAME",
	"COLUMN_TYPE",
	"EXTRA",
	"COLUMN_COMMENT",
}

// Row is one metadata row, column label to value.
type Row map[string]interface{}

type Kind int

const (
	DatabaseDiff Kind = iota
	TablesMissing
	TablesExtra
	TableDiff
	ColumnsMissing
	ColumnsExtra
	ColumnDiff
)

var kindNames = map[Kind]string{
	DatabaseDiff:   "DB_DIFF",
	TablesMissing:  "TABLES_MISSING",
	TablesExtra:    "TABLES_EXTRA",
	TableDiff:      "TABLE_DIFF",
	ColumnsMissing: "COLUMNS_MISSING",
	ColumnsExtra:   "COLUMNS_EXTRA",
	ColumnDiff:     "COLUMN_DIFF",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown divergence kind: %s", text)
}

// Divergence is a single difference between source and destination.
// Which fields are set depends on Kind:
//
//	DatabaseDiff                  Attribute, SourceValue, DestValue
//	TablesMissing, TablesExtra    Names
//	TableDiff                     Table, Attribute, SourceValue, DestValue
//	ColumnsMissing, ColumnsExtra  Table, Names
//	ColumnDiff                    Table, Column, Attribute, SourceValue, DestValue
type Divergence struct {
	Kind        Kind        `json:"kind"`
	Table       string      `json:"table,omitempty"`
	Column      string      `json:"column,omitempty"`
	Attribute   string      `json:"attribute,omitempty"`
	Names       []string    `json:"names,omitempty"`
	SourceValue interface{} `json:"source_value,omitempty"`
	DestValue   interface{} `json:"dest_value,omitempty"`
}

// Result is the outcome of one completed run.
type Result struct {
	RunID             string       `json:"run_id"`
	Source            string       `json:"source"`
	Destination       string       `json:"destination"`
	StartedAt         time.Time    `json:"started_at"`
	FinishedAt        time.Time    `json:"finished_at"`
	SourceTables      int          `json:"source_tables"`
	DestinationTables int          `json:"destination_tables"`
	TablesCompared    int          `json:"tables_compared"`
	Divergences       []Divergence `json:"divergences"`
}

func (r *Result) Diverged() bool {
	return len(r.Divergences) > 0
}

// DivergentTables returns the distinct table names that carry at least one
// table or column level divergence, in first-seen order.
func (r *Result) DivergentTables() []string {
	seen := make(map[string]bool)
	var tables []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}
	for _, d := range r.Divergences {
		switch d.Kind {
		case TablesMissing, TablesExtra:
			for _, name := range d.Names {
				add(name)
			}
		case DatabaseDiff:
		default:
			add(d.Table)
		}
	}
	return tables
}

func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

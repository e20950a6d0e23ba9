package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// TextReporter prints one line per divergence followed by a summary.
type TextReporter struct{}

func (r *TextReporter) Report(w io.Writer, res *divergence.Result) error {
	out := bufio.NewWriter(w)

	fmt.Fprintln(out, "=== Database Information ===")
	fmt.Fprintf(out, "Source: %s, Tables: %d\n", res.Source, res.SourceTables)
	fmt.Fprintf(out, "Destination: %s, Tables: %d\n", res.Destination, res.DestinationTables)

	fmt.Fprintln(out, "\n=== Divergences ===")
	for _, d := range res.Divergences {
		fmt.Fprintln(out, Line(res, d))
	}

	fmt.Fprintln(out, "\n=== Comparison Summary ===")
	if !res.Diverged() {
		fmt.Fprintf(out, "No divergences found between the databases (%d tables compared).\n", res.TablesCompared)
	} else {
		tables := res.DivergentTables()
		fmt.Fprintf(out, "Found %d divergences", len(res.Divergences))
		if len(tables) > 0 {
			fmt.Fprintf(out, " in %d tables", len(tables))
		}
		fmt.Fprintf(out, " (%d tables compared).\n", res.TablesCompared)
	}

	return out.Flush()
}

// Line formats a single divergence.
func Line(res *divergence.Result, d divergence.Divergence) string {
	db := fmt.Sprintf("DB: %s/%s", res.Source, res.Destination)
	switch d.Kind {
	case divergence.DatabaseDiff:
		return fmt.Sprintf("%s ::: DIFF: %s %s/%s", db, d.Attribute, formatValue(d.SourceValue), formatValue(d.DestValue))
	case divergence.TablesMissing, divergence.TablesExtra:
		return fmt.Sprintf("%s ::: %s ::: %s", db, d.Kind, strings.Join(d.Names, ", "))
	case divergence.TableDiff:
		return fmt.Sprintf("%s ::: TABLE: %s ::: DIFF: %s: %s/%s", db, d.Table, d.Attribute, formatValue(d.SourceValue), formatValue(d.DestValue))
	case divergence.ColumnsMissing, divergence.ColumnsExtra:
		return fmt.Sprintf("%s ::: TABLE: %s ::: %s: %s", db, d.Table, d.Kind, strings.Join(d.Names, ", "))
	case divergence.ColumnDiff:
		return fmt.Sprintf("%s ::: TABLE: %s ::: COLUMN: %s ::: DIFF: %s: %s/%s", db, d.Table, d.Column, d.Attribute, formatValue(d.SourceValue), formatValue(d.DestValue))
	default:
		return fmt.Sprintf("%s ::: %s", db, d.Kind)
	}
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}

	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return fmt.Sprintf("%v", v)
}

package report

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/mudrockdev/mudrockdivergence/divergence"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter writes the whole result as one JSON document.
type JSONReporter struct {
	Indent bool
}

type jsonDocument struct {
	*divergence.Result
	Diverged        bool     `json:"diverged"`
	DivergentTables []string `json:"divergent_tables"`
	ElapsedSeconds  float64  `json:"elapsed_seconds"`
}

func (r *JSONReporter) Report(w io.Writer, res *divergence.Result) error {
	copied := *res
	doc := jsonDocument{
		Result:          &copied,
		Diverged:        res.Diverged(),
		DivergentTables: res.DivergentTables(),
		ElapsedSeconds:  res.Duration().Seconds(),
	}
	if doc.Divergences == nil {
		doc.Divergences = []divergence.Divergence{}
	}
	if doc.DivergentTables == nil {
		doc.DivergentTables = []string{}
	}

	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

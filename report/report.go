package report

import (
	"fmt"
	"io"

	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// Exit codes of a comparison run.
const (
	ExitIdentical = 0
	ExitDiverged  = 1
	ExitFailed    = 2
)

// Reporter renders the result of a run.
type Reporter interface {
	Report(w io.Writer, res *divergence.Result) error
}

// Get returns the reporter for a format name.
func Get(format string) (Reporter, error) {
	switch format {
	case "", "text":
		return &TextReporter{}, nil
	case "json":
		return &JSONReporter{Indent: true}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// ExitCode tells "could not run" (err set) apart from "ran and found
// divergences".
func ExitCode(res *divergence.Result, err error) int {
	switch {
	case err != nil || res == nil:
		return ExitFailed
	case res.Diverged():
		return ExitDiverged
	default:
		return ExitIdentical
	}
}

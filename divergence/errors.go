package divergence

import "fmt"

// QueryError is returned when a metadata query fails during a run.
type QueryError struct {
	Side  string
	Query string
	Args  []interface{}
	Err   error
}

func (e *QueryError) Error() string {
	if len(e.Args) > 0 {
		return fmt.Sprintf("%s: metadata query failed (args %v): %v", e.Side, e.Args, e.Err)
	}
	return fmt.Sprintf("%s: metadata query failed: %v", e.Side, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

package adapter

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/mudrockdev/mudrockdivergence/divergence"
)

// SQLSource runs metadata queries through database/sql.
type SQLSource struct {
	db *sql.DB
}

func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

// openSQL opens a pool for driverName and checks that the database answers.
func openSQL(ctx context.Context, driverName, dsn string) (*SQLSource, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	// Metadata queries run one at a time per side.
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLSource(db), nil
}

func (s *SQLSource) Query(ctx context.Context, query string, args ...interface{}) ([]divergence.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var result []divergence.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.WithStack(err)
		}

		row := make(divergence.Row, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}
	return result, errors.WithStack(rows.Err())
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

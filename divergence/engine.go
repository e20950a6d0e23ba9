package divergence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetadataSource runs read-only metadata queries against one database.
type MetadataSource interface {
	Query(ctx context.Context, query string, args ...interface{}) ([]Row, error)
}

// Queries are the metadata statements of one dialect. Every statement labels
// its columns with the information_schema names used by the attribute lists.
type Queries struct {
	Defaults string // no parameters, at most one row
	Tables   string // no parameters, one row per base table keyed by TABLE_NAME
	Columns  string // one parameter (table name), one row per column keyed by COLUMN_NAME
}

// Side is one of the two databases taking part in a run.
type Side struct {
	Label   string
	Source  MetadataSource
	Queries Queries
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSequentialFetch queries the source before the destination instead of
// querying both at once.
func WithSequentialFetch() Option {
	return func(e *Engine) {
		e.sequential = true
	}
}

// WithProgress is called once the common tables are known and after each of
// them has been compared.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithTableFilter drops the tables for which keep returns false on both
// sides before they are reconciled.
func WithTableFilter(keep func(table string) bool) Option {
	return func(e *Engine) {
		e.keep = keep
	}
}

// Engine computes the divergences between two databases.
type Engine struct {
	source      Side
	destination Side
	logger      *zap.Logger
	sequential  bool
	progress    func(done, total int)
	keep        func(string) bool
}

func NewEngine(source, destination Side, opts ...Option) *Engine {
	e := &Engine{
		source:      source,
		destination: destination,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run compares database defaults, then tables, then the columns of every
// table present on both sides. The first failing query aborts the run and no
// Result is returned.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:       uuid.NewString(),
		Source:      e.source.Label,
		Destination: e.destination.Label,
		StartedAt:   time.Now(),
	}
	log := e.logger.With(zap.String("run_id", res.RunID))
	emit := func(d Divergence) {
		res.Divergences = append(res.Divergences, d)
	}

	log.Info("comparing databases", zap.String("source", res.Source), zap.String("destination", res.Destination))
	if err := e.compareDatabases(ctx, emit); err != nil {
		return nil, err
	}

	log.Info("comparing tables")
	srcTables, dstTables, err := e.fetchKeyed(ctx, TableKey, e.keep, func(q Queries) string { return q.Tables })
	if err != nil {
		return nil, err
	}
	res.SourceTables = len(srcTables.names)
	res.DestinationTables = len(dstTables.names)

	tables := Reconcile(srcTables.names, dstTables.names)
	if len(tables.Missing) > 0 {
		emit(Divergence{Kind: TablesMissing, Names: tables.Missing})
	}
	if len(tables.Extra) > 0 {
		emit(Divergence{Kind: TablesExtra, Names: tables.Extra})
	}

	total := len(tables.Common)
	e.report(0, total)
	for i, table := range tables.Common {
		log.Debug("comparing table", zap.String("table", table))
		for _, d := range DiffAttributes(TableAttributes, srcTables.rows[table], dstTables.rows[table]) {
			emit(Divergence{
				Kind:        TableDiff,
				Table:       table,
				Attribute:   d.Attribute,
				SourceValue: d.SourceValue,
				DestValue:   d.DestValue,
			})
		}
		if err := e.compareColumns(ctx, table, emit); err != nil {
			return nil, err
		}
		e.report(i+1, total)
	}

	res.TablesCompared = total
	res.FinishedAt = time.Now()
	log.Info("comparison finished",
		zap.Int("tables_compared", total),
		zap.Int("divergences", len(res.Divergences)),
		zap.Duration("elapsed", res.Duration()))
	return res, nil
}

func (e *Engine) compareDatabases(ctx context.Context, emit func(Divergence)) error {
	src, dst, err := e.fetch(ctx, func(q Queries) string { return q.Defaults })
	if err != nil {
		return err
	}
	for _, d := range DiffAttributes(DatabaseAttributes, firstRow(src), firstRow(dst)) {
		emit(Divergence{
			Kind:        DatabaseDiff,
			Attribute:   d.Attribute,
			SourceValue: d.SourceValue,
			DestValue:   d.DestValue,
		})
	}
	return nil
}

func (e *Engine) compareColumns(ctx context.Context, table string, emit func(Divergence)) error {
	src, dst, err := e.fetchKeyed(ctx, ColumnKey, nil, func(q Queries) string { return q.Columns }, table)
	if err != nil {
		return err
	}

	columns := Reconcile(src.names, dst.names)
	if len(columns.Missing) > 0 {
		emit(Divergence{Kind: ColumnsMissing, Table: table, Names: columns.Missing})
	}
	if len(columns.Extra) > 0 {
		emit(Divergence{Kind: ColumnsExtra, Table: table, Names: columns.Extra})
	}

	for _, column := range columns.Common {
		for _, d := range DiffAttributes(ColumnAttributes, src.rows[column], dst.rows[column]) {
			emit(Divergence{
				Kind:        ColumnDiff,
				Table:       table,
				Column:      column,
				Attribute:   d.Attribute,
				SourceValue: d.SourceValue,
				DestValue:   d.DestValue,
			})
		}
	}
	return nil
}

func (e *Engine) fetchKeyed(ctx context.Context, key string, keep func(string) bool, pick func(Queries) string, args ...interface{}) (keyedRows, keyedRows, error) {
	src, dst, err := e.fetch(ctx, pick, args...)
	if err != nil {
		return keyedRows{}, keyedRows{}, err
	}

	srcKeyed, ok := foldRows(src, key, keep)
	if !ok {
		return keyedRows{}, keyedRows{}, e.missingKey(e.source, pick, key, args)
	}
	dstKeyed, ok := foldRows(dst, key, keep)
	if !ok {
		return keyedRows{}, keyedRows{}, e.missingKey(e.destination, pick, key, args)
	}
	return srcKeyed, dstKeyed, nil
}

func (e *Engine) missingKey(side Side, pick func(Queries) string, key string, args []interface{}) error {
	return &QueryError{
		Side:  side.Label,
		Query: pick(side.Queries),
		Args:  args,
		Err:   errors.Errorf("row without a %s value", key),
	}
}

// fetch runs the picked query on both sides, concurrently unless the engine
// was built WithSequentialFetch.
func (e *Engine) fetch(ctx context.Context, pick func(Queries) string, args ...interface{}) ([]Row, []Row, error) {
	if e.sequential {
		src, err := e.query(ctx, e.source, pick(e.source.Queries), args)
		if err != nil {
			return nil, nil, err
		}
		dst, err := e.query(ctx, e.destination, pick(e.destination.Queries), args)
		if err != nil {
			return nil, nil, err
		}
		return src, dst, nil
	}

	var src, dst []Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := e.query(gctx, e.source, pick(e.source.Queries), args)
		src = rows
		return err
	})
	g.Go(func() error {
		rows, err := e.query(gctx, e.destination, pick(e.destination.Queries), args)
		dst = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

func (e *Engine) query(ctx context.Context, side Side, query string, args []interface{}) ([]Row, error) {
	rows, err := side.Source.Query(ctx, query, args...)
	if err != nil {
		e.logger.Error("metadata query failed",
			zap.String("side", side.Label),
			zap.String("query", query),
			zap.Any("args", args),
			zap.Error(err))
		return nil, &QueryError{Side: side.Label, Query: query, Args: args, Err: err}
	}
	return rows, nil
}

func (e *Engine) report(done, total int) {
	if e.progress != nil {
		e.progress(done, total)
	}
}

func firstRow(rows []Row) Row {
	if len(rows) == 0 {
		return Row{}
	}
	return rows[0]
}

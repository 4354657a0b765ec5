package sqlquery

import (
	"context"
	"database/sql"
	"errors"

	"github.com/agrosense/agrosense/pkg/agrierr"
)

// ResultSet is the shaped outcome of a query: ordered rows with named
// columns. Empty is a successful outcome with zero rows.
type ResultSet struct {
	Columns []string
	Rows    []map[string]any
}

// Empty reports whether the query matched no rows.
func (r *ResultSet) Empty() bool { return len(r.Rows) == 0 }

// Executor runs validated queries against the store.
type Executor struct {
	db        *sql.DB
	validator *Validator
}

// NewExecutor wires the executor with its validator. Every query passes
// validation before touching the store.
func NewExecutor(db *sql.DB, validator *Validator) *Executor {
	return &Executor{db: db, validator: validator}
}

// Execute validates and runs a query, shaping rows into column-keyed maps.
func (e *Executor) Execute(ctx context.Context, q Query) (*ResultSet, error) {
	if err := e.validator.Validate(q); err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, classifyExecError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, agrierr.Wrap(err, agrierr.KindExecution, "reading result columns")
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, agrierr.Wrap(err, agrierr.KindExecution, "scanning row")
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyExecError(err)
	}
	return result, nil
}

func classifyExecError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return agrierr.Wrap(err, agrierr.KindCancelled, "query cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return agrierr.Wrap(err, agrierr.KindTimeout, "query timed out")
	case errors.Is(err, sql.ErrConnDone):
		return agrierr.Wrap(err, agrierr.KindExecution, "store connection lost")
	}
	return agrierr.Wrap(err, agrierr.KindExecution, "query failed")
}

// normalizeValue converts driver byte slices to strings so result rows are
// JSON-friendly.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

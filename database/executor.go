package database

import "context"

// Row maps column names to their textual values. SQL NULL is rendered as "NULL".
type Row = map[string]string

// Executor runs one statement against the server and returns its result rows.
// Statements without a result set return no rows. Engine errors come back as err.
type Executor interface {
	Execute(ctx context.Context, statement string) ([]Row, error)
}

// ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, statement string) ([]Row, error)

func (f ExecutorFunc) Execute(ctx context.Context, statement string) ([]Row, error) {
	return f(ctx, statement)
}

package runner

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/dbenforce/database"
)

// ExecError reports the statement the server rejected. Statements before it stay applied.
type ExecError struct {
	Statement string
	Err       error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing statement: %v\nSQL: %s", e.Err, e.Statement)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Execute runs the plan in order and stops at the first failing statement. The
// returned report covers everything executed so far, also on error. A step's changes
// are only reported once all of its statements succeeded.
func Execute(ctx context.Context, exec database.Executor, plan *Plan) (*Report, error) {
	report := &Report{}
	if plan == nil {
		return report, nil
	}
	for _, step := range plan.Steps {
		for _, stmt := range step.Statements {
			if _, err := exec.Execute(ctx, stmt); err != nil {
				return report, &ExecError{Statement: stmt, Err: err}
			}
			report.Statements = append(report.Statements, stmt)
		}
		report.Changes = append(report.Changes, step.Changes...)
	}
	return report, nil
}

package scheduler

import "context"

// Job is one unit of work handed to the worker pool.
type Job interface {
	// Execute must honour ctx cancellation; the pool bounds each run with a timeout.
	Execute(ctx context.Context) error

	// UserID identifies the user the job acts for, for logs and spans.
	UserID() string

	Description() string
}

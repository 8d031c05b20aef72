package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSweepTimeout is recorded on a job whose tenant exceeded the job timeout
	ErrSweepTimeout = errors.New("overdue sweep timed out")
)

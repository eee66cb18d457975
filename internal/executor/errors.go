package executor

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupported is returned for the unknown action. It short-circuits
// before any database connection is opened.
var ErrUnsupported = errors.New("unsupported query")

// TimeoutError is surfaced when the watchdog deadline elapses. The
// underlying query is abandoned, not cancelled: it may keep consuming
// database resources after the caller has given up.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Query timeout: execution exceeded %s", e.Timeout)
}

// ExecError wraps a database-reported failure: bad template composition,
// connectivity, or anything else the driver returns.
type ExecError struct {
	Err error
}

func (e *ExecError) Error() string { return "Error executing query: " + e.Err.Error() }
func (e *ExecError) Unwrap() error { return e.Err }

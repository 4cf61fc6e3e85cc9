package motionplan

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidEndpoint is returned when the start or stop point fails the space's validity check
	// before any search is done.
	ErrInvalidEndpoint = errors.New("start or stop point is in collision or out of bounds")

	// ErrOpenSetExhausted is returned when the grid search has expanded every reachable point
	// without reaching the goal.
	ErrOpenSetExhausted = errors.New("open set exhausted without reaching the goal")

	// ErrBudgetExceeded is returned when the planning budget elapses before a solution is found.
	ErrBudgetExceeded = errors.New("planning budget exceeded before reaching the goal")
)

// OracleError wraps a failure reported by the space or dynamics collaborators.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the collaborator's error.
func (e *OracleError) Unwrap() error {
	return e.Err
}

func newOracleError(op string, err error) error {
	return &OracleError{Op: op, Err: err}
}

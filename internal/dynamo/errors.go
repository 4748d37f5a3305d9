package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for numeric containers.
var (
	// ErrInvalidState indicates a vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched operand shapes.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrInvalidShape indicates a negative or inconsistent shape request.
	ErrInvalidShape = errors.New("dynamo: invalid shape")
)

// ShapeError wraps a shape failure with the offending dimensions.
type ShapeError struct {
	Op      string
	Want    [2]int
	Got     [2]int
	Wrapped error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v (want %dx%d, got %dx%d)",
		e.Op, e.Wrapped, e.Want[0], e.Want[1], e.Got[0], e.Got[1])
}

func (e *ShapeError) Unwrap() error {
	return e.Wrapped
}

package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for negative counts, k > N and similar
	// inputs that no table size could satisfy.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange matches every *OutOfRangeError.
	ErrOutOfRange = errors.New("out of range")

	// ErrEmptyInput is returned by descriptive statistics on empty samples.
	ErrEmptyInput = errors.New("empty input")

	// ErrTooFewSamples is returned when a statistic needs more observations.
	ErrTooFewSamples = errors.New("too few samples")

	// ErrLengthMismatch is returned when paired samples differ in length.
	ErrLengthMismatch = errors.New("length mismatch")
)

// OutOfRangeError reports a query beyond the capacity of a log-factorial
// table. The caller should build a larger table.
type OutOfRangeError struct {
	Index    int
	Capacity int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("index %d is not below the table capacity %d", e.Index, e.Capacity)
}

// Is makes errors.Is(err, ErrOutOfRange) true.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

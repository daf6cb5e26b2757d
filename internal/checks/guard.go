package checks

import (
	"errors"
	"fmt"
)

// EstimatorPanicError wraps a panic raised by estimator code. Checks invoke
// every estimator operation through guard so that a panicking estimator is
// recorded as a Fail, while a panic escaping a check function itself remains
// visible to the engine as a harness Error. The distinction is the point:
// checks must never let estimator panics unwind through them.
type EstimatorPanicError struct {
	Op    string
	Value any
}

func (e *EstimatorPanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Op, e.Value)
}

// IsEstimatorPanic reports whether err wraps an estimator panic.
func IsEstimatorPanic(err error) bool {
	var pe *EstimatorPanicError
	return errors.As(err, &pe)
}

// guard runs fn, converting a panic into an *EstimatorPanicError.
// op names the estimator operation for diagnostics.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EstimatorPanicError{Op: op, Value: r}
		}
	}()
	return fn()
}

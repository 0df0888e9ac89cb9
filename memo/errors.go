package memo

import (
	"errors"
	"fmt"
)

var ErrPoisoned = errors.New("memoized computation panicked")

// PoisonedError is the panic value seen by every caller of a cell whose
// computation panicked, except the caller that ran it.
type PoisonedError struct {
	// Value is what the computation panicked with. It is nil when the
	// computation called runtime.Goexit.
	Value any
}

func (e *PoisonedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPoisoned.Error(), e.Value)
}

func (e *PoisonedError) Unwrap() []error {
	errs := []error{ErrPoisoned}
	if err, ok := e.Value.(error); ok {
		errs = append(errs, err)
	}
	return errs
}

// IsPoisoned reports whether err or a panic value came from a poisoned cell.
func IsPoisoned(v any) bool {
	err, ok := v.(error)
	return ok && errors.Is(err, ErrPoisoned)
}

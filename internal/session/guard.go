package session

import (
	"errors"
	"fmt"
)

// ErrHostPanic wraps a panic recovered by Guard.
var ErrHostPanic = errors.New("session: host call panicked")

// Guard runs a host entry point, turning a panic into an error. Hosts whose
// callbacks cannot unwind into the caller use it so one bad call does not
// take the engine down with it.
func Guard(op string, fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%s: %w: %v", op, ErrHostPanic, r)
		}
	}()
	v, err = fn()
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)
	}
	return v, err
}

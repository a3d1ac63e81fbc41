package keyboard

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for bad combo arity, duplicate combo keys,
// non-positive intervals and key names containing the combo separator.
var ErrInvalidArgument = errors.New("invalid argument")

// Handler kinds reported in HandlerError.
const (
	KindKey   = "key"
	KindCombo = "combo"
)

// HandlerError wraps a failure of an attached handler with the key or combo
// it was attached to.
type HandlerError struct {
	Kind      string
	Target    string
	HandlerID HandlerID
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler %s for %q failed: %v", e.Kind, e.HandlerID, e.Target, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking handler or poll
// cycle.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

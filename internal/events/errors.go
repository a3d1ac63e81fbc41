package events

import "errors"

var (
	// ErrInvalidArgument is returned for empty target ids, nil callbacks or
	// nil widgets.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResolution is returned when a log template cannot be resolved.
	// Execute recovers from it with the default message.
	ErrResolution = errors.New("log message resolution failed")

	// ErrNoKeyBinder is returned by Finalize when key or combo intents were
	// declared but no KeyBinder was supplied.
	ErrNoKeyBinder = errors.New("no key binder for key intents")
)

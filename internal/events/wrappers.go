package events

import (
	"fmt"
	"time"
)

// When runs cb only while cond reports true.
func When(cond func() bool, cb Callback) Callback {
	return func() error {
		if !cond() {
			return nil
		}
		return cb()
	}
}

// Retry runs cb up to attempts times, sleeping delay between failures and
// reporting each retry to sink. The last error is returned.
func Retry(attempts int, delay time.Duration, sink Sink, cb Callback) Callback {
	if attempts < 1 {
		attempts = 1
	}
	return func() error {
		var err error
		for attempt := 1; attempt <= attempts; attempt++ {
			if err = cb(); err == nil {
				return nil
			}
			if attempt == attempts {
				break
			}
			if sink != nil {
				sink.LogInfo(fmt.Sprintf("event handler failed, retry %d: %v", attempt, err))
			}
			time.Sleep(delay)
		}
		return err
	}
}

package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout marks an attempt that lost the race against the per-attempt timer.
	ErrTimeout = errors.New("llm timeout")
	// ErrTransport marks any other failed call: network, HTTP status, empty reply.
	ErrTransport = errors.New("llm transport error")
)

// RetryError is returned once every attempt has failed. Err is the last
// attempt error and still matches ErrTimeout or ErrTransport.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

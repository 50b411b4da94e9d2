package chat

import "fmt"

// BackendError marks a completion failure as recoverable: the worker reports
// it to the user and keeps draining the queue. Status is zero for transport
// and decode failures.
type BackendError struct {
	Status int
	Body   string
	Err    error
}

func (e *BackendError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("completion backend: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("completion backend: status %d: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("completion backend: status %d", e.Status)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

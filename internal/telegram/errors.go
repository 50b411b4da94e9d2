package telegram

import "fmt"

// SendError wraps a Telegram API failure. Delivery failures are advisory:
// the queue worker logs them and keeps draining, they never abort a request.
type SendError struct {
	Op  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("telegram %s: %v", e.Op, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

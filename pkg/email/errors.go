package email

import (
	"errors"
	"fmt"
)

// ErrDisabled is returned by Send when email delivery is switched off.
var ErrDisabled = errors.New("email: delivery disabled")

// ErrInvalidMessage names the message field that cannot be sent.
type ErrInvalidMessage struct{ Field string }

func (e ErrInvalidMessage) Error() string { return "email: message " + e.Field + " is required" }

// ErrSend is the last SMTP failure after Attempts tries.
type ErrSend struct {
	Attempts int
	Err      error
}

func (e ErrSend) Error() string {
	return fmt.Sprintf("email: smtp delivery failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e ErrSend) Unwrap() error { return e.Err }

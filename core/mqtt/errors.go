package mqtt

import "errors"

// ErrReceiptTimeout is returned when no receipt arrives before the timeout.
var ErrReceiptTimeout = errors.New("timeout waiting for award receipt")

// ErrUnknownMessage is returned when waiting on a message that was never sent.
var ErrUnknownMessage = errors.New("unknown award message")

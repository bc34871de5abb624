package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrInternal = errors.New("internal error")
)

// Keys of the error bodies.
const (
	messageKey = "Message"
	errorKey   = "Error"
)

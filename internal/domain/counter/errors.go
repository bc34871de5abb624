package counter

import "errors"

// Sentinel error kinds for counter operations. These allow errors.Is from callers.
var (
	ErrAlreadyExists = errors.New("counter already exists")
	ErrNotFound      = errors.New("counter not found")
)

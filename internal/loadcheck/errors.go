package loadcheck

import "errors"

// Sentinel kinds for load check failures.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrVerification = errors.New("verification failed")
)

// Package loadcheck drives a running counter service over HTTP and verifies
// that concurrent requests leave every counter in the expected state.
package loadcheck

import (
	"errors"
	"time"
)

// Config holds configuration for a load check run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Counters   int           // Number of counters to create
	Increments int           // Increments sent to each counter
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Prefix     string        // Prefix of generated counter names
	Verbose    bool          // Log every mismatch instead of a sample
}

// Validate rejects configurations that cannot produce a meaningful run.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url must not be empty")
	case c.Counters <= 0:
		return errors.New("counters must be positive")
	case c.Increments < 0:
		return errors.New("increments must not be negative")
	case c.Workers <= 0:
		return errors.New("workers must be positive")
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	CountersCreated   int
	ConflictsObserved int
	IncrementsSent    int
	IncrementsFailed  int
	CountersVerified  int
	CountersDeleted   int
	Mismatches        int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

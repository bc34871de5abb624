// Package counter contains the counter domain types shared across layers.
package counter

import "fmt"

// Counter is a named, non-negative integer value.
type Counter struct {
	Name  string
	Value int64
}

// Outcome classifies the result of a single counter operation.
type Outcome int

// Operation outcomes.
const (
	OutcomeCreated Outcome = iota + 1
	OutcomeIncremented
	OutcomeRead
	OutcomeDeleted
	OutcomeAlreadyExists
	OutcomeNotFound
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeIncremented:
		return "incremented"
	case OutcomeRead:
		return "read"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeAlreadyExists:
		return "already_exists"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o >= OutcomeCreated && o <= OutcomeDeleted
}

// Result is the typed outcome of a service operation. Value is meaningless
// for OutcomeDeleted and OutcomeNotFound.
type Result struct {
	Counter
	Outcome Outcome
}

// AlreadyExistsMessage is the human-readable conflict text for name.
func AlreadyExistsMessage(name string) string {
	return fmt.Sprintf("Counter %s already exists", name)
}

// NotFoundMessage is the human-readable missing-counter text for name.
func NotFoundMessage(name string) string {
	return fmt.Sprintf("Counter '%s' does not exist.", name)
}

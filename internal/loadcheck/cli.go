package loadcheck

import "os"

// ShowHelp prints usage information for the load check tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Counter Load Check
==================

Drives a running counter service with concurrent requests and verifies
that every counter ends with exactly the number of increments sent.

Usage:
  go run ./cmd/counter-load [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -counters int
        Number of counters to create (default 100)
  -increments int
        Increments sent to each counter (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -prefix string
        Prefix for generated counter names (default "load-")
  -verbose
        Log every mismatch
  -help
        Show this help message

Examples:
  go run ./cmd/counter-load -counters 1000 -increments 20 -workers 64
`)
}

package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/StacL/tdd/internal/loadcheck"
	"github.com/StacL/tdd/pkg/logger"
)

// Default configuration constants.
const (
	defaultCounters   = 100
	defaultIncrements = 50
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		counters   = flag.Int("counters", defaultCounters, "Number of counters to create")
		increments = flag.Int("increments", defaultIncrements, "Increments sent to each counter")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		prefix     = flag.String("prefix", "load-", "Prefix for generated counter names")
		verbose    = flag.Bool("verbose", false, "Log every mismatch")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadcheck.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadcheck.Config{
		BaseURL:    *baseURL,
		Counters:   *counters,
		Increments: *increments,
		Workers:    *workers,
		Timeout:    *timeout,
		Prefix:     *prefix,
		Verbose:    *verbose,
	}

	if _, err := loadcheck.NewRunner(cfg, logger.Named("loadcheck")).Run(ctx); err != nil {
		logger.Get().Error(ctx, "load check failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}

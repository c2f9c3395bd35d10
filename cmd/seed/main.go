package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/athletix/internal/domain/reference"
	"github.com/okian/athletix/internal/seed"
	"github.com/okian/athletix/pkg/logger"
)

// Default configuration constants.
const (
	defaultAthletes    = 50
	defaultDays        = 14
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettle      = 30 * time.Second
	defaultSeedTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		athletes  = flag.Int("athletes", defaultAthletes, "Number of athletes to generate")
		days      = flag.Int("days", defaultDays, "Biometric records per athlete")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle    = flag.Duration("settle", defaultSettle, "How long to wait for submissions to be persisted")
		seedValue = flag.Uint64("seed", 1, "Generator seed")
		refPath   = flag.String("reference", "", "Reference table YAML (default: embedded table)")
		verbose   = flag.Bool("verbose", false, "Log every request")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	table, err := loadReference(*refPath)
	if err != nil {
		os.Stderr.WriteString("failed to load reference table: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSeedTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:  *baseURL,
		Athletes: *athletes,
		Days:     *days,
		Workers:  *workers,
		Timeout:  *timeout,
		Settle:   *settle,
		Seed:     *seedValue,
		Verbose:  *verbose,
	}
	if _, err := seed.Run(ctx, cfg, table); err != nil {
		os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called above
	}
}

func loadReference(path string) (*reference.Table, error) {
	if path == "" {
		return reference.Default()
	}
	return reference.LoadFile(path)
}

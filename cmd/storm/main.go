package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/classlens/classlens/internal/loadgen"
)

// Default configuration constants.
const (
	defaultChildren   = 100
	defaultPerChild   = 4
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultReplay     = 0.1
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the service")
		children = flag.Int("children", defaultChildren, "Number of distinct children to simulate")
		perChild = flag.Int("per-child", defaultPerChild, "Submissions per child")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		replay   = flag.Float64("replay", defaultReplay, "Fraction of submissions replayed to exercise idempotency")
		logFile  = flag.String("log", "", "Log file for run output (default: storm_log_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:        *baseURL,
		NumChildren:    *children,
		PerChild:       *perChild,
		Workers:        *workers,
		Timeout:        *timeout,
		ReplayFraction: *replay,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Storm failed: " + err.Error() + "\n")
		return
	}
}

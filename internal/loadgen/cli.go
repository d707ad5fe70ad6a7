package loadgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/classlens/classlens/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "storm_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the storm tool.
func ShowHelp() {
	os.Stdout.WriteString(`ClassLens Submission Storm
==========================

A concurrent tool for exercising the ClassLens consolidation pipeline.

Usage:
  go run cmd/storm/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -children int
        Number of distinct children to simulate (default 100)
  -per-child int
        Submissions per child (default 4)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -replay float
        Fraction of submissions replayed to exercise idempotency (default 0.1)
  -log string
        Log file for run output (default: storm_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Storm with default settings
  go run cmd/storm/main.go

  # Bigger classroom, more workers
  go run cmd/storm/main.go -children 1000 -per-child 8 -workers 16

  # Replay a third of all submissions
  go run cmd/storm/main.go -replay 0.33 -verbose
`)
}

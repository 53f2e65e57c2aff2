package replay

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/redzone/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "replay_log_" + timestamp + ".log"
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

// ShowHelp prints usage information for the replay tool.
func ShowHelp() {
	os.Stdout.WriteString(`Redzone Pipeline Replay Tool
============================

Drives the full polling, attribution and caching pipeline in process
against scripted game data, then verifies the event cache.

Usage:
  go run cmd/replay/main.go [options]

Options:
  -leagues int
        Number of leagues to attribute events into (default 3)
  -teams int
        Teams per league (default 10)
  -players int
        Players in the scripted directory (default 60)
  -games int
        Concurrent games to script (default 4)
  -plays int
        Plays per game (default 80)
  -rounds int
        Poll rounds to reveal the script across (default 8)
  -seed int
        Random seed for deterministic scripts (default 1)
  -log string
        Log file for replay output (default: replay_log_TIMESTAMP.log)
  -verbose
        Enable per-round and per-league logging
  -help
        Show this help message

Examples:
  # Replay with default settings
  go run cmd/replay/main.go

  # Heavier scenario with a fixed seed
  go run cmd/replay/main.go -games 16 -plays 200 -leagues 10 -seed 42

  # Verbose single-round replay
  go run cmd/replay/main.go -rounds 1 -verbose
`)
}

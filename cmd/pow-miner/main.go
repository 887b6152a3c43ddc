package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weimeittx/pow-miner/internal/config"
	logpkg "github.com/weimeittx/pow-miner/internal/logger"
	minerpkg "github.com/weimeittx/pow-miner/pkg/miner"
	"github.com/weimeittx/pow-miner/pkg/types"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pow-miner",
		Short: "Parallel SHA-256 proof-of-work nonce miner",
		Long: `A command line utility that brute-forces a nonce such that
sha256(prefix + nonce) rendered as hex starts with a required number of
leading zero digits. The 64-bit nonce space is split evenly across worker
goroutines and scanned in parallel.`,
		RunE:         runMiner,
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringP("prefix", "p", config.DefaultPrefix, "Fixed string prefix to hash")
	flags.IntP("difficulty", "d", config.DefaultDifficulty, "Required number of leading hex zero digits")
	flags.IntP("workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	flags.Int("batch-size", config.DefaultBatchSize, "Attempts between counter flushes and stop-flag checks")
	flags.DurationP("report-interval", "i", config.DefaultReportInterval, "Progress reporting interval")
	flags.StringP("log-file", "l", "", "Log file for progress tracking (default: stdout)")
	flags.StringP("config", "c", "", "Optional YAML config file")
	flags.BoolP("verbose", "v", false, "Verbose output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMiner(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	logger.Printf("Starting proof-of-work search, prefix: %q, difficulty: %d leading hex zeros", cfg.Prefix, cfg.Difficulty)
	logger.Printf("Mining with %d workers", cfg.Workers)
	logger.Debugf("Target: %s", cfg.TargetDescription())

	m := minerpkg.NewMiner(cfg, logger)

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	outcomeChan := make(chan types.Outcome, 1)
	go func() {
		outcomeChan <- m.Search()
	}()

	select {
	case outcome := <-outcomeChan:
		printOutcome(logger, cfg.Prefix, outcome)
	case <-sigChan:
		logger.Println("Received interrupt signal, stopping workers...")
		m.Stop()
		outcome := <-outcomeChan
		if outcome.Found {
			printOutcome(logger, cfg.Prefix, outcome)
		} else {
			logger.Printf("Stopped after %d attempts in %v", outcome.Attempts, outcome.Duration)
		}
	}
	return nil
}

// printOutcome emits the result block: nonce, digest, timing, totals and the
// exact input string that was hashed.
func printOutcome(logger *logpkg.Logger, prefix string, o types.Outcome) {
	if !o.Found {
		logger.Println("Search space exhausted, no matching nonce found.")
		logger.Printf("Total attempts: %d in %v", o.Attempts, o.Duration)
		return
	}

	logger.Printf("Found nonce: %d", o.Nonce)
	logger.Printf("Hash: %s", o.HashHex)
	logger.Printf("Duration: %v", o.Duration)
	logger.Printf("Total attempts: %d", o.Attempts)

	// Calculate rate safely
	rate := 0.0
	if o.Duration.Seconds() > 0 {
		rate = float64(o.Attempts) / o.Duration.Seconds()
	}
	logger.Printf("Average rate: %.2f hashes/sec", rate)
	logger.Printf("Input string: %s%d", prefix, o.Nonce)
}

func setupLogging(cfg *config.Config) (*logpkg.Logger, error) {
	var logger *logpkg.Logger
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger = logpkg.NewWriter(file)
	} else {
		logger = logpkg.New()
	}
	logger.SetVerbose(cfg.Verbose)
	return logger, nil
}

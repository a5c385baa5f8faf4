// Command rnnbench trains the SimpleRNN MNIST classifier for five epochs,
// printing the time and memory each epoch took, then evaluates it once on
// the test split.
//
// Usage:
//
//	rnnbench [-data-dir dir] [-log-level info]
//
// The flags only say where the MNIST files are and how much to log. Batch
// size, epochs, learning rate and the model shape are fixed in
// config.Default and cannot be changed from the command line.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/rnnbench/config"
	"github.com/YuminosukeSato/rnnbench/pkg/log"
	"github.com/YuminosukeSato/rnnbench/trainer"
)

func main() {
	dataDir := flag.String("data-dir", "", "Directory holding the MNIST IDX files (plain or .gz); does not change any training parameter")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg := config.Default()
	cfg.ApplyOverrides(config.Overrides{
		DataDir:  *dataDir,
		LogLevel: *logLevel,
	})

	if err := cfg.Validate(); err != nil {
		log.SetupLogger("error")
		log.GetLogger().Error("Invalid configuration", err)
		os.Exit(2)
	}
	log.SetupLogger(cfg.LogLevel)
	logger := log.GetLoggerWithName("rnnbench")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := trainer.Run(ctx, cfg, trainer.Deps{}); err != nil {
		logger.Error("Benchmark failed", err, log.PathKey, cfg.DataDir)
		stop()
		os.Exit(1)
	}
}

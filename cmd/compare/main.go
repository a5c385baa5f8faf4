// Command compare renders the framework comparison charts.
//
// Usage:
//
//	compare [-out dir] [-format png] [acc|loss|mem|times ...]
//
// With no arguments all four charts are written.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/rnnbench/comparison"
	"github.com/YuminosukeSato/rnnbench/config"
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"github.com/YuminosukeSato/rnnbench/pkg/log"
	"gonum.org/v1/plot/vg"
)

func main() {
	outDir := flag.String("out", ".", "Directory to write charts to")
	format := flag.String("format", "png", "Image format: png, svg, pdf")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := setupLogging(*logLevel); err != nil {
		log.SetupLogger("error")
		log.GetLogger().Error("Invalid flags", err)
		os.Exit(2)
	}
	logger := log.GetLoggerWithName("compare")

	if err := run(*outDir, *format, flag.Args()); err != nil {
		logger.Error("Rendering failed", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	if err := config.ValidateLogLevel(level); err != nil {
		return err
	}
	log.SetupLogger(level)
	return nil
}

func run(outDir, format string, names []string) error {
	charts := comparison.All()
	if len(names) == 0 {
		names = []string{"acc", "loss", "mem", "times"}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", outDir)
	}
	for _, name := range names {
		chart, ok := charts[name]
		if !ok {
			return errors.NewValidationError("chart", "must be one of acc, loss, mem, times", name)
		}
		path := filepath.Join(outDir, name+"."+format)
		if err := comparison.Render(chart, path, 8*vg.Inch, 5*vg.Inch); err != nil {
			return err
		}
	}
	return nil
}

// Package rnnbench benchmarks a small recurrent network on MNIST and
// compares the recorded numbers with other frameworks.
//
// A run reads each 28×28 digit as four time steps of 196 pixels, trains a
// 196-unit SimpleRNN followed by a dense softmax classifier with SGD for
// five epochs, and evaluates once on the test split. After every epoch it
// prints a block like
//
//	==== Performance Metrics ====
//	Epoch took 3.26s and used 0.19GiB of memory
//
// where memory is the change in the process's proportional set size.
//
// # Quick Start
//
// Download the four MNIST IDX files (gzipped is fine) into data/mnist and
// run:
//
//	go run ./cmd/rnnbench -data-dir data/mnist
//
// Render the comparison charts:
//
//	go run ./cmd/compare -out charts acc loss mem times
//
// # Packages
//
//   - dataset: MNIST IDX loading and the map → shuffle → batch pipeline
//   - preprocessing: raster reshaping and pixel scaling
//   - nn: SimpleRNN, Dense, Softmax, cross-entropy, SGD and Sequential
//   - metrics: streaming accuracy and weighted means
//   - callbacks: epoch hooks, the performance logger and history
//   - performance: PSS memory probe and call profiling
//   - trainer: the end-to-end benchmark run
//   - comparison: recorded framework results and their charts
//   - config: run settings
//   - core/model: model lifecycle state
//   - core/parallel: bounded fan-out helpers
//   - pkg/log, pkg/errors: structured logging and typed errors
package rnnbench

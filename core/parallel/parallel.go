// Package parallel runs index-range work across CPU cores.
package parallel

import (
	"runtime"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
)

// Parallelize divides items into contiguous ranges, one per CPU core, and
// runs fn on each range concurrently. A panic in fn is re-raised in the
// caller after all ranges finish.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg conc.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}
		wg.Go(func() { fn(start, end) })
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when items
// does not exceed threshold, and through Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach calls fn for every index in [0, items) on at most
// runtime.NumCPU() goroutines and returns the first error encountered.
// Results written by fn into index-addressed slots keep their order.
func ForEach(items int, fn func(i int) error) error {
	if items == 0 {
		return nil
	}
	p := pool.New().WithErrors().WithFirstError().WithMaxGoroutines(runtime.NumCPU())
	for i := 0; i < items; i++ {
		p.Go(func() error { return fn(i) })
	}
	return p.Wait()
}

package performance

import (
	"time"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"github.com/YuminosukeSato/rnnbench/pkg/log"
)

// Report summarises a profiled call.
type Report struct {
	Name       string
	Elapsed    time.Duration
	PSSBefore  uint64
	PSSAfter   uint64
	HeapBefore HeapSnapshot
	HeapAfter  HeapSnapshot
}

// PSSDelta returns the signed PSS change across the call.
func (r Report) PSSDelta() int64 {
	return Delta(r.PSSBefore, r.PSSAfter)
}

// Profile runs fn and logs process memory before and after it. The error
// from fn is returned unchanged; a failing probe aborts before fn runs or
// is returned after it.
func Profile(name string, probe MemoryProbe, logger log.Logger, fn func() error) (Report, error) {
	report := Report{Name: name}

	before, err := probe.PSS()
	if err != nil {
		return report, errors.Wrapf(err, "profile %s", name)
	}
	report.PSSBefore = before
	report.HeapBefore = ReadHeap()
	logger.Debug("Profile start",
		log.OperationKey, name,
		log.MemoryUsageKey, before,
		log.HeapInUseKey, report.HeapBefore.HeapInuse,
	)

	start := time.Now()
	runErr := fn()
	report.Elapsed = time.Since(start)

	after, err := probe.PSS()
	if err != nil {
		if runErr != nil {
			return report, runErr
		}
		return report, errors.Wrapf(err, "profile %s", name)
	}
	report.PSSAfter = after
	report.HeapAfter = ReadHeap()

	logger.Info("Profile finished",
		log.OperationKey, name,
		log.DurationSecondsKey, report.Elapsed.Seconds(),
		log.MemoryUsageKey, after,
		log.MemoryDeltaKey, report.PSSDelta(),
		log.HeapInUseKey, report.HeapAfter.HeapInuse,
		"gc.cycles", report.HeapAfter.NumGC-report.HeapBefore.NumGC,
	)
	return report, runErr
}

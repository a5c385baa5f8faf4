package callbacks

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/YuminosukeSato/rnnbench/performance"
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
)

// PerformanceLogger prints how long each epoch took and how much process
// memory (PSS) it added. The start time and start PSS are captured in
// OnEpochBegin and consumed in OnEpochEnd, so one value must observe one
// training loop at a time.
type PerformanceLogger struct {
	Base

	out   io.Writer
	probe performance.MemoryProbe
	now   func() time.Time

	timerStart  time.Time
	memoryStart uint64
	started     bool
	last        performance.Measurement
}

// NewPerformanceLogger writes to out (os.Stdout when nil) using probe for
// memory readings.
func NewPerformanceLogger(out io.Writer, probe performance.MemoryProbe) *PerformanceLogger {
	if out == nil {
		out = os.Stdout
	}
	return &PerformanceLogger{out: out, probe: probe, now: time.Now}
}

// WithClock replaces the time source.
func (p *PerformanceLogger) WithClock(now func() time.Time) *PerformanceLogger {
	p.now = now
	return p
}

// OnEpochBegin records the epoch start time and memory.
func (p *PerformanceLogger) OnEpochBegin(epoch int, _ Logs) error {
	p.timerStart = p.now()
	mem, err := p.probe.PSS()
	if err != nil {
		return errors.Wrapf(err, "epoch %d: read memory at start", epoch)
	}
	p.memoryStart = mem
	p.started = true
	return nil
}

// OnEpochEnd measures the epoch and prints the report block.
func (p *PerformanceLogger) OnEpochEnd(epoch int, _ Logs) error {
	if !p.started {
		return errors.Newf("epoch %d: OnEpochEnd without OnEpochBegin", epoch)
	}
	elapsed := p.now().Sub(p.timerStart)
	mem, err := p.probe.PSS()
	if err != nil {
		return errors.Wrapf(err, "epoch %d: read memory at end", epoch)
	}
	p.started = false

	p.last = performance.Measurement{
		Epoch:       epoch,
		Elapsed:     elapsed,
		MemoryDelta: performance.Delta(p.memoryStart, mem),
	}
	p.print(p.last)
	return nil
}

// Last returns the most recent measurement.
func (p *PerformanceLogger) Last() performance.Measurement {
	return p.last
}

func (p *PerformanceLogger) print(m performance.Measurement) {
	fmt.Fprint(p.out, "\n\n==== Performance Metrics ====\n")
	fmt.Fprintf(p.out, "%s\n\n", m)
}

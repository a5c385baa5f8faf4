// Package performance measures wall-clock time and process memory for
// training runs.
//
// Memory is read as the proportional set size (PSS) of the whole process,
// so allocations made by the logger, the data pipeline and the Go runtime
// are attributed together with the model's own. The comparison numbers in
// package comparison were recorded under the same whole-process reading.
package performance

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/procfs"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
)

// GiB is the divisor used when reporting memory.
const GiB = 1 << 30

// MemoryProbe reports the current process memory in bytes.
type MemoryProbe interface {
	PSS() (uint64, error)
}

// ProbeFunc adapts a function to MemoryProbe.
type ProbeFunc func() (uint64, error)

// PSS implements MemoryProbe.
func (f ProbeFunc) PSS() (uint64, error) {
	return f()
}

// ProcessMemory reads PSS from /proc/<pid>/smaps_rollup.
type ProcessMemory struct {
	proc procfs.Proc
}

// NewProcessMemory returns a probe for the running process.
func NewProcessMemory() (*ProcessMemory, error) {
	proc, err := procfs.Self()
	if err != nil {
		return nil, errors.Wrap(err, "open /proc/self")
	}
	return &ProcessMemory{proc: proc}, nil
}

// PSS implements MemoryProbe.
func (p *ProcessMemory) PSS() (uint64, error) {
	rollup, err := p.proc.ProcSMapsRollup()
	if err != nil {
		return 0, errors.Wrap(err, "read smaps_rollup")
	}
	return rollup.Pss, nil
}

// Measurement is the cost of one training epoch.
type Measurement struct {
	Epoch   int
	Elapsed time.Duration
	// MemoryDelta is PSS at epoch end minus PSS at epoch start. It is
	// negative when the epoch released more memory than it took.
	MemoryDelta int64
}

// MemoryDeltaGiB returns MemoryDelta in GiB.
func (m Measurement) MemoryDeltaGiB() float64 {
	return float64(m.MemoryDelta) / GiB
}

// String renders the measurement in the report format.
func (m Measurement) String() string {
	return fmt.Sprintf("Epoch took %.2fs and used %.2fGiB of memory", m.Elapsed.Seconds(), m.MemoryDeltaGiB())
}

// Delta returns after-before as a signed byte count.
func Delta(before, after uint64) int64 {
	return int64(after) - int64(before)
}

// HeapSnapshot is a subset of runtime.MemStats worth logging next to PSS.
type HeapSnapshot struct {
	HeapAlloc   uint64
	HeapInuse   uint64
	HeapObjects uint64
	NumGC       uint32
}

// ReadHeap samples the Go runtime heap statistics.
func ReadHeap() HeapSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return HeapSnapshot{
		HeapAlloc:   ms.HeapAlloc,
		HeapInuse:   ms.HeapInuse,
		HeapObjects: ms.HeapObjects,
		NumGC:       ms.NumGC,
	}
}

package callbacks

import (
	"time"

	"github.com/YuminosukeSato/rnnbench/pkg/log"
)

// ProgressLogger logs the epoch number and epoch-level metrics through the
// structured logger.
type ProgressLogger struct {
	Base

	logger log.Logger
	epochs int
	start  time.Time
}

// NewProgressLogger reports progress out of epochs total epochs.
func NewProgressLogger(logger log.Logger, epochs int) *ProgressLogger {
	return &ProgressLogger{logger: logger, epochs: epochs}
}

func (p *ProgressLogger) OnEpochBegin(epoch int, _ Logs) error {
	p.start = time.Now()
	p.logger.Debug("Epoch started", log.EpochKey, epoch, log.EpochsKey, p.epochs)
	return nil
}

func (p *ProgressLogger) OnEpochEnd(epoch int, logs Logs) error {
	p.logger.Info("Epoch finished",
		log.EpochKey, epoch,
		log.EpochsKey, p.epochs,
		log.LossKey, logs[LossKey],
		log.AccuracyKey, logs[AccuracyKey],
		log.DurationSecondsKey, time.Since(p.start).Seconds(),
	)
	return nil
}

func (p *ProgressLogger) OnTestEnd(logs Logs) error {
	p.logger.Info("Evaluation finished",
		log.PhaseKey, log.PhaseTesting,
		log.LossKey, logs[LossKey],
		log.AccuracyKey, logs[AccuracyKey],
	)
	return nil
}

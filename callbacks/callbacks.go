// Package callbacks defines the hooks a training loop calls around epochs,
// and the observers built on them.
package callbacks

// Logs carries the metrics known at a hook, e.g. {"loss": 0.28, "accuracy": 0.92}.
type Logs map[string]float64

// Standard log keys.
const (
	LossKey     = "loss"
	AccuracyKey = "accuracy"
)

// Callback observes a training run and the evaluation that follows it.
// Hooks are called synchronously by the model; a returned error aborts the
// run.
type Callback interface {
	OnTrainBegin(logs Logs) error
	OnEpochBegin(epoch int, logs Logs) error
	OnBatchEnd(batch int, logs Logs) error
	OnEpochEnd(epoch int, logs Logs) error
	OnTrainEnd(logs Logs) error
	OnTestBegin(logs Logs) error
	OnTestEnd(logs Logs) error
}

// Base implements every hook as a no-op; embed it to override only some.
type Base struct{}

func (Base) OnTrainBegin(Logs) error { return nil }
func (Base) OnEpochBegin(int, Logs) error { return nil }
func (Base) OnBatchEnd(int, Logs) error { return nil }
func (Base) OnEpochEnd(int, Logs) error { return nil }
func (Base) OnTrainEnd(Logs) error { return nil }
func (Base) OnTestBegin(Logs) error { return nil }
func (Base) OnTestEnd(Logs) error { return nil }

// List dispatches each hook to its callbacks in order and stops at the
// first error.
type List []Callback

// NewList creates a callback list, skipping nil entries.
func NewList(cbs ...Callback) List {
	l := make(List, 0, len(cbs))
	for _, cb := range cbs {
		if cb != nil {
			l = append(l, cb)
		}
	}
	return l
}

func (l List) OnTrainBegin(logs Logs) error {
	for _, cb := range l {
		if err := cb.OnTrainBegin(logs); err != nil {
			return err
		}
	}
	return nil
}

func (l List) OnEpochBegin(epoch int, logs Logs) error {
	for _, cb := range l {
		if err := cb.OnEpochBegin(epoch, logs); err != nil {
			return err
		}
	}
	return nil
}

func (l List) OnBatchEnd(batch int, logs Logs) error {
	for _, cb := range l {
		if err := cb.OnBatchEnd(batch, logs); err != nil {
			return err
		}
	}
	return nil
}

func (l List) OnEpochEnd(epoch int, logs Logs) error {
	for _, cb := range l {
		if err := cb.OnEpochEnd(epoch, logs); err != nil {
			return err
		}
	}
	return nil
}

func (l List) OnTrainEnd(logs Logs) error {
	for _, cb := range l {
		if err := cb.OnTrainEnd(logs); err != nil {
			return err
		}
	}
	return nil
}

func (l List) OnTestBegin(logs Logs) error {
	for _, cb := range l {
		if err := cb.OnTestBegin(logs); err != nil {
			return err
		}
	}
	return nil
}

func (l List) OnTestEnd(logs Logs) error {
	for _, cb := range l {
		if err := cb.OnTestEnd(logs); err != nil {
			return err
		}
	}
	return nil
}

// Copy returns a shallow copy so that callbacks may keep logs.
func (l Logs) Copy() Logs {
	out := make(Logs, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

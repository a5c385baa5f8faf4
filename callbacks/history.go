package callbacks

// History records epoch-level logs. The training loop always attaches one
// and returns it from Fit.
type History struct {
	Base

	Epochs  []int
	Metrics map[string][]float64
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{Metrics: make(map[string][]float64)}
}

func (h *History) OnEpochEnd(epoch int, logs Logs) error {
	h.Epochs = append(h.Epochs, epoch)
	for k, v := range logs {
		h.Metrics[k] = append(h.Metrics[k], v)
	}
	return nil
}

// Last returns the final recorded value of metric, or false when absent.
func (h *History) Last(metric string) (float64, bool) {
	values := h.Metrics[metric]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

package nn

import (
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Loss scores a batch of predictions against integer labels.
type Loss interface {
	Name() string
	// Loss returns the mean loss over the batch.
	Loss(yTrue []int, yPred *mat.Dense) (float64, error)
	// Gradient returns dLoss/dyPred for the mean loss.
	Gradient(yTrue []int, yPred *mat.Dense) (*mat.Dense, error)
}

// Epsilon is the probability clipping bound used by the cross-entropy.
const Epsilon = 1e-7

// SparseCategoricalCrossentropy is -log(p[label]) averaged over the batch,
// with probabilities clipped to [Epsilon, 1-Epsilon].
type SparseCategoricalCrossentropy struct{}

// NewSparseCategoricalCrossentropy creates the loss.
func NewSparseCategoricalCrossentropy() *SparseCategoricalCrossentropy {
	return &SparseCategoricalCrossentropy{}
}

func (SparseCategoricalCrossentropy) Name() string { return "sparse_categorical_crossentropy" }

func (SparseCategoricalCrossentropy) Loss(yTrue []int, yPred *mat.Dense) (float64, error) {
	if err := checkLabels(yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i, label := range yTrue {
		p := errors.ClipValue(yPred.At(i, label), 0, 1-Epsilon)
		sum -= errors.StabilizeLog(p, Epsilon)
	}
	return sum / float64(len(yTrue)), nil
}

// Gradient is -1/(p·B) at the label and zero elsewhere. Where p was
// clipped the gradient is zero.
func (SparseCategoricalCrossentropy) Gradient(yTrue []int, yPred *mat.Dense) (*mat.Dense, error) {
	if err := checkLabels(yTrue, yPred); err != nil {
		return nil, err
	}
	rows, cols := yPred.Dims()
	grad := mat.NewDense(rows, cols, nil)
	n := float64(len(yTrue))
	for i, label := range yTrue {
		p := yPred.At(i, label)
		if p < Epsilon || p > 1-Epsilon {
			continue
		}
		grad.Set(i, label, -1/(p*n))
	}
	return grad, nil
}

func checkLabels(yTrue []int, yPred *mat.Dense) error {
	if len(yTrue) == 0 {
		return errors.ErrEmptyData
	}
	rows, cols := yPred.Dims()
	if rows != len(yTrue) {
		return errors.NewDimensionError("SparseCategoricalCrossentropy", len(yTrue), rows, 0)
	}
	for _, label := range yTrue {
		if label < 0 || label >= cols {
			return errors.NewValueError("SparseCategoricalCrossentropy",
				"label out of range for the number of classes")
		}
	}
	return nil
}

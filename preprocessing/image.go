// Package preprocessing turns raw image rasters into model input.
package preprocessing

import (
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MaxPixel is the largest value an 8-bit grayscale pixel can take.
const MaxPixel = 255.0

// SampleTransformer maps one raw raster to a time-step × feature matrix.
type SampleTransformer interface {
	Transform(raster []byte) (*mat.Dense, error)
}

// ImageTransformer reshapes a flat raster into TimeSteps rows of Features
// pixels each and scales pixel values into [0, 1].
type ImageTransformer struct {
	TimeSteps int
	Features  int
}

// NewImageTransformer creates a transformer for rasters of
// timeSteps × features pixels.
//
// Example:
//
//	tr := preprocessing.NewImageTransformer(4, 196)
//	x, err := tr.Transform(image) // 4×196, values in [0,1]
func NewImageTransformer(timeSteps, features int) *ImageTransformer {
	return &ImageTransformer{TimeSteps: timeSteps, Features: features}
}

// Size is the number of pixels a raster must have.
func (t *ImageTransformer) Size() int {
	return t.TimeSteps * t.Features
}

// Reshape lays the raster out row-major as TimeSteps×Features without
// scaling. A raster of any other length is rejected.
func (t *ImageTransformer) Reshape(raster []byte) (*mat.Dense, error) {
	if len(raster) != t.Size() {
		return nil, errors.NewDimensionError("ImageTransformer.Reshape", t.Size(), len(raster), 1)
	}
	data := make([]float64, len(raster))
	for i, p := range raster {
		data[i] = float64(p)
	}
	return mat.NewDense(t.TimeSteps, t.Features, data), nil
}

// Transform reshapes and scales the raster.
func (t *ImageTransformer) Transform(raster []byte) (*mat.Dense, error) {
	x, err := t.Reshape(raster)
	if err != nil {
		return nil, err
	}
	ScalePixels(x)
	return x, nil
}

// ScalePixels divides every element of m by MaxPixel in place.
// Applying it twice is not idempotent; only raw 0–255 input lands in [0,1].
func ScalePixels(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 { return v / MaxPixel }, m)
}

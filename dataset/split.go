// Package dataset loads labelled image splits and turns them into batches.
package dataset

import (
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Sample is one labelled image raster.
type Sample struct {
	Image []byte
	Label int
}

// Split is an in-memory labelled image collection, e.g. the MNIST train set.
// Every image is a row-major Rows×Cols raster.
type Split struct {
	Name   string
	Images [][]byte
	Labels []int
	Rows   int
	Cols   int
}

// NewSplit validates that images and labels line up and that every raster
// has Rows×Cols pixels.
func NewSplit(name string, images [][]byte, labels []int, rows, cols int) (*Split, error) {
	if len(images) != len(labels) {
		return nil, errors.NewDimensionError("dataset.NewSplit", len(images), len(labels), 0)
	}
	for i, img := range images {
		if len(img) != rows*cols {
			return nil, errors.Wrapf(
				errors.NewDimensionError("dataset.NewSplit", rows*cols, len(img), 1),
				"image %d of split %s", i, name)
		}
	}
	return &Split{Name: name, Images: images, Labels: labels, Rows: rows, Cols: cols}, nil
}

// Len returns the number of samples.
func (s *Split) Len() int {
	return len(s.Images)
}

// Sample returns the i-th sample.
func (s *Split) Sample(i int) Sample {
	return Sample{Image: s.Images[i], Label: s.Labels[i]}
}

// Batch is a group of samples laid out time-step major: Steps[t] is a
// B×F matrix holding step t of every sample in the batch.
type Batch struct {
	Steps  []*mat.Dense
	Labels []int
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int {
	return len(b.Labels)
}

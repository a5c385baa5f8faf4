package dataset

import (
	"bufio"
	"path/filepath"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"github.com/YuminosukeSato/rnnbench/pkg/log"
)

// Standard MNIST file stems; each may also be present with a .gz suffix.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// LoadMNIST reads the train and test splits from dir.
func LoadMNIST(dir string) (train, test *Split, err error) {
	train, err = LoadSplit("train", filepath.Join(dir, TrainImagesFile), filepath.Join(dir, TrainLabelsFile))
	if err != nil {
		return nil, nil, err
	}
	test, err = LoadSplit("test", filepath.Join(dir, TestImagesFile), filepath.Join(dir, TestLabelsFile))
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// LoadSplit reads one image file and its matching label file.
func LoadSplit(name, imagesPath, labelsPath string) (*Split, error) {
	logger := log.GetLoggerWithName("dataset")

	imgFile, err := openIDX(imagesPath)
	if err != nil {
		return nil, err
	}
	defer imgFile.Close()
	images, rows, cols, err := ReadIDXImages(bufio.NewReader(imgFile))
	if err != nil {
		return nil, errors.Wrapf(err, "split %s", name)
	}

	lblFile, err := openIDX(labelsPath)
	if err != nil {
		return nil, err
	}
	defer lblFile.Close()
	labels, err := ReadIDXLabels(bufio.NewReader(lblFile))
	if err != nil {
		return nil, errors.Wrapf(err, "split %s", name)
	}

	split, err := NewSplit(name, images, labels, rows, cols)
	if err != nil {
		return nil, err
	}
	logger.Info("Split loaded",
		log.SplitKey, name,
		log.SamplesKey, split.Len(),
		log.FeaturesKey, rows*cols,
		log.PathKey, imagesPath,
	)
	return split, nil
}

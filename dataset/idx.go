package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
)

// IDX magic numbers for unsigned-byte tensors of rank 1 and 3.
const (
	idxLabelsMagic = 0x00000801
	idxImagesMagic = 0x00000803
)

// maxIDXBytes bounds the payload a header may declare.
const maxIDXBytes = 1 << 30

// ReadIDXImages decodes an IDX3 unsigned-byte image file.
func ReadIDXImages(r io.Reader) (images [][]byte, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, errors.Wrap(err, "read idx image header")
	}
	if header[0] != idxImagesMagic {
		return nil, 0, 0, errors.Newf("idx images: bad magic 0x%08x", header[0])
	}
	if header[2] == 0 || header[3] == 0 {
		return nil, 0, 0, errors.Newf("idx images: empty raster %dx%d", header[2], header[3])
	}
	raster := uint64(header[2]) * uint64(header[3])
	if raster > maxIDXBytes || uint64(header[1]) > maxIDXBytes/raster {
		return nil, 0, 0, errors.Newf("idx images: %d images of %dx%d exceed %d bytes",
			header[1], header[2], header[3], maxIDXBytes)
	}
	n, rows, cols := int(header[1]), int(header[2]), int(header[3])

	pixels := make([]byte, n*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, 0, 0, errors.Wrapf(err, "read %d idx images", n)
	}
	images = make([][]byte, n)
	size := rows * cols
	for i := range images {
		images[i] = pixels[i*size : (i+1)*size : (i+1)*size]
	}
	return images, rows, cols, nil
}

// ReadIDXLabels decodes an IDX1 unsigned-byte label file.
func ReadIDXLabels(r io.Reader) ([]int, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read idx label header")
	}
	if header[0] != idxLabelsMagic {
		return nil, errors.Newf("idx labels: bad magic 0x%08x", header[0])
	}
	if header[1] > maxIDXBytes {
		return nil, errors.Newf("idx labels: %d labels exceed %d bytes", header[1], maxIDXBytes)
	}
	raw := make([]byte, header[1])
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrapf(err, "read %d idx labels", header[1])
	}
	labels := make([]int, len(raw))
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

// openIDX opens path, or path+".gz" when only the compressed file exists.
func openIDX(path string) (io.ReadCloser, error) {
	if f, err := os.Open(path); err == nil {
		return f, nil
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	f, err := os.Open(path + ".gz")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s(.gz)", path)
	}
	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "gunzip %s.gz", path)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"testing"
)

func encodeIDXImages(t *testing.T, images [][]byte, rows, cols int) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := [4]uint32{idxImagesMagic, uint32(len(images)), uint32(rows), uint32(cols)}
	if err := binary.Write(&buf, binary.BigEndian, header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, img := range images {
		buf.Write(img)
	}
	return buf.Bytes()
}

func encodeIDXLabels(t *testing.T, labels []int) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := [2]uint32{idxLabelsMagic, uint32(len(labels))}
	if err := binary.Write(&buf, binary.BigEndian, header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, l := range labels {
		buf.WriteByte(byte(l))
	}
	return buf.Bytes()
}

func mustWrite(t *testing.T, path string, data []byte, compress bool) {
	t.Helper()
	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			t.Fatalf("gzip: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("gzip close: %v", err)
		}
		data = buf.Bytes()
		path += ".gz"
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// indexedSplit builds n 1×1 samples whose label equals their index
// and whose single pixel encodes the index low byte.
func indexedSplit(t *testing.T, n int) *Split {
	t.Helper()
	images := make([][]byte, n)
	labels := make([]int, n)
	for i := range images {
		images[i] = []byte{byte(i)}
		labels[i] = i
	}
	s, err := NewSplit("indexed", images, labels, 1, 1)
	if err != nil {
		t.Fatalf("NewSplit: %v", err)
	}
	return s
}

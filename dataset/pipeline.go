package dataset

import (
	"iter"
	"math/rand/v2"

	"github.com/YuminosukeSato/rnnbench/core/parallel"
	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"github.com/YuminosukeSato/rnnbench/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// Pipeline is a lazy, restartable map → shuffle → batch view over a Split.
// Every call to Batches starts a fresh pass; a shuffling pipeline draws a
// new permutation for each pass.
type Pipeline struct {
	source    *Split
	transform preprocessing.SampleTransformer

	bufferSize int
	seed       int64
	batchSize  int
	pass       uint64
}

// NewPipeline maps every sample of src through transform.
func NewPipeline(src *Split, transform preprocessing.SampleTransformer) *Pipeline {
	return &Pipeline{source: src, transform: transform}
}

// Shuffle enables buffered shuffling. A buffer as large as the split gives
// a uniform permutation; smaller buffers only shuffle locally.
func (p *Pipeline) Shuffle(bufferSize int, seed int64) *Pipeline {
	p.bufferSize = bufferSize
	p.seed = seed
	return p
}

// Batch sets the number of samples per batch.
func (p *Pipeline) Batch(size int) *Pipeline {
	p.batchSize = size
	return p
}

// Len returns the number of samples per pass.
func (p *Pipeline) Len() int {
	return p.source.Len()
}

// BatchSize returns the configured batch size.
func (p *Pipeline) BatchSize() int {
	return p.batchSize
}

// NumBatches returns how many batches one pass yields.
func (p *Pipeline) NumBatches() int {
	if p.batchSize <= 0 {
		return 0
	}
	return (p.Len() + p.batchSize - 1) / p.batchSize
}

// Batches returns the batch sequence. Each range over it is a new pass in
// which every sample appears exactly once; all batches hold BatchSize
// samples except possibly the last. Iteration stops after the first error.
func (p *Pipeline) Batches() iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		if p.batchSize <= 0 {
			yield(nil, errors.NewValidationError("batch_size", "must be > 0", p.batchSize))
			return
		}

		p.pass++
		order := p.order(p.pass)
		for start := 0; start < len(order); start += p.batchSize {
			end := min(start+p.batchSize, len(order))
			batch, err := p.assemble(order[start:end])
			if !yield(batch, err) || err != nil {
				return
			}
		}
	}
}

func (p *Pipeline) order(pass uint64) []int {
	n := p.source.Len()
	if p.bufferSize <= 1 {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		return order
	}
	rng := rand.New(rand.NewPCG(uint64(p.seed), pass))
	return bufferedOrder(n, p.bufferSize, rng)
}

// bufferedOrder fills a buffer with the first bufferSize indices, then
// repeatedly emits a uniformly chosen buffered index and refills its slot
// with the next unread one.
func bufferedOrder(n, bufferSize int, rng *rand.Rand) []int {
	order := make([]int, 0, n)
	buf := make([]int, 0, min(bufferSize, n))
	next := 0
	for next < n && len(buf) < bufferSize {
		buf = append(buf, next)
		next++
	}
	for len(buf) > 0 {
		k := rng.IntN(len(buf))
		order = append(order, buf[k])
		if next < n {
			buf[k] = next
			next++
		} else {
			buf[k] = buf[len(buf)-1]
			buf = buf[:len(buf)-1]
		}
	}
	return order
}

// assemble transforms the samples at idx concurrently and stacks them into
// a time-step major batch.
func (p *Pipeline) assemble(idx []int) (*Batch, error) {
	xs := make([]*mat.Dense, len(idx))
	labels := make([]int, len(idx))
	err := parallel.ForEach(len(idx), func(i int) error {
		s := p.source.Sample(idx[i])
		x, err := p.transform.Transform(s.Image)
		if err != nil {
			return errors.Wrapf(err, "sample %d of split %s", idx[i], p.source.Name)
		}
		xs[i] = x
		labels[i] = s.Label
		return nil
	})
	if err != nil {
		return nil, err
	}

	steps, features := xs[0].Dims()
	batch := &Batch{Steps: make([]*mat.Dense, steps), Labels: labels}
	for t := range batch.Steps {
		step := mat.NewDense(len(idx), features, nil)
		for i, x := range xs {
			step.SetRow(i, x.RawRowView(t))
		}
		batch.Steps[t] = step
	}
	return batch, nil
}

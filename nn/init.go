package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer fills a freshly allocated parameter.
type Initializer func(m *mat.Dense, rng *rand.Rand)

// GlorotUniform draws from U(-l, l) with l = sqrt(6 / (fanIn + fanOut)).
func GlorotUniform(m *mat.Dense, rng *rand.Rand) {
	fanIn, fanOut := m.Dims()
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: rng}
	fill(m, dist.Rand)
}

// Orthogonal sets m to a random orthogonal matrix, the Q factor of a QR
// decomposition of a standard normal matrix with the signs fixed by the
// diagonal of R. Non-square matrices get orthonormal rows or columns,
// whichever is shorter.
func Orthogonal(m *mat.Dense, rng *rand.Rand) {
	rows, cols := m.Dims()
	n, k := max(rows, cols), min(rows, cols)

	a := mat.NewDense(n, k, nil)
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	fill(a, dist.Rand)

	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	for j := 0; j < k; j++ {
		if r.At(j, j) < 0 {
			for i := 0; i < n; i++ {
				q.Set(i, j, -q.At(i, j))
			}
		}
	}

	basis := q.Slice(0, n, 0, k)
	if rows < cols {
		m.Copy(basis.T())
		return
	}
	m.Copy(basis)
}

// Zeros leaves m at zero.
func Zeros(*mat.Dense, *rand.Rand) {}

func fill(m *mat.Dense, draw func() float64) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		for j := 0; j < cols; j++ {
			row[j] = draw()
		}
	}
}
